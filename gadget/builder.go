package gadget

import (
	"net"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/ether"
	"github.com/ardnew/softgadget/pkg"
)

// NetworkBinder adds a network function to a configuration.
type NetworkBinder func(c *composite.Configuration, hostAddr net.HardwareAddr) error

// Binders are the network binders a coordinator selects from.
type Binders struct {
	RNDIS  NetworkBinder
	ECM    NetworkBinder
	Subset NetworkBinder // used in place of ECM when the gadget cannot run it
}

// DefaultBinders returns the binders from package ether.
func DefaultBinders() Binders {
	return Binders{
		RNDIS:  ether.BindRNDIS,
		ECM:    ether.BindECM,
		Subset: ether.BindSubset,
	}
}

// For returns the binder for kind k on gadget g, or nil for configurations
// without a network function.
func (b Binders) For(k Kind, g hal.Gadget) NetworkBinder {
	switch k {
	case KindRNDIS:
		return b.RNDIS
	case KindECM:
		if ether.CanSupportECM(g) {
			return b.ECM
		}
		return b.Subset
	default:
		return nil
	}
}

var otgDescriptor = composite.OTGDescriptor{
	Attributes: composite.OTGAttrSRP | composite.OTGAttrHNP,
}

// ConfigBuilder attaches the current function instance to configurations.
type ConfigBuilder struct {
	// Instance returns the function instance to attach, or nil if none is
	// held.
	Instance func() Function
}

// Attach populates c on cdev: the OTG descriptor when the gadget supports
// OTG (cleared otherwise), then the network function from binder, then the function instance.
// Interface slots past the last one used are cleared before returning.
func (b *ConfigBuilder) Attach(cdev *composite.Device, c *composite.Configuration, binder NetworkBinder, hostAddr net.HardwareAddr) error {
	var fn Function
	if b.Instance != nil {
		fn = b.Instance()
	}
	if fn == nil {
		return pkg.ErrNoInstance
	}

	// Configurations are reused across binds, possibly on another gadget.
	if cdev.Gadget != nil && cdev.Gadget.IsOTG() {
		c.Descriptors = [][]byte{otgDescriptor.Bytes()}
		c.SetRemoteWakeup(true)
	} else {
		c.Descriptors = nil
		c.SetRemoteWakeup(false)
	}

	if binder != nil {
		if err := binder(c, hostAddr); err != nil {
			pkg.LogDebug(pkg.ComponentGadget, "network binder failed",
				"config", c.Value,
				"error", err)
			return err
		}
	}

	if err := fn.Add(cdev, c); err != nil {
		return err
	}

	// The slot array survives rebinds and is read up to the first nil.
	for i := int(c.NextInterfaceID); i < len(c.Interfaces); i++ {
		c.Interfaces[i] = nil
	}

	pkg.LogDebug(pkg.ComponentGadget, "configuration attached",
		"config", c.Value,
		"label", c.Label,
		"interfaces", c.NextInterfaceID)
	return nil
}
