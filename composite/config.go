package composite

import (
	"github.com/ardnew/softgadget/pkg"
)

// Configuration is one selectable bundle of functions.
//
// A Configuration value is normally long-lived and re-added to a device on
// every bind. Adding it resets NextInterfaceID but leaves the Interfaces
// array as the previous bind left it. Consumers of the array stop at the
// first nil slot, so whoever binds functions into the configuration must
// nil every slot past the last one in use.
type Configuration struct {
	Label       string
	Value       uint8 // bConfigurationValue
	Attributes  uint8
	MaxPower    uint8 // 2 mA units
	StringIndex uint8 // iConfiguration

	// Descriptors are emitted ahead of the function descriptors, e.g. an
	// OTG descriptor.
	Descriptors [][]byte

	// BindFunc populates the configuration with functions when the
	// configuration is added to a device.
	BindFunc func(c *Configuration) error

	// Interfaces maps interface numbers to the function owning them.
	Interfaces      [MaxConfigInterfaces]Function
	NextInterfaceID uint8

	functions []Function
	device    *Device
}

// NewConfiguration creates a self-powered configuration.
func NewConfiguration(label string, value uint8, bind func(c *Configuration) error) *Configuration {
	return &Configuration{
		Label:      label,
		Value:      value,
		Attributes: ConfigAttrBusPowered | ConfigAttrSelfPowered,
		MaxPower:   1,
		BindFunc:   bind,
	}
}

// Device returns the device the configuration is currently added to.
func (c *Configuration) Device() *Device {
	return c.device
}

// AddFunction binds f into the configuration. If f fails to bind it is not
// retained.
func (c *Configuration) AddFunction(f Function) error {
	c.functions = append(c.functions, f)
	if err := f.Bind(c); err != nil {
		c.functions = c.functions[:len(c.functions)-1]
		pkg.LogDebug(pkg.ComponentComposite, "function bind failed",
			"config", c.Value,
			"function", f.Name(),
			"error", err)
		return err
	}

	pkg.LogDebug(pkg.ComponentComposite, "function added to configuration",
		"config", c.Value,
		"function", f.Name())
	return nil
}

// InterfaceID reserves the next interface number for f.
func (c *Configuration) InterfaceID(f Function) (uint8, error) {
	id := c.NextInterfaceID
	if int(id) >= MaxConfigInterfaces {
		return 0, pkg.ErrOutOfInterfaces
	}
	c.Interfaces[id] = f
	c.NextInterfaceID++
	return id, nil
}

// Functions returns the bound functions in the order they were added.
// The returned slice references internal storage; do not modify.
func (c *Configuration) Functions() []Function {
	return c.functions
}

// ActiveInterfaces returns the interface slots up to, not including, the
// first nil entry. This is the view the host is given when the
// configuration is selected.
func (c *Configuration) ActiveInterfaces() []Function {
	for n, f := range c.Interfaces {
		if f == nil {
			return c.Interfaces[:n]
		}
	}
	return c.Interfaces[:]
}

// SetRemoteWakeup sets or clears the remote wakeup attribute.
func (c *Configuration) SetRemoteWakeup(enabled bool) {
	if enabled {
		c.Attributes |= ConfigAttrRemoteWakeup
	} else {
		c.Attributes &^= ConfigAttrRemoteWakeup
	}
}

// SupportsRemoteWakeup reports whether the remote wakeup attribute is set.
func (c *Configuration) SupportsRemoteWakeup() bool {
	return c.Attributes&ConfigAttrRemoteWakeup != 0
}

// IsSelfPowered reports whether the self-powered attribute is set.
func (c *Configuration) IsSelfPowered() bool {
	return c.Attributes&ConfigAttrSelfPowered != 0
}

// Descriptor returns the configuration descriptor header.
func (c *Configuration) Descriptor() *ConfigurationDescriptor {
	return &ConfigurationDescriptor{
		TotalLength:        uint16(len(c.body(nil)) + ConfigurationDescriptorSize),
		NumInterfaces:      uint8(len(c.ActiveInterfaces())),
		ConfigurationValue: c.Value,
		ConfigurationIndex: c.StringIndex,
		Attributes:         c.Attributes,
		MaxPower:           c.MaxPower,
	}
}

// body appends everything following the configuration header.
func (c *Configuration) body(dst []byte) []byte {
	for _, d := range c.Descriptors {
		dst = append(dst, d...)
	}
	for _, f := range c.functions {
		if src, ok := f.(DescriptorSource); ok {
			dst = src.AppendDescriptors(dst)
		}
	}
	return dst
}

// MarshalTo writes the full configuration descriptor set to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (c *Configuration) MarshalTo(buf []byte) int {
	body := c.body(nil)
	total := ConfigurationDescriptorSize + len(body)
	if len(buf) < total || total > 0xFFFF {
		return 0
	}
	c.Descriptor().MarshalTo(buf)
	copy(buf[ConfigurationDescriptorSize:], body)
	return total
}

// unbindFunctions unbinds every function, most recently added first.
// The Interfaces array is deliberately left untouched.
func (c *Configuration) unbindFunctions() {
	for i := len(c.functions) - 1; i >= 0; i-- {
		f := c.functions[i]
		f.Unbind(c)
		pkg.LogDebug(pkg.ComponentComposite, "function unbound",
			"config", c.Value,
			"function", f.Name())
	}
	c.functions = nil
}
