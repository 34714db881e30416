package gadget

import (
	"net"

	"github.com/ardnew/softgadget/composite"
)

// Default identity: Netchip Technology, FunctionFS gadget.
const (
	DefaultVendorID  = 0x0525
	DefaultProductID = 0xa4ac
)

// Params are the device descriptor values a gadget binds with.
type Params struct {
	Class    uint8
	SubClass uint8
	Protocol uint8

	VendorID  uint16
	ProductID uint16

	// HostAddr is the host-side MAC address of network configurations.
	// Empty selects a random address.
	HostAddr net.HardwareAddr
}

// DefaultParams returns the stock FunctionFS gadget identity.
func DefaultParams() Params {
	return Params{
		VendorID:  DefaultVendorID,
		ProductID: DefaultProductID,
	}
}

// apply copies p into the descriptor fields it controls.
func (p Params) apply(d *composite.DeviceDescriptor) {
	d.DeviceClass = p.Class
	d.DeviceSubClass = p.SubClass
	d.DeviceProtocol = p.Protocol
	d.VendorID = p.VendorID
	d.ProductID = p.ProductID
}
