package ffs

import (
	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/pkg"
)

// function is the per-configuration view of an instance.
type function struct {
	inst      *Instance
	desc      Descriptors
	stringIDs []uint8

	interfaces []uint8
}

func (f *function) Name() string {
	return "ffs:" + f.inst.name
}

// Bind reserves one interface number per interface descriptor.
func (f *function) Bind(c *composite.Configuration) error {
	f.interfaces = f.interfaces[:0]
	for range f.desc.Interfaces {
		id, err := c.InterfaceID(f)
		if err != nil {
			return err
		}
		f.interfaces = append(f.interfaces, id)
	}
	pkg.LogDebug(pkg.ComponentFFS, "function bound",
		"function", f.Name(),
		"config", c.Value,
		"interfaces", len(f.interfaces))
	return nil
}

func (f *function) Unbind(*composite.Configuration) {
	f.interfaces = nil
}

// AppendDescriptors implements composite.DescriptorSource with interface
// numbers and string indexes remapped to the ones reserved at bind time.
func (f *function) AppendDescriptors(dst []byte) []byte {
	for n, intf := range f.desc.Interfaces {
		if n >= len(f.interfaces) {
			break
		}
		var index uint8
		if intf.String > 0 && int(intf.String) <= len(f.stringIDs) {
			index = f.stringIDs[intf.String-1]
		}

		var ibuf [composite.InterfaceDescriptorSize]byte
		(&composite.InterfaceDescriptor{
			InterfaceNumber:   f.interfaces[n],
			NumEndpoints:      uint8(len(intf.Endpoints)),
			InterfaceClass:    intf.Class,
			InterfaceSubClass: intf.SubClass,
			InterfaceProtocol: intf.Protocol,
			InterfaceIndex:    index,
		}).MarshalTo(ibuf[:])
		dst = append(dst, ibuf[:]...)

		for _, ep := range intf.Endpoints {
			var ebuf [composite.EndpointDescriptorSize]byte
			(&composite.EndpointDescriptor{
				EndpointAddress: ep.Address,
				Attributes:      ep.Attributes,
				MaxPacketSize:   ep.MaxPacketSize,
				Interval:        ep.Interval,
			}).MarshalTo(ebuf[:])
			dst = append(dst, ebuf[:]...)
		}
	}
	return dst
}
