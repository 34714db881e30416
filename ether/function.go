package ether

import (
	"encoding/hex"
	"net"
	"strings"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/pkg"
)

// Kind identifies a network function flavor.
type Kind uint8

// Network function kinds.
const (
	KindRNDIS  Kind = iota // Remote NDIS
	KindECM                // CDC Ethernet Control Model
	KindSubset             // CDC Ethernet subset
)

// String returns the function name used in logs.
func (k Kind) String() string {
	switch k {
	case KindRNDIS:
		return "rndis"
	case KindECM:
		return "cdc_ethernet"
	case KindSubset:
		return "cdc_subset"
	default:
		return "unknown"
	}
}

// CDC subclass and protocol codes.
const (
	subclassECM   = 0x06
	subclassMDLM  = 0x0A
	subclassRF    = 0x01 // Wireless: RF controller
	protocolRNDIS = 0x03
)

// Endpoint transfer types.
const (
	transferBulk      = 0x02
	transferInterrupt = 0x03
)

// Function is a network function bound into one configuration.
type Function struct {
	kind     Kind
	hostAddr net.HardwareAddr

	bound     bool
	firstIntf uint8
	stringIDs []uint8
	bulkSize  uint16
}

// Kind returns the function flavor.
func (f *Function) Kind() Kind { return f.kind }

// Name implements composite.Function.
func (f *Function) Name() string { return f.kind.String() }

// Interfaces returns the number of interfaces the function occupies.
func (f *Function) Interfaces() int {
	if f.kind == KindSubset {
		return 1
	}
	return 2
}

// labels returns the string descriptors the function registers, in order.
func (f *Function) labels() []string {
	mac := macString(f.hostAddr)
	switch f.kind {
	case KindRNDIS:
		return []string{"RNDIS Communications Control", "RNDIS Ethernet Data"}
	case KindECM:
		return []string{"CDC Ethernet Control Model (ECM)", "CDC Ethernet Data", mac}
	default:
		return []string{"CDC Ethernet Subset/SAFE", mac}
	}
}

// Bind implements composite.Function. It reserves the function's
// interfaces and string IDs on the configuration's device.
func (f *Function) Bind(c *composite.Configuration) error {
	if f.bound {
		return pkg.ErrBusy
	}
	dev := c.Device()
	if dev == nil {
		return pkg.ErrInvalidState
	}

	for i := 0; i < f.Interfaces(); i++ {
		id, err := c.InterfaceID(f)
		if err != nil {
			return err
		}
		if i == 0 {
			f.firstIntf = id
		}
	}

	labels := f.labels()
	f.stringIDs = f.stringIDs[:0]
	for _, text := range labels {
		id, err := dev.StringID()
		if err != nil {
			return err
		}
		if err := dev.SetString(id, text); err != nil {
			return err
		}
		f.stringIDs = append(f.stringIDs, id)
	}

	f.bulkSize = 64
	if dev.Gadget != nil && dev.Gadget.MaxSpeed() >= hal.SpeedHigh {
		f.bulkSize = 512
	}
	f.bound = true

	pkg.LogDebug(pkg.ComponentEther, "network function bound",
		"function", f.Name(),
		"config", c.Value,
		"interface", f.firstIntf,
		"host", f.hostAddr.String())
	return nil
}

// Unbind implements composite.Function.
func (f *Function) Unbind(c *composite.Configuration) {
	f.bound = false
	f.stringIDs = f.stringIDs[:0]
	pkg.LogDebug(pkg.ComponentEther, "network function unbound",
		"function", f.Name(),
		"config", c.Value)
}

// AppendDescriptors implements composite.DescriptorSource.
// Endpoint numbers follow interface numbers.
func (f *Function) AppendDescriptors(dst []byte) []byte {
	if !f.bound {
		return dst
	}
	ctrl, data := f.firstIntf, f.firstIntf+1

	switch f.kind {
	case KindRNDIS:
		dst = appendInterface(dst, composite.InterfaceDescriptor{
			InterfaceNumber:   ctrl,
			NumEndpoints:      1,
			InterfaceClass:    composite.ClassWireless,
			InterfaceSubClass: subclassRF,
			InterfaceProtocol: protocolRNDIS,
			InterfaceIndex:    f.stringIDs[0],
		})
		dst = appendEndpoint(dst, 0x80|(ctrl+1), transferInterrupt, 8, 9)
		dst = appendInterface(dst, composite.InterfaceDescriptor{
			InterfaceNumber: data,
			NumEndpoints:    2,
			InterfaceClass:  composite.ClassCDCData,
			InterfaceIndex:  f.stringIDs[1],
		})
		dst = appendBulkPair(dst, data+1, f.bulkSize)

	case KindECM:
		dst = appendInterface(dst, composite.InterfaceDescriptor{
			InterfaceNumber:   ctrl,
			NumEndpoints:      1,
			InterfaceClass:    composite.ClassCDC,
			InterfaceSubClass: subclassECM,
			InterfaceIndex:    f.stringIDs[0],
		})
		dst = appendEndpoint(dst, 0x80|(ctrl+1), transferInterrupt, 16, 9)
		// Alternate setting 0 carries no traffic; 1 is the active one.
		dst = appendInterface(dst, composite.InterfaceDescriptor{
			InterfaceNumber: data,
			InterfaceClass:  composite.ClassCDCData,
		})
		dst = appendInterface(dst, composite.InterfaceDescriptor{
			InterfaceNumber:  data,
			AlternateSetting: 1,
			NumEndpoints:     2,
			InterfaceClass:   composite.ClassCDCData,
			InterfaceIndex:   f.stringIDs[1],
		})
		dst = appendBulkPair(dst, data+1, f.bulkSize)

	default:
		dst = appendInterface(dst, composite.InterfaceDescriptor{
			InterfaceNumber:   ctrl,
			NumEndpoints:      2,
			InterfaceClass:    composite.ClassCDC,
			InterfaceSubClass: subclassMDLM,
			InterfaceIndex:    f.stringIDs[0],
		})
		dst = appendBulkPair(dst, ctrl+1, f.bulkSize)
	}
	return dst
}

// StringIDs returns the string IDs reserved by the last bind.
func (f *Function) StringIDs() []uint8 {
	return f.stringIDs
}

func appendInterface(dst []byte, d composite.InterfaceDescriptor) []byte {
	var buf [composite.InterfaceDescriptorSize]byte
	d.MarshalTo(buf[:])
	return append(dst, buf[:]...)
}

func appendEndpoint(dst []byte, addr, attr uint8, size uint16, interval uint8) []byte {
	var buf [composite.EndpointDescriptorSize]byte
	(&composite.EndpointDescriptor{
		EndpointAddress: addr,
		Attributes:      attr,
		MaxPacketSize:   size,
		Interval:        interval,
	}).MarshalTo(buf[:])
	return append(dst, buf[:]...)
}

func appendBulkPair(dst []byte, num uint8, size uint16) []byte {
	dst = appendEndpoint(dst, 0x80|num, transferBulk, size, 0)
	return appendEndpoint(dst, num, transferBulk, size, 0)
}

// macString formats addr the way CDC iMACAddress strings are written:
// twelve upper-case hex digits without separators.
func macString(addr net.HardwareAddr) string {
	return strings.ToUpper(hex.EncodeToString(addr))
}

func bind(c *composite.Configuration, kind Kind, hostAddr net.HardwareAddr) error {
	if len(hostAddr) != 6 {
		return pkg.ErrInvalidParameter
	}
	f := &Function{
		kind:     kind,
		hostAddr: append(net.HardwareAddr(nil), hostAddr...),
	}
	return c.AddFunction(f)
}

// BindRNDIS adds an RNDIS function to c.
func BindRNDIS(c *composite.Configuration, hostAddr net.HardwareAddr) error {
	return bind(c, KindRNDIS, hostAddr)
}

// BindECM adds a CDC ECM function to c.
func BindECM(c *composite.Configuration, hostAddr net.HardwareAddr) error {
	return bind(c, KindECM, hostAddr)
}

// BindSubset adds a CDC subset function to c. It is the fallback for
// controllers that cannot run ECM.
func BindSubset(c *composite.Configuration, hostAddr net.HardwareAddr) error {
	return bind(c, KindSubset, hostAddr)
}
