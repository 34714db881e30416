package composite

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/ardnew/softgadget/pkg"
)

// USB descriptor types (USB 2.0 Table 9-5).
const (
	DescriptorTypeDevice        = 0x01
	DescriptorTypeConfiguration = 0x02
	DescriptorTypeString        = 0x03
	DescriptorTypeInterface     = 0x04
	DescriptorTypeEndpoint      = 0x05
	DescriptorTypeOTG           = 0x09
	DescriptorTypeCSInterface   = 0x24
	DescriptorTypeCSEndpoint    = 0x25
)

// USB class codes used by the composite gadget and its sub-functions.
const (
	ClassPerInterface = 0x00
	ClassCDC          = 0x02
	ClassCDCData      = 0x0A
	ClassWireless     = 0xE0
	ClassMisc         = 0xEF
	ClassVendor       = 0xFF
)

// Descriptor sizes in bytes.
const (
	DeviceDescriptorSize        = 18
	ConfigurationDescriptorSize = 9
	InterfaceDescriptorSize     = 9
	EndpointDescriptorSize      = 7
	OTGDescriptorSize           = 3
)

// Configuration attribute bits.
const (
	ConfigAttrBusPowered   = 0x80 // Reserved, must be set
	ConfigAttrSelfPowered  = 0x40
	ConfigAttrRemoteWakeup = 0x20
)

// OTG descriptor attribute bits.
const (
	OTGAttrSRP = 0x01 // Session Request Protocol
	OTGAttrHNP = 0x02 // Host Negotiation Protocol
)

// LangIDUSEnglish is the language ID for US English.
const LangIDUSEnglish = 0x0409

// header validates the length and type of a descriptor.
func header(data []byte, size int, typ uint8) error {
	if len(data) < size {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != typ {
		return pkg.ErrDescriptorTypeMismatch
	}
	return nil
}

// DeviceDescriptor is the 18-byte USB device descriptor.
type DeviceDescriptor struct {
	USBVersion        uint16 // bcdUSB
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	VendorID          uint16
	ProductID         uint16
	DeviceVersion     uint16 // bcdDevice
	ManufacturerIndex uint8
	ProductIndex      uint8
	SerialNumberIndex uint8
	NumConfigurations uint8
}

// MarshalTo serializes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (d *DeviceDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < DeviceDescriptorSize {
		return 0
	}
	buf[0] = DeviceDescriptorSize
	buf[1] = DescriptorTypeDevice
	binary.LittleEndian.PutUint16(buf[2:], d.USBVersion)
	buf[4] = d.DeviceClass
	buf[5] = d.DeviceSubClass
	buf[6] = d.DeviceProtocol
	buf[7] = d.MaxPacketSize0
	binary.LittleEndian.PutUint16(buf[8:], d.VendorID)
	binary.LittleEndian.PutUint16(buf[10:], d.ProductID)
	binary.LittleEndian.PutUint16(buf[12:], d.DeviceVersion)
	buf[14] = d.ManufacturerIndex
	buf[15] = d.ProductIndex
	buf[16] = d.SerialNumberIndex
	buf[17] = d.NumConfigurations
	return DeviceDescriptorSize
}

// ParseDeviceDescriptor parses a device descriptor from data into out.
func ParseDeviceDescriptor(data []byte, out *DeviceDescriptor) error {
	if err := header(data, DeviceDescriptorSize, DescriptorTypeDevice); err != nil {
		return err
	}
	*out = DeviceDescriptor{
		USBVersion:        binary.LittleEndian.Uint16(data[2:]),
		DeviceClass:       data[4],
		DeviceSubClass:    data[5],
		DeviceProtocol:    data[6],
		MaxPacketSize0:    data[7],
		VendorID:          binary.LittleEndian.Uint16(data[8:]),
		ProductID:         binary.LittleEndian.Uint16(data[10:]),
		DeviceVersion:     binary.LittleEndian.Uint16(data[12:]),
		ManufacturerIndex: data[14],
		ProductIndex:      data[15],
		SerialNumberIndex: data[16],
		NumConfigurations: data[17],
	}
	return nil
}

// ConfigurationDescriptor is the 9-byte configuration descriptor header.
type ConfigurationDescriptor struct {
	TotalLength        uint16
	NumInterfaces      uint8
	ConfigurationValue uint8
	ConfigurationIndex uint8
	Attributes         uint8
	MaxPower           uint8 // 2 mA units
}

// MarshalTo serializes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (c *ConfigurationDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < ConfigurationDescriptorSize {
		return 0
	}
	buf[0] = ConfigurationDescriptorSize
	buf[1] = DescriptorTypeConfiguration
	binary.LittleEndian.PutUint16(buf[2:], c.TotalLength)
	buf[4] = c.NumInterfaces
	buf[5] = c.ConfigurationValue
	buf[6] = c.ConfigurationIndex
	buf[7] = c.Attributes | ConfigAttrBusPowered
	buf[8] = c.MaxPower
	return ConfigurationDescriptorSize
}

// ParseConfigurationDescriptor parses a configuration descriptor header.
func ParseConfigurationDescriptor(data []byte, out *ConfigurationDescriptor) error {
	if err := header(data, ConfigurationDescriptorSize, DescriptorTypeConfiguration); err != nil {
		return err
	}
	*out = ConfigurationDescriptor{
		TotalLength:        binary.LittleEndian.Uint16(data[2:]),
		NumInterfaces:      data[4],
		ConfigurationValue: data[5],
		ConfigurationIndex: data[6],
		Attributes:         data[7],
		MaxPower:           data[8],
	}
	return nil
}

// InterfaceDescriptor is the 9-byte interface descriptor.
type InterfaceDescriptor struct {
	InterfaceNumber   uint8
	AlternateSetting  uint8
	NumEndpoints      uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	InterfaceIndex    uint8
}

// MarshalTo serializes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (i *InterfaceDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < InterfaceDescriptorSize {
		return 0
	}
	buf[0] = InterfaceDescriptorSize
	buf[1] = DescriptorTypeInterface
	buf[2] = i.InterfaceNumber
	buf[3] = i.AlternateSetting
	buf[4] = i.NumEndpoints
	buf[5] = i.InterfaceClass
	buf[6] = i.InterfaceSubClass
	buf[7] = i.InterfaceProtocol
	buf[8] = i.InterfaceIndex
	return InterfaceDescriptorSize
}

// ParseInterfaceDescriptor parses an interface descriptor from data into out.
func ParseInterfaceDescriptor(data []byte, out *InterfaceDescriptor) error {
	if err := header(data, InterfaceDescriptorSize, DescriptorTypeInterface); err != nil {
		return err
	}
	*out = InterfaceDescriptor{
		InterfaceNumber:   data[2],
		AlternateSetting:  data[3],
		NumEndpoints:      data[4],
		InterfaceClass:    data[5],
		InterfaceSubClass: data[6],
		InterfaceProtocol: data[7],
		InterfaceIndex:    data[8],
	}
	return nil
}

// EndpointDescriptor is the 7-byte endpoint descriptor.
type EndpointDescriptor struct {
	EndpointAddress uint8
	Attributes      uint8
	MaxPacketSize   uint16
	Interval        uint8
}

// MarshalTo serializes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (e *EndpointDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < EndpointDescriptorSize {
		return 0
	}
	buf[0] = EndpointDescriptorSize
	buf[1] = DescriptorTypeEndpoint
	buf[2] = e.EndpointAddress
	buf[3] = e.Attributes
	binary.LittleEndian.PutUint16(buf[4:], e.MaxPacketSize)
	buf[6] = e.Interval
	return EndpointDescriptorSize
}

// ParseEndpointDescriptor parses an endpoint descriptor from data into out.
func ParseEndpointDescriptor(data []byte, out *EndpointDescriptor) error {
	if err := header(data, EndpointDescriptorSize, DescriptorTypeEndpoint); err != nil {
		return err
	}
	*out = EndpointDescriptor{
		EndpointAddress: data[2],
		Attributes:      data[3],
		MaxPacketSize:   binary.LittleEndian.Uint16(data[4:]),
		Interval:        data[6],
	}
	return nil
}

// OTGDescriptor advertises On-The-Go capabilities in a configuration.
type OTGDescriptor struct {
	Attributes uint8 // OTGAttrSRP | OTGAttrHNP
}

// MarshalTo serializes the descriptor to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (o *OTGDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < OTGDescriptorSize {
		return 0
	}
	buf[0] = OTGDescriptorSize
	buf[1] = DescriptorTypeOTG
	buf[2] = o.Attributes
	return OTGDescriptorSize
}

// Bytes returns the serialized descriptor.
func (o *OTGDescriptor) Bytes() []byte {
	var buf [OTGDescriptorSize]byte
	o.MarshalTo(buf[:])
	return buf[:]
}

// StringDescriptorTo writes s as a UTF-16LE string descriptor to buf.
// Strings longer than a descriptor can hold are truncated.
// Returns the number of bytes written, or 0 if buf is too small.
func StringDescriptorTo(buf []byte, s string) int {
	units := utf16.Encode([]rune(s))
	if limit := (255 - 2) / 2; len(units) > limit {
		units = units[:limit]
	}
	length := 2 + 2*len(units)
	if len(buf) < length {
		return 0
	}
	buf[0] = uint8(length)
	buf[1] = DescriptorTypeString
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[2+2*i:], u)
	}
	return length
}

// LanguageDescriptorTo writes string descriptor zero (supported language
// IDs) to buf. Returns the number of bytes written, or 0 if buf is too small.
func LanguageDescriptorTo(buf []byte, langIDs ...uint16) int {
	length := 2 + 2*len(langIDs)
	if len(buf) < length {
		return 0
	}
	buf[0] = uint8(length)
	buf[1] = DescriptorTypeString
	for i, id := range langIDs {
		binary.LittleEndian.PutUint16(buf[2+2*i:], id)
	}
	return length
}
