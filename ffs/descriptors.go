package ffs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/pkg"
)

// Descriptors is what user space supplies when it activates a function:
// the interfaces it implements and the strings they reference.
type Descriptors struct {
	Interfaces []InterfaceSpec `yaml:"interfaces"`
	Strings    []string        `yaml:"strings"`
}

// InterfaceSpec describes one interface of a user-space function.
// Interface numbers are assigned at bind time.
type InterfaceSpec struct {
	Class     uint8          `yaml:"class"`
	SubClass  uint8          `yaml:"subclass"`
	Protocol  uint8          `yaml:"protocol"`
	String    uint8          `yaml:"string"` // 1-based index into Strings, 0 for none
	Endpoints []EndpointSpec `yaml:"endpoints"`
}

// EndpointSpec describes one endpoint of an interface.
type EndpointSpec struct {
	Address       uint8  `yaml:"address"`
	Attributes    uint8  `yaml:"attributes"`
	MaxPacketSize uint16 `yaml:"max_packet_size"`
	Interval      uint8  `yaml:"interval"`
}

// Validate checks that d describes a function the composite layer can
// bind.
func (d *Descriptors) Validate() error {
	if len(d.Interfaces) == 0 {
		return fmt.Errorf("%w: no interfaces", pkg.ErrInvalidParameter)
	}
	if len(d.Interfaces) > composite.MaxConfigInterfaces {
		return fmt.Errorf("%w: %d interfaces, limit %d",
			pkg.ErrInvalidParameter, len(d.Interfaces), composite.MaxConfigInterfaces)
	}

	seen := make(map[uint8]bool)
	for i, intf := range d.Interfaces {
		if int(intf.String) > len(d.Strings) {
			return fmt.Errorf("%w: interface %d references string %d of %d",
				pkg.ErrInvalidParameter, i, intf.String, len(d.Strings))
		}
		for _, ep := range intf.Endpoints {
			if ep.Address&0x0F == 0 {
				return fmt.Errorf("%w: interface %d uses endpoint 0",
					pkg.ErrInvalidParameter, i)
			}
			if seen[ep.Address] {
				return fmt.Errorf("%w: endpoint 0x%02X declared twice",
					pkg.ErrInvalidParameter, ep.Address)
			}
			seen[ep.Address] = true
		}
	}
	return nil
}

// ParseDescriptors decodes a concatenated descriptor blob, as written to
// ep0 of a FunctionFS mount, into Descriptors. Endpoint descriptors belong
// to the interface preceding them. Class-specific descriptors are skipped.
func ParseDescriptors(blob []byte, strings []string) (Descriptors, error) {
	d := Descriptors{Strings: strings}

	for off := 0; off < len(blob); {
		length := int(blob[off])
		if length < 2 || off+length > len(blob) {
			return Descriptors{}, fmt.Errorf("%w: at offset %d",
				pkg.ErrDescriptorTooShort, off)
		}
		data := blob[off : off+length]

		switch data[1] {
		case composite.DescriptorTypeInterface:
			var intf composite.InterfaceDescriptor
			if err := composite.ParseInterfaceDescriptor(data, &intf); err != nil {
				return Descriptors{}, err
			}
			// Alternate settings share the interface number of setting 0.
			if intf.AlternateSetting == 0 {
				d.Interfaces = append(d.Interfaces, InterfaceSpec{
					Class:    intf.InterfaceClass,
					SubClass: intf.InterfaceSubClass,
					Protocol: intf.InterfaceProtocol,
					String:   intf.InterfaceIndex,
				})
			}

		case composite.DescriptorTypeEndpoint:
			var ep composite.EndpointDescriptor
			if err := composite.ParseEndpointDescriptor(data, &ep); err != nil {
				return Descriptors{}, err
			}
			if len(d.Interfaces) == 0 {
				return Descriptors{}, fmt.Errorf("%w: endpoint before interface",
					pkg.ErrInvalidParameter)
			}
			last := &d.Interfaces[len(d.Interfaces)-1]
			last.Endpoints = append(last.Endpoints, EndpointSpec{
				Address:       ep.EndpointAddress,
				Attributes:    ep.Attributes,
				MaxPacketSize: ep.MaxPacketSize,
				Interval:      ep.Interval,
			})
		}
		off += length
	}

	if err := d.Validate(); err != nil {
		return Descriptors{}, err
	}
	return d, nil
}

// LoadDescriptors reads and validates a YAML descriptor file.
func LoadDescriptors(path string) (Descriptors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptors{}, err
	}
	return DecodeDescriptors(data)
}

// DecodeDescriptors decodes and validates YAML descriptor data.
func DecodeDescriptors(data []byte) (Descriptors, error) {
	var d Descriptors
	if err := yaml.UnmarshalStrict(data, &d); err != nil {
		return Descriptors{}, fmt.Errorf("%w: %w", pkg.ErrInvalidParameter, err)
	}
	if err := d.Validate(); err != nil {
		return Descriptors{}, err
	}
	return d, nil
}
