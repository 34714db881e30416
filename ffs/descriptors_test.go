package ffs

import (
	"errors"
	"testing"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/pkg"
)

func loopback() Descriptors {
	return Descriptors{
		Strings: []string{"Bulk Loopback"},
		Interfaces: []InterfaceSpec{{
			Class:  composite.ClassVendor,
			String: 1,
			Endpoints: []EndpointSpec{
				{Address: 0x81, Attributes: 2, MaxPacketSize: 512},
				{Address: 0x01, Attributes: 2, MaxPacketSize: 512},
			},
		}},
	}
}

func TestDescriptors_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Descriptors)
		wantErr bool
	}{
		{"valid", func(*Descriptors) {}, false},
		{"no interfaces", func(d *Descriptors) { d.Interfaces = nil }, true},
		{"too many interfaces", func(d *Descriptors) {
			d.Interfaces = make([]InterfaceSpec, composite.MaxConfigInterfaces+1)
		}, true},
		{"string out of range", func(d *Descriptors) { d.Interfaces[0].String = 2 }, true},
		{"endpoint zero", func(d *Descriptors) { d.Interfaces[0].Endpoints[0].Address = 0x80 }, true},
		{"duplicate endpoint", func(d *Descriptors) { d.Interfaces[0].Endpoints[1].Address = 0x81 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := loopback()
			tt.mutate(&d)
			err := d.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, pkg.ErrInvalidParameter) {
				t.Errorf("Validate() error = %v, want %v", err, pkg.ErrInvalidParameter)
			}
		})
	}
}

func TestParseDescriptors(t *testing.T) {
	var blob []byte
	appendDesc := func(n int, marshal func([]byte) int) {
		buf := make([]byte, n)
		marshal(buf)
		blob = append(blob, buf...)
	}
	intf := composite.InterfaceDescriptor{NumEndpoints: 2, InterfaceClass: composite.ClassVendor, InterfaceIndex: 1}
	appendDesc(composite.InterfaceDescriptorSize, intf.MarshalTo)
	// class-specific descriptors are skipped
	blob = append(blob, 5, composite.DescriptorTypeCSInterface, 0, 0, 0)
	in := composite.EndpointDescriptor{EndpointAddress: 0x81, Attributes: 2, MaxPacketSize: 512}
	out := composite.EndpointDescriptor{EndpointAddress: 0x01, Attributes: 2, MaxPacketSize: 512}
	appendDesc(composite.EndpointDescriptorSize, in.MarshalTo)
	appendDesc(composite.EndpointDescriptorSize, out.MarshalTo)
	alt := composite.InterfaceDescriptor{AlternateSetting: 1, InterfaceClass: composite.ClassVendor}
	appendDesc(composite.InterfaceDescriptorSize, alt.MarshalTo)

	d, err := ParseDescriptors(blob, []string{"Bulk Loopback"})
	if err != nil {
		t.Fatalf("ParseDescriptors() error = %v", err)
	}
	if len(d.Interfaces) != 1 {
		t.Fatalf("len(Interfaces) = %d, want 1", len(d.Interfaces))
	}
	if got := len(d.Interfaces[0].Endpoints); got != 2 {
		t.Errorf("len(Endpoints) = %d, want 2", got)
	}
	if d.Interfaces[0].String != 1 {
		t.Errorf("String = %d, want 1", d.Interfaces[0].String)
	}
}

func TestParseDescriptors_Errors(t *testing.T) {
	ep := make([]byte, composite.EndpointDescriptorSize)
	(&composite.EndpointDescriptor{EndpointAddress: 0x81}).MarshalTo(ep)

	tests := []struct {
		name string
		blob []byte
		want error
	}{
		{"empty", nil, pkg.ErrInvalidParameter},
		{"zero length", []byte{0, composite.DescriptorTypeInterface}, pkg.ErrDescriptorTooShort},
		{"truncated", []byte{9, composite.DescriptorTypeInterface, 0}, pkg.ErrDescriptorTooShort},
		{"endpoint first", ep, pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDescriptors(tt.blob, nil); !errors.Is(err, tt.want) {
				t.Errorf("ParseDescriptors() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadDescriptors(t *testing.T) {
	d, err := LoadDescriptors("testdata/loopback.yaml")
	if err != nil {
		t.Fatalf("LoadDescriptors() error = %v", err)
	}
	if len(d.Strings) != 1 || d.Strings[0] != "Bulk Loopback" {
		t.Errorf("Strings = %v", d.Strings)
	}
	if len(d.Interfaces) != 1 || len(d.Interfaces[0].Endpoints) != 2 {
		t.Fatalf("Interfaces = %+v", d.Interfaces)
	}
	if ep := d.Interfaces[0].Endpoints[0]; ep.Address != 0x81 || ep.MaxPacketSize != 512 {
		t.Errorf("Endpoints[0] = %+v", ep)
	}

	if _, err := LoadDescriptors("testdata/missing.yaml"); err == nil {
		t.Error("LoadDescriptors(missing) error = nil")
	}
}

func TestDecodeDescriptors_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", "interfaces: [{class: 255, colour: red}]"},
		{"not yaml", "interfaces: [\n"},
		{"no interfaces", "strings: [a]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeDescriptors([]byte(tt.data)); !errors.Is(err, pkg.ErrInvalidParameter) {
				t.Errorf("DecodeDescriptors() error = %v, want %v", err, pkg.ErrInvalidParameter)
			}
		})
	}
}
