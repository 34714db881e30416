package composite

import (
	"errors"
	"testing"

	"github.com/ardnew/softgadget/pkg"
)

func TestNewConfiguration(t *testing.T) {
	c := NewConfiguration("FunctionFS", 2, nil)

	if c.Value != 2 {
		t.Errorf("Value = %d, want 2", c.Value)
	}
	if !c.IsSelfPowered() {
		t.Error("IsSelfPowered() = false, want true")
	}
	if c.SupportsRemoteWakeup() {
		t.Error("SupportsRemoteWakeup() = true, want false")
	}
	c.SetRemoteWakeup(true)
	if !c.SupportsRemoteWakeup() {
		t.Error("SupportsRemoteWakeup() = false after SetRemoteWakeup(true)")
	}
	c.SetRemoteWakeup(false)
	if c.SupportsRemoteWakeup() {
		t.Error("SupportsRemoteWakeup() = true after SetRemoteWakeup(false)")
	}
}

func TestConfiguration_AddFunction(t *testing.T) {
	c := NewConfiguration("test", 1, nil)
	f := &mockFunction{name: "f", interfaces: 2}

	if err := c.AddFunction(f); err != nil {
		t.Fatalf("AddFunction() error = %v", err)
	}
	if c.NextInterfaceID != 2 {
		t.Errorf("NextInterfaceID = %d, want 2", c.NextInterfaceID)
	}
	if got := len(c.ActiveInterfaces()); got != 2 {
		t.Errorf("len(ActiveInterfaces()) = %d, want 2", got)
	}
	if got := len(c.Functions()); got != 1 {
		t.Errorf("len(Functions()) = %d, want 1", got)
	}

	failing := &mockFunction{name: "bad", bindErr: pkg.ErrNotSupported}
	if err := c.AddFunction(failing); !errors.Is(err, pkg.ErrNotSupported) {
		t.Errorf("AddFunction() error = %v, want %v", err, pkg.ErrNotSupported)
	}
	if got := len(c.Functions()); got != 1 {
		t.Errorf("len(Functions()) after failed bind = %d, want 1", got)
	}
}

func TestConfiguration_InterfaceIDExhausted(t *testing.T) {
	c := NewConfiguration("test", 1, nil)
	f := &mockFunction{name: "wide", interfaces: MaxConfigInterfaces + 1}

	if err := c.AddFunction(f); !errors.Is(err, pkg.ErrOutOfInterfaces) {
		t.Errorf("AddFunction() error = %v, want %v", err, pkg.ErrOutOfInterfaces)
	}
}

func TestConfiguration_ActiveInterfacesStopsAtNil(t *testing.T) {
	c := NewConfiguration("test", 1, nil)
	f := &mockFunction{name: "f"}
	c.Interfaces[0] = f
	c.Interfaces[1] = f
	c.Interfaces[3] = f

	if got := len(c.ActiveInterfaces()); got != 2 {
		t.Errorf("len(ActiveInterfaces()) = %d, want 2", got)
	}

	for i := range c.Interfaces {
		c.Interfaces[i] = f
	}
	if got := len(c.ActiveInterfaces()); got != MaxConfigInterfaces {
		t.Errorf("len(ActiveInterfaces()) full = %d, want %d", got, MaxConfigInterfaces)
	}
}

func TestConfiguration_MarshalTo(t *testing.T) {
	c := NewConfiguration("test", 1, nil)
	c.Descriptors = [][]byte{(&OTGDescriptor{Attributes: OTGAttrSRP}).Bytes()}
	f := &mockFunction{name: "f", interfaces: 1}
	if err := c.AddFunction(f); err != nil {
		t.Fatalf("AddFunction() error = %v", err)
	}

	var buf [64]byte
	n := c.MarshalTo(buf[:])
	want := ConfigurationDescriptorSize + OTGDescriptorSize + InterfaceDescriptorSize
	if n != want {
		t.Fatalf("MarshalTo() = %d, want %d", n, want)
	}

	var hdr ConfigurationDescriptor
	if err := ParseConfigurationDescriptor(buf[:n], &hdr); err != nil {
		t.Fatalf("ParseConfigurationDescriptor() error = %v", err)
	}
	if int(hdr.TotalLength) != want {
		t.Errorf("TotalLength = %d, want %d", hdr.TotalLength, want)
	}
	if hdr.NumInterfaces != 1 {
		t.Errorf("NumInterfaces = %d, want 1", hdr.NumInterfaces)
	}
	if buf[ConfigurationDescriptorSize+1] != DescriptorTypeOTG {
		t.Errorf("first body descriptor type = 0x%02X, want OTG", buf[ConfigurationDescriptorSize+1])
	}

	var small [8]byte
	if n := c.MarshalTo(small[:]); n != 0 {
		t.Errorf("MarshalTo(short buffer) = %d, want 0", n)
	}
}

func TestConfiguration_UnbindKeepsSlots(t *testing.T) {
	c := NewConfiguration("test", 1, nil)
	f := &mockFunction{name: "f", interfaces: 3}
	if err := c.AddFunction(f); err != nil {
		t.Fatalf("AddFunction() error = %v", err)
	}

	c.unbindFunctions()

	if f.unbound != 1 {
		t.Errorf("unbound = %d, want 1", f.unbound)
	}
	if len(c.Functions()) != 0 {
		t.Errorf("len(Functions()) = %d, want 0", len(c.Functions()))
	}
	if c.Interfaces[2] == nil {
		t.Error("Interfaces[2] cleared by unbind, want stale entry retained")
	}
}
