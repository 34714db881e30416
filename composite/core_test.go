package composite

import (
	"errors"
	"testing"

	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/pkg"
)

func TestCore_Register(t *testing.T) {
	core := NewCore(&hal.Controller{ControllerName: "udc", Speed: hal.SpeedFull})
	drv := &mockDriver{desc: DeviceDescriptor{VendorID: 0x0525, ProductID: 0xa4ac}}
	drv.bindFn = func(dev *Device) error {
		// Bind may still adjust the template.
		drv.desc.ProductIndex = 2
		return dev.AddConfig(NewConfiguration("one", 1, nil))
	}

	if err := core.Register(drv); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if core.Driver() != drv {
		t.Error("Driver() did not return registered driver")
	}

	dev := core.Device()
	if dev == nil {
		t.Fatal("Device() = nil")
	}
	if dev.Descriptor.VendorID != 0x0525 {
		t.Errorf("VendorID = 0x%04X, want 0x0525", dev.Descriptor.VendorID)
	}
	if dev.Descriptor.ProductIndex != 2 {
		t.Errorf("ProductIndex = %d, want 2", dev.Descriptor.ProductIndex)
	}
	if dev.Descriptor.NumConfigurations != 1 {
		t.Errorf("NumConfigurations = %d, want 1", dev.Descriptor.NumConfigurations)
	}
	if dev.Descriptor.MaxPacketSize0 != 64 {
		t.Errorf("MaxPacketSize0 = %d, want 64", dev.Descriptor.MaxPacketSize0)
	}

	if err := core.Register(&mockDriver{}); !errors.Is(err, pkg.ErrBusy) {
		t.Errorf("second Register() error = %v, want %v", err, pkg.ErrBusy)
	}
}

func TestCore_RegisterErrors(t *testing.T) {
	if err := NewCore(nil).Register(&mockDriver{}); !errors.Is(err, pkg.ErrNoGadget) {
		t.Errorf("Register() without gadget error = %v, want %v", err, pkg.ErrNoGadget)
	}
	if err := NewCore(hal.Virtual("udc")).Register(nil); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("Register(nil) error = %v, want %v", err, pkg.ErrInvalidParameter)
	}
}

func TestCore_RegisterBindFailure(t *testing.T) {
	core := NewCore(hal.Virtual("udc"))
	bindErr := errors.New("bind failed")
	f := &mockFunction{name: "f", interfaces: 1}
	drv := &mockDriver{}
	drv.bindFn = func(dev *Device) error {
		c := NewConfiguration("left over", 1, func(c *Configuration) error {
			return c.AddFunction(f)
		})
		if err := dev.AddConfig(c); err != nil {
			return err
		}
		return bindErr
	}

	if err := core.Register(drv); !errors.Is(err, bindErr) {
		t.Fatalf("Register() error = %v, want %v", err, bindErr)
	}
	if drv.unbinds != 1 {
		t.Errorf("unbinds = %d, want 1 (error-recovery path)", drv.unbinds)
	}
	if f.unbound != 1 {
		t.Errorf("left-over function unbound = %d, want 1", f.unbound)
	}
	if core.Driver() != nil || core.Device() != nil {
		t.Error("core still holds driver after failed bind")
	}

	// The core is usable again.
	drv.bindFn = nil
	if err := core.Register(drv); err != nil {
		t.Errorf("Register() after failure error = %v", err)
	}
}

func TestCore_Unregister(t *testing.T) {
	core := NewCore(hal.Virtual("udc"))
	f := &mockFunction{name: "f", interfaces: 1}
	drv := &mockDriver{}
	drv.bindFn = func(dev *Device) error {
		return dev.AddConfig(NewConfiguration("one", 1, func(c *Configuration) error {
			return c.AddFunction(f)
		}))
	}

	if err := core.Unregister(drv); !errors.Is(err, pkg.ErrNotRegistered) {
		t.Errorf("Unregister() before Register error = %v, want %v", err, pkg.ErrNotRegistered)
	}
	if err := core.Register(drv); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := core.Unregister(&mockDriver{}); !errors.Is(err, pkg.ErrNotRegistered) {
		t.Errorf("Unregister(other) error = %v, want %v", err, pkg.ErrNotRegistered)
	}
	if err := core.Unregister(drv); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}

	if f.unbound != 1 {
		t.Errorf("function unbound = %d, want 1", f.unbound)
	}
	want := []string{"bind", "unbind"}
	if len(drv.events) != len(want) || drv.events[0] != want[0] || drv.events[1] != want[1] {
		t.Errorf("events = %v, want %v", drv.events, want)
	}
	if core.Driver() != nil {
		t.Error("Driver() still set after Unregister")
	}
}

func TestWithStringLimit(t *testing.T) {
	core := NewCore(hal.Virtual("udc"), WithStringLimit(2))
	drv := &mockDriver{}
	var err error
	drv.bindFn = func(dev *Device) error {
		for i := 0; i < 3; i++ {
			if _, err = dev.StringID(); err != nil {
				return err
			}
		}
		return nil
	}

	if got := core.Register(drv); !errors.Is(got, pkg.ErrOutOfStringSlots) {
		t.Errorf("Register() error = %v, want %v", got, pkg.ErrOutOfStringSlots)
	}
}
