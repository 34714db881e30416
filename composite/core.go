package composite

import (
	"sync"

	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/pkg"
)

// Core binds at most one composite driver to a gadget controller.
type Core struct {
	gadget      hal.Gadget
	maxStringID uint8

	driver Driver
	device *Device

	mutex sync.Mutex
}

// Option configures a Core.
type Option func(*Core)

// WithStringLimit caps the string descriptor IDs handed out to devices
// created by the core. Values above [MaxStringID] are clamped.
func WithStringLimit(n uint8) Option {
	return func(c *Core) {
		c.maxStringID = n
	}
}

// NewCore creates a core for gadget g.
func NewCore(g hal.Gadget, opts ...Option) *Core {
	c := &Core{
		gadget:      g,
		maxStringID: MaxStringID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gadget returns the controller the core drives.
func (c *Core) Gadget() hal.Gadget {
	return c.gadget
}

// Register binds drv to the gadget. The driver's Bind runs synchronously
// without the core lock held. If Bind fails, configurations left on the
// device are removed, drv.Unbind is called, and the bind error is returned.
func (c *Core) Register(drv Driver) error {
	if drv == nil {
		return pkg.ErrInvalidParameter
	}

	c.mutex.Lock()
	if c.gadget == nil {
		c.mutex.Unlock()
		return pkg.ErrNoGadget
	}
	if c.driver != nil {
		c.mutex.Unlock()
		return pkg.ErrBusy
	}
	dev := NewDevice(c.gadget, c.maxStringID)
	c.driver = drv
	c.device = dev
	c.mutex.Unlock()

	pkg.LogDebug(pkg.ComponentComposite, "binding driver",
		"driver", drv.Name(),
		"gadget", c.gadget.Name())

	if err := drv.Bind(dev); err != nil {
		pkg.LogWarn(pkg.ComponentComposite, "driver bind failed",
			"driver", drv.Name(),
			"error", err)
		c.teardown(drv, dev)
		c.mutex.Lock()
		c.driver = nil
		c.device = nil
		c.mutex.Unlock()
		return err
	}

	desc := *drv.Descriptor()
	dev.mutex.Lock()
	desc.NumConfigurations = uint8(len(dev.configs))
	desc.MaxPacketSize0 = c.gadget.MaxSpeed().MaxPacketSize0()
	dev.Descriptor = desc
	dev.mutex.Unlock()

	pkg.LogInfo(pkg.ComponentComposite, "driver bound",
		"driver", drv.Name(),
		"vendor", desc.VendorID,
		"product", desc.ProductID,
		"configs", desc.NumConfigurations)
	return nil
}

// Unregister unbinds drv. It fails with [pkg.ErrNotRegistered] if drv is
// not the registered driver.
func (c *Core) Unregister(drv Driver) error {
	c.mutex.Lock()
	if drv == nil || c.driver != drv {
		c.mutex.Unlock()
		return pkg.ErrNotRegistered
	}
	dev := c.device
	c.driver = nil
	c.device = nil
	c.mutex.Unlock()

	err := c.teardown(drv, dev)
	pkg.LogInfo(pkg.ComponentComposite, "driver unbound",
		"driver", drv.Name())
	return err
}

// Driver returns the registered driver, if any.
func (c *Core) Driver() Driver {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.driver
}

// Device returns the device of the registered driver, if any.
func (c *Core) Device() *Device {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.device
}

// teardown removes every configuration and then unbinds the driver.
func (c *Core) teardown(drv Driver, dev *Device) error {
	dev.removeAll()
	if err := drv.Unbind(dev); err != nil {
		pkg.LogWarn(pkg.ComponentComposite, "driver unbind failed",
			"driver", drv.Name(),
			"error", err)
		return err
	}
	return nil
}
