package gadget

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/ether"
	"github.com/ardnew/softgadget/ffs"
	"github.com/ardnew/softgadget/pkg"
	"github.com/ardnew/softgadget/pkg/platform"
	"github.com/ardnew/softgadget/pkg/usbid"
)

// DriverName is the composite driver name the coordinator registers as.
const DriverName = "g_ffs"

// ProductName is the product string of the gadget.
const ProductName = "USB Function Filesystem"

// maxManufacturerLen bounds the synthesized manufacturer string.
const maxManufacturerLen = 49

// Function is a user-space function instance as the coordinator sees it.
type Function interface {
	// Name identifies the instance in logs.
	Name() string

	// Bind reserves the instance's own strings on cdev.
	Bind(cdev *composite.Device) error

	// Unbind releases what Bind acquired.
	Unbind()

	// Add attaches the instance to configuration c.
	Add(cdev *composite.Device, c *composite.Configuration) error
}

// Transport is the link shared by the network configurations.
type Transport interface {
	Setup(g hal.Gadget, hostAddr net.HardwareAddr) error
	Cleanup()
	HostAddr() net.HardwareAddr
}

// Registrar registers composite drivers with a USB core.
type Registrar interface {
	Register(drv composite.Driver) error
	Unregister(drv composite.Driver) error
}

var (
	_ Function         = (*ffs.Instance)(nil)
	_ Transport        = (*ether.Link)(nil)
	_ Registrar        = (*composite.Core)(nil)
	_ composite.Driver = (*Coordinator)(nil)
)

// State is the lifecycle state of a Coordinator.
type State uint8

// Coordinator states.
const (
	StateIdle   State = iota // No instance
	StateReady               // Instance held, driver registered
	StateBound               // Device composed and live
	StateClosed              // Torn down for good
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// functionRef boxes a Function for atomic.Pointer.
type functionRef struct {
	fn Function
}

// Coordinator ties function readiness to composite driver registration
// and composes the device when the core binds it.
//
// OnReady and OnClosed are driven by the function provider. Bind and
// Unbind are driven by the composite core. Either side may call out of
// order or more than once.
type Coordinator struct {
	core      Registrar
	set       *ConfigurationSet
	binders   Binders
	transport Transport
	identity  platform.Identity
	ids       *usbid.Database

	params     Params
	descriptor composite.DeviceDescriptor

	strings      StringTable
	manufacturer *StringSlot
	product      *StringSlot
	builder      ConfigBuilder

	registered atomic.Bool
	instance   atomic.Pointer[functionRef]
	bound      atomic.Bool
	closed     atomic.Bool

	// lifecycle serializes registration transitions. Bind and Unbind run
	// under it when the core calls back from Register or Unregister.
	lifecycle sync.Mutex
	mutex     sync.Mutex
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTransport sets the link shared by network configurations.
func WithTransport(t Transport) Option {
	return func(c *Coordinator) {
		c.transport = t
	}
}

// WithBinders replaces the network binders.
func WithBinders(b Binders) Option {
	return func(c *Coordinator) {
		c.binders = b
	}
}

// WithParams sets the initial descriptor parameters.
func WithParams(p Params) Option {
	return func(c *Coordinator) {
		c.params = p
	}
}

// WithUSBIDs names vendor and product IDs in logs using db.
func WithUSBIDs(db *usbid.Database) Option {
	return func(c *Coordinator) {
		c.ids = db
	}
}

// WithIdentity overrides the platform identity used in the manufacturer
// string.
func WithIdentity(id platform.Identity) Option {
	return func(c *Coordinator) {
		c.identity = id
	}
}

// NewCoordinator creates a coordinator that registers with core and
// offers the configurations in enabled.
func NewCoordinator(core Registrar, enabled Enabled, opts ...Option) *Coordinator {
	c := &Coordinator{
		core:         core,
		set:          NewConfigurationSet(enabled),
		binders:      DefaultBinders(),
		params:       DefaultParams(),
		manufacturer: NewStringSlot(""),
		product:      NewStringSlot(ProductName),
		descriptor: composite.DeviceDescriptor{
			USBVersion:  0x0200,
			DeviceClass: composite.ClassPerInterface,
		},
	}
	c.identity = platform.Identify()
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = ether.NewLink("usb0")
	}
	c.builder.Instance = c.Instance
	return c
}

// Name implements composite.Driver.
func (c *Coordinator) Name() string {
	return DriverName
}

// Descriptor implements composite.Driver.
func (c *Coordinator) Descriptor() *composite.DeviceDescriptor {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	d := c.descriptor
	return &d
}

// Configurations returns the configuration set.
func (c *Coordinator) Configurations() *ConfigurationSet {
	return c.set
}

// Params returns the descriptor parameters.
func (c *Coordinator) Params() Params {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.params
}

// SetParams replaces the descriptor parameters. They are frozen while a
// function instance is registered.
func (c *Coordinator) SetParams(p Params) error {
	if c.closed.Load() {
		return pkg.ErrInvalidState
	}
	if c.registered.Load() {
		return pkg.ErrFrozen
	}
	c.mutex.Lock()
	c.params = p
	c.mutex.Unlock()
	return nil
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	switch {
	case c.closed.Load():
		return StateClosed
	case c.bound.Load():
		return StateBound
	case c.registered.Load() && c.instance.Load() != nil:
		return StateReady
	default:
		return StateIdle
	}
}

// Registered reports whether the driver is registered with the core.
func (c *Coordinator) Registered() bool {
	return c.registered.Load()
}

// Instance returns the held function instance, or nil.
func (c *Coordinator) Instance() Function {
	if ref := c.instance.Load(); ref != nil {
		return ref.fn
	}
	return nil
}

// CheckDevice accepts every device name.
func (c *Coordinator) CheckDevice(name string) error {
	pkg.LogDebug(pkg.ComponentGadget, "device check", "device", name)
	return nil
}

// Listen installs the coordinator's callbacks on p.
func (c *Coordinator) Listen(p *ffs.Provider) {
	p.SetOnReady(func(inst *ffs.Instance) error {
		return c.OnReady(inst)
	})
	p.SetOnClosed(func(inst *ffs.Instance) {
		c.OnClosed(inst)
	})
	p.SetOnCheckDevice(c.CheckDevice)
}

// OnReady registers the driver for fn. A second call while an instance is
// registered fails with [pkg.ErrAlreadyRegistered] and changes nothing.
// If registration fails the error wraps [pkg.ErrRegistrationFailed] and
// the cause.
func (c *Coordinator) OnReady(fn Function) error {
	if fn == nil {
		return pkg.ErrInvalidParameter
	}
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.closed.Load() {
		return pkg.ErrInvalidState
	}
	if !c.registered.CompareAndSwap(false, true) {
		current := ""
		if held := c.Instance(); held != nil {
			current = held.Name()
		}
		pkg.LogError(pkg.ComponentGadget, "function already registered",
			"function", fn.Name(),
			"current", current)
		return pkg.ErrAlreadyRegistered
	}
	c.instance.Store(&functionRef{fn: fn})

	pkg.LogInfo(pkg.ComponentGadget, "function ready", "function", fn.Name())

	if err := c.core.Register(c); err != nil {
		c.instance.Store(nil)
		c.bound.Store(false)
		c.registered.Store(false)
		pkg.LogWarn(pkg.ComponentGadget, "registration failed",
			"function", fn.Name(),
			"error", err)
		return fmt.Errorf("%w: %w", pkg.ErrRegistrationFailed, err)
	}
	return nil
}

// OnClosed unregisters the driver if it is registered. Otherwise it does
// nothing.
func (c *Coordinator) OnClosed(fn Function) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.registered.CompareAndSwap(true, false) {
		pkg.LogDebug(pkg.ComponentGadget, "close ignored, not registered")
		return
	}
	if fn != nil {
		pkg.LogInfo(pkg.ComponentGadget, "function closed", "function", fn.Name())
	}
	c.unregister()
}

// Unregister unregisters the driver. It fails with [pkg.ErrNotRegistered]
// if the driver is not registered.
func (c *Coordinator) Unregister() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if !c.registered.CompareAndSwap(true, false) {
		return pkg.ErrNotRegistered
	}
	return c.unregister()
}

// Close unregisters the driver if needed and rejects further instances.
// It is idempotent.
func (c *Coordinator) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.closed.Swap(true) {
		return nil
	}
	if c.registered.CompareAndSwap(true, false) {
		return c.unregister()
	}
	return nil
}

// unregister drives the core's unbind. The caller has already cleared the
// registration flag.
func (c *Coordinator) unregister() error {
	err := c.core.Unregister(c)
	if err != nil {
		pkg.LogWarn(pkg.ComponentGadget, "unregister failed", "error", err)
	}
	// The core normally unbinds; make sure nothing outlives registration.
	if ref := c.instance.Swap(nil); ref != nil {
		c.release(ref.fn)
	}
	return err
}

// Bind implements composite.Driver. It fails with [pkg.ErrBusy] and
// changes nothing while a previous Bind is still live. On failure
// everything acquired so far is released, the instance reference is
// dropped, and the error is returned unchanged.
func (c *Coordinator) Bind(cdev *composite.Device) (err error) {
	if c.bound.Load() {
		pkg.LogError(pkg.ComponentGadget, "bind while already bound")
		return pkg.ErrBusy
	}
	ref := c.instance.Load()
	if ref == nil {
		pkg.LogError(pkg.ComponentGadget, "bind without function instance")
		return pkg.ErrNoInstance
	}
	fn := ref.fn

	c.mutex.Lock()
	params := c.params
	c.mutex.Unlock()

	var (
		linkUp  bool
		fnBound bool
		added   []*composite.Configuration
	)
	defer func() {
		if err == nil {
			return
		}
		for i := len(added) - 1; i >= 0; i-- {
			cdev.RemoveConfig(added[i])
		}
		if fnBound {
			fn.Unbind()
		}
		if linkUp {
			c.transport.Cleanup()
		}
		c.strings.Reset()
		c.instance.CompareAndSwap(ref, nil)
		pkg.LogWarn(pkg.ComponentGadget, "bind failed",
			"function", fn.Name(),
			"error", err)
	}()

	// Network configurations share one link.
	if c.set.HasNetwork() {
		if err = c.transport.Setup(cdev.Gadget, params.HostAddr); err != nil {
			return err
		}
		linkUp = true
	}

	if params.VendorID == 0 {
		return fmt.Errorf("%w: vendor ID not set", pkg.ErrInvalidParameter)
	}
	c.mutex.Lock()
	params.apply(&c.descriptor)
	c.mutex.Unlock()

	gadgetName := ""
	if cdev.Gadget != nil {
		gadgetName = cdev.Gadget.Name()
	}
	c.strings.Reset()
	c.manufacturer.Text = manufacturer(c.identity, gadgetName)
	mfr, err := c.strings.Allocate(cdev, c.manufacturer)
	if err != nil {
		return err
	}
	prod, err := c.strings.Allocate(cdev, c.product)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	c.descriptor.ManufacturerIndex = mfr
	c.descriptor.ProductIndex = prod
	c.mutex.Unlock()

	if err = fn.Bind(cdev); err != nil {
		return err
	}
	fnBound = true

	var hostAddr net.HardwareAddr
	if linkUp {
		hostAddr = c.transport.HostAddr()
	}
	for _, e := range c.set.Entries {
		id, err := c.strings.Allocate(cdev, e.Label)
		if err != nil {
			return err
		}
		e.Config.StringIndex = id

		binder := c.binders.For(e.Kind, cdev.Gadget)
		if binder == nil && e.Kind.IsNetwork() {
			return fmt.Errorf("%w: no %s binder", pkg.ErrNotSupported, e.Kind)
		}
		e.Config.BindFunc = func(cfg *composite.Configuration) error {
			return c.builder.Attach(cdev, cfg, binder, hostAddr)
		}
		if err := cdev.AddConfig(e.Config); err != nil {
			return err
		}
		added = append(added, e.Config)
	}

	c.bound.Store(true)

	device := fmt.Sprintf("%04x:%04x", params.VendorID, params.ProductID)
	if c.ids != nil {
		device = c.ids.Describe(params.VendorID, params.ProductID)
	}
	pkg.LogInfo(pkg.ComponentGadget, "gadget bound",
		"function", fn.Name(),
		"device", device,
		"manufacturer", c.manufacturer.Text,
		"configs", c.set.Kinds())
	return nil
}

// Unbind implements composite.Driver. It does nothing when no instance is
// held, which is the case after a failed Bind.
func (c *Coordinator) Unbind(cdev *composite.Device) error {
	ref := c.instance.Swap(nil)
	if ref == nil {
		return nil
	}
	c.release(ref.fn)
	pkg.LogInfo(pkg.ComponentGadget, "gadget unbound", "function", ref.fn.Name())
	return nil
}

// release undoes a successful Bind.
func (c *Coordinator) release(fn Function) {
	if c.set.HasNetwork() {
		c.transport.Cleanup()
	}
	if c.bound.Swap(false) {
		fn.Unbind()
	}
	c.strings.Reset()
}

// manufacturer formats "<sysname> <release> with <gadget>".
func manufacturer(id platform.Identity, gadget string) string {
	s := fmt.Sprintf("%s %s with %s", id.SysName, id.Release, gadget)
	if len(s) <= maxManufacturerLen {
		return s
	}
	n := maxManufacturerLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
