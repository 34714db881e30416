package gadget

import (
	"net"
	"testing"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/pkg"
	"github.com/ardnew/softgadget/pkg/platform"
)

// slotFunction reserves interfaces in a configuration.
type slotFunction struct {
	name       string
	interfaces int
	unbinds    *int
}

func (s *slotFunction) Name() string { return s.name }

func (s *slotFunction) Bind(c *composite.Configuration) error {
	for i := 0; i < s.interfaces; i++ {
		if _, err := c.InterfaceID(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *slotFunction) Unbind(*composite.Configuration) {
	if s.unbinds != nil {
		*s.unbinds++
	}
}

// fakeFunction is a function instance with injectable failures.
type fakeFunction struct {
	name       string
	interfaces int
	strings    []string
	bindErr    error
	addErr     error

	bound   bool
	binds   int
	unbinds int
	adds    int
	removed int
}

func (f *fakeFunction) Name() string { return f.name }

func (f *fakeFunction) Bind(cdev *composite.Device) error {
	if f.bound {
		return pkg.ErrBusy
	}
	if f.bindErr != nil {
		return f.bindErr
	}
	for _, s := range f.strings {
		id, err := cdev.StringID()
		if err != nil {
			return err
		}
		if err := cdev.SetString(id, s); err != nil {
			return err
		}
	}
	f.bound = true
	f.binds++
	return nil
}

func (f *fakeFunction) Unbind() {
	f.bound = false
	f.unbinds++
}

func (f *fakeFunction) Add(_ *composite.Device, c *composite.Configuration) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.adds++
	return c.AddFunction(&slotFunction{name: f.name, interfaces: f.interfaces, unbinds: &f.removed})
}

// fakeTransport records link setup and cleanup.
type fakeTransport struct {
	setupErr error
	active   bool
	setups   int
	cleanups int
	addr     net.HardwareAddr
}

func (t *fakeTransport) Setup(_ hal.Gadget, hostAddr net.HardwareAddr) error {
	if t.setupErr != nil {
		return t.setupErr
	}
	if t.active {
		return pkg.ErrBusy
	}
	t.active = true
	t.setups++
	t.addr = hostAddr
	if len(t.addr) == 0 {
		t.addr = net.HardwareAddr{0x02, 0, 0, 0, 0, 1}
	}
	return nil
}

func (t *fakeTransport) Cleanup() {
	if t.active {
		t.cleanups++
	}
	t.active = false
}

func (t *fakeTransport) HostAddr() net.HardwareAddr { return t.addr }

// recordingBinder adds a slotFunction and counts calls and unbinds.
type recordingBinder struct {
	err        error
	interfaces int
	calls      int
	unbinds    int
	addrs      []net.HardwareAddr
}

func (b *recordingBinder) bind(c *composite.Configuration, hostAddr net.HardwareAddr) error {
	b.calls++
	b.addrs = append(b.addrs, hostAddr)
	if b.err != nil {
		return b.err
	}
	return c.AddFunction(&slotFunction{name: "net", interfaces: b.interfaces, unbinds: &b.unbinds})
}

// gatedRegistrar holds Register until released, then delegates to core.
type gatedRegistrar struct {
	core    *composite.Core
	entered chan struct{}
	release chan struct{}
}

func newGatedRegistrar(core *composite.Core) *gatedRegistrar {
	return &gatedRegistrar{
		core:    core,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (r *gatedRegistrar) Register(drv composite.Driver) error {
	close(r.entered)
	<-r.release
	return r.core.Register(drv)
}

func (r *gatedRegistrar) Unregister(drv composite.Driver) error {
	return r.core.Unregister(drv)
}

type fixture struct {
	core      *composite.Core
	coord     *Coordinator
	transport *fakeTransport
	rndis     *recordingBinder
	ecm       *recordingBinder
	subset    *recordingBinder
}

func newFixture(t *testing.T, g hal.Gadget, enabled Enabled, coreOpts []composite.Option, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		core:      composite.NewCore(g, coreOpts...),
		transport: &fakeTransport{},
		rndis:     &recordingBinder{interfaces: 2},
		ecm:       &recordingBinder{interfaces: 2},
		subset:    &recordingBinder{interfaces: 1},
	}
	base := []Option{
		WithTransport(f.transport),
		WithBinders(Binders{RNDIS: f.rndis.bind, ECM: f.ecm.bind, Subset: f.subset.bind}),
		WithIdentity(platform.Identity{SysName: "Linux", Release: "6.1.0"}),
	}
	f.coord = NewCoordinator(f.core, enabled, append(base, opts...)...)
	return f
}

// assertIdle checks that nothing from a bind attempt survived.
func (f *fixture) assertIdle(t *testing.T) {
	t.Helper()
	if f.coord.Registered() {
		t.Error("Registered() = true, want false")
	}
	if f.coord.Instance() != nil {
		t.Error("Instance() != nil, want nil")
	}
	if got := f.coord.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
	if f.transport.active {
		t.Error("transport still active")
	}
	if f.core.Driver() != nil {
		t.Error("core still holds the driver")
	}
	if f.coord.strings.Len() != 0 {
		t.Errorf("strings.Len() = %d, want 0", f.coord.strings.Len())
	}
}
