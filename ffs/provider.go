package ffs

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ardnew/softgadget/pkg"
)

// Provider hands out FunctionFS instances and reports their readiness and
// closure through callbacks. Only one instance exists at a time.
type Provider struct {
	initialized bool
	instance    *Instance

	onReady       func(*Instance) error
	onClosed      func(*Instance)
	onCheckDevice func(name string) error

	mutex sync.Mutex
}

// NewProvider creates an uninitialized provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Init prepares the provider for mounts.
func (p *Provider) Init() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.initialized {
		return pkg.ErrBusy
	}
	p.initialized = true
	pkg.LogDebug(pkg.ComponentFFS, "provider initialized")
	return nil
}

// Cleanup unmounts any remaining instance and shuts the provider down.
func (p *Provider) Cleanup() {
	p.mutex.Lock()
	inst := p.instance
	p.mutex.Unlock()

	if inst != nil {
		_ = p.Unmount(inst)
	}

	p.mutex.Lock()
	p.initialized = false
	p.mutex.Unlock()
	pkg.LogDebug(pkg.ComponentFFS, "provider cleaned up")
}

// SetOnReady sets the callback invoked when an instance is activated.
// A non-nil error returns the instance to the waiting state.
func (p *Provider) SetOnReady(fn func(*Instance) error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.onReady = fn
}

// SetOnClosed sets the callback invoked when a ready instance goes away.
func (p *Provider) SetOnClosed(fn func(*Instance)) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.onClosed = fn
}

// SetOnCheckDevice sets the callback that may veto a mount by device name.
func (p *Provider) SetOnCheckDevice(fn func(name string) error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.onCheckDevice = fn
}

// Mount creates the instance for device devName.
func (p *Provider) Mount(devName string) (*Instance, error) {
	if devName == "" {
		return nil, pkg.ErrNoDevice
	}
	p.mutex.Lock()
	if !p.initialized {
		p.mutex.Unlock()
		return nil, pkg.ErrInvalidState
	}
	if p.instance != nil {
		p.mutex.Unlock()
		return nil, pkg.ErrBusy
	}
	check := p.onCheckDevice
	p.mutex.Unlock()

	if check != nil {
		if err := check(devName); err != nil {
			pkg.LogDebug(pkg.ComponentFFS, "mount rejected",
				"device", devName,
				"error", err)
			return nil, err
		}
	}

	inst := &Instance{
		ID:       uuid.New(),
		name:     devName,
		provider: p,
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.instance != nil {
		return nil, pkg.ErrBusy
	}
	p.instance = inst

	pkg.LogInfo(pkg.ComponentFFS, "instance mounted",
		"device", devName,
		"id", inst.ID.String())
	return inst, nil
}

// Unmount removes inst. If inst was ready, the closed callback fires.
func (p *Provider) Unmount(inst *Instance) error {
	p.mutex.Lock()
	if inst == nil || p.instance != inst {
		p.mutex.Unlock()
		return pkg.ErrInvalidParameter
	}
	p.instance = nil
	closed := p.onClosed
	p.mutex.Unlock()

	wasReady := inst.close()
	if wasReady && closed != nil {
		closed(inst)
	}

	pkg.LogInfo(pkg.ComponentFFS, "instance unmounted",
		"device", inst.name,
		"id", inst.ID.String(),
		"ready", wasReady)
	return nil
}

// Instance returns the mounted instance, if any.
func (p *Provider) Instance() *Instance {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.instance
}

func (p *Provider) readyCallback() func(*Instance) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.onReady
}
