package ffs

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/pkg"
)

// State is the lifecycle state of an instance.
type State uint8

// Instance states.
const (
	StateWaiting State = iota // Mounted, descriptors not yet supplied
	StateReady                // Descriptors supplied and accepted
	StateClosed               // Unmounted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Instance is one FunctionFS mount. It implements the function-instance
// contract the gadget coordinator binds into configurations.
type Instance struct {
	// ID distinguishes successive mounts of the same device name.
	ID uuid.UUID

	name     string
	provider *Provider

	state State
	desc  Descriptors

	bound     bool
	stringIDs []uint8
	functions []*function

	mutex sync.Mutex
}

// Name returns the device name the instance was mounted with.
func (i *Instance) Name() string {
	return i.name
}

// State returns the instance state.
func (i *Instance) State() State {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.state
}

// Descriptors returns the descriptors supplied on activation.
func (i *Instance) Descriptors() Descriptors {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.desc
}

// Activate supplies the function's descriptors and reports the instance
// ready. If the ready callback fails, the instance stays waiting and the
// callback's error is returned.
func (i *Instance) Activate(desc Descriptors) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	i.mutex.Lock()
	if i.state != StateWaiting {
		i.mutex.Unlock()
		return pkg.ErrInvalidState
	}
	i.desc = desc
	i.state = StateReady
	i.mutex.Unlock()

	pkg.LogDebug(pkg.ComponentFFS, "instance ready",
		"device", i.name,
		"interfaces", len(desc.Interfaces),
		"strings", len(desc.Strings))

	if ready := i.provider.readyCallback(); ready != nil {
		if err := ready(i); err != nil {
			i.mutex.Lock()
			if i.state == StateReady {
				i.state = StateWaiting
				i.desc = Descriptors{}
			}
			i.mutex.Unlock()
			pkg.LogWarn(pkg.ComponentFFS, "ready callback failed",
				"device", i.name,
				"error", err)
			return err
		}
	}
	return nil
}

// close marks the instance closed and reports whether it was ready.
func (i *Instance) close() bool {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	wasReady := i.state == StateReady
	i.state = StateClosed
	return wasReady
}

// Bind reserves string IDs on cdev for the instance's strings.
func (i *Instance) Bind(cdev *composite.Device) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.state != StateReady {
		return pkg.ErrInvalidState
	}
	if i.bound {
		return pkg.ErrBusy
	}

	ids := make([]uint8, 0, len(i.desc.Strings))
	for _, s := range i.desc.Strings {
		id, err := cdev.StringID()
		if err != nil {
			return err
		}
		if err := cdev.SetString(id, s); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	i.stringIDs = ids
	i.bound = true

	pkg.LogDebug(pkg.ComponentFFS, "instance bound",
		"device", i.name,
		"strings", len(ids))
	return nil
}

// Unbind releases what Bind acquired.
func (i *Instance) Unbind() {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if !i.bound {
		return
	}
	i.bound = false
	i.stringIDs = nil
	i.functions = nil
	pkg.LogDebug(pkg.ComponentFFS, "instance unbound", "device", i.name)
}

// Bound reports whether the instance is bound to a device.
func (i *Instance) Bound() bool {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return i.bound
}

// Add attaches the instance to configuration c of cdev.
func (i *Instance) Add(cdev *composite.Device, c *composite.Configuration) error {
	i.mutex.Lock()
	if !i.bound {
		i.mutex.Unlock()
		return pkg.ErrInvalidState
	}
	fn := &function{inst: i, desc: i.desc, stringIDs: i.stringIDs}
	i.mutex.Unlock()

	if err := c.AddFunction(fn); err != nil {
		return err
	}

	i.mutex.Lock()
	i.functions = append(i.functions, fn)
	i.mutex.Unlock()
	return nil
}

// Functions returns how many configurations the instance is attached to.
func (i *Instance) Functions() int {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	return len(i.functions)
}
