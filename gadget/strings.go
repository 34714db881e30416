package gadget

import (
	"sync"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/pkg"
)

// StringSlot pairs a string with the descriptor ID it was given. The ID
// is invalid until the slot is allocated.
type StringSlot struct {
	Text string

	id    uint8
	valid bool
}

// NewStringSlot creates an unallocated slot.
func NewStringSlot(text string) *StringSlot {
	return &StringSlot{Text: text}
}

// ID returns the slot's descriptor ID. ok is false before allocation.
func (s *StringSlot) ID() (id uint8, ok bool) {
	return s.id, s.valid
}

// StringTable allocates string descriptor IDs for slots, once per slot
// per bind cycle.
type StringTable struct {
	slots []*StringSlot
	mutex sync.Mutex
}

// Allocate reserves an ID for slot on cdev and registers its text.
// A slot allocated earlier in the same cycle is rejected with
// [pkg.ErrBusy].
func (t *StringTable) Allocate(cdev *composite.Device, slot *StringSlot) (uint8, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if slot.valid {
		return 0, pkg.ErrBusy
	}
	id, err := cdev.StringID()
	if err != nil {
		return 0, err
	}
	if err := cdev.SetString(id, slot.Text); err != nil {
		return 0, err
	}
	slot.id = id
	slot.valid = true
	t.slots = append(t.slots, slot)

	pkg.LogDebug(pkg.ComponentGadget, "string allocated",
		"id", id,
		"text", slot.Text)
	return id, nil
}

// Reset invalidates every slot allocated since the last reset and starts
// a new cycle.
func (t *StringTable) Reset() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, s := range t.slots {
		s.id = 0
		s.valid = false
	}
	t.slots = nil
}

// Len returns the number of slots allocated in the current cycle.
func (t *StringTable) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.slots)
}
