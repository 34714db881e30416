package composite

import (
	"sync"

	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/pkg"
)

// Device is a composite device bound to a gadget controller. It owns the
// configurations added during a driver bind and the string descriptor ID
// space they draw from.
type Device struct {
	// Gadget is the controller the device is bound to.
	Gadget hal.Gadget

	// Descriptor is published after the driver's Bind succeeds.
	Descriptor DeviceDescriptor

	configs      []*Configuration
	activeConfig *Configuration

	strings      map[uint8]string
	nextStringID uint8
	maxStringID  uint8

	mutex sync.RWMutex
}

// NewDevice creates an empty composite device on g. String IDs are handed
// out from 1 through maxStringID.
func NewDevice(g hal.Gadget, maxStringID uint8) *Device {
	if maxStringID > MaxStringID {
		maxStringID = MaxStringID
	}
	return &Device{
		Gadget:      g,
		strings:     make(map[uint8]string),
		maxStringID: maxStringID,
	}
}

// StringID reserves the next free string descriptor ID.
func (d *Device) StringID() (uint8, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.nextStringID >= d.maxStringID {
		return 0, pkg.ErrOutOfStringSlots
	}
	d.nextStringID++
	return d.nextStringID, nil
}

// StringIDs reserves n consecutive string IDs and returns the first.
func (d *Device) StringIDs(n int) (uint8, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if n <= 0 {
		return 0, pkg.ErrInvalidParameter
	}
	if int(d.nextStringID)+n > int(d.maxStringID) {
		return 0, pkg.ErrOutOfStringSlots
	}
	first := d.nextStringID + 1
	d.nextStringID += uint8(n)
	return first, nil
}

// SetString stores the text for a reserved string ID.
func (d *Device) SetString(id uint8, text string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if id == 0 || id > d.nextStringID {
		return pkg.ErrInvalidParameter
	}
	d.strings[id] = text
	return nil
}

// String returns the text stored for id.
func (d *Device) String(id uint8) (string, bool) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	s, ok := d.strings[id]
	return s, ok
}

// StringDescriptorTo writes string descriptor id to buf. ID 0 is the
// language table. Returns 0 for unknown IDs or a short buffer.
func (d *Device) StringDescriptorTo(buf []byte, id uint8) int {
	if id == 0 {
		return LanguageDescriptorTo(buf, LangIDUSEnglish)
	}
	s, ok := d.String(id)
	if !ok {
		return 0
	}
	return StringDescriptorTo(buf, s)
}

// AddConfig adds c to the device and runs its BindFunc. If binding fails,
// any functions it added are unbound and c is not retained.
func (d *Device) AddConfig(c *Configuration) error {
	if c.Value == 0 {
		return pkg.ErrInvalidParameter
	}

	d.mutex.Lock()
	if len(d.configs) >= MaxConfigurations {
		d.mutex.Unlock()
		return pkg.ErrNoMemory
	}
	for _, existing := range d.configs {
		if existing == c || existing.Value == c.Value {
			d.mutex.Unlock()
			return pkg.ErrBusy
		}
	}
	c.device = d
	c.NextInterfaceID = 0
	c.functions = nil
	d.configs = append(d.configs, c)
	d.Descriptor.NumConfigurations = uint8(len(d.configs))
	d.mutex.Unlock()

	if c.BindFunc != nil {
		if err := c.BindFunc(c); err != nil {
			pkg.LogDebug(pkg.ComponentComposite, "configuration bind failed",
				"config", c.Value,
				"label", c.Label,
				"error", err)
			d.RemoveConfig(c)
			return err
		}
	}

	pkg.LogDebug(pkg.ComponentComposite, "configuration added",
		"config", c.Value,
		"label", c.Label,
		"interfaces", len(c.ActiveInterfaces()))
	return nil
}

// RemoveConfig unbinds the functions of c and removes it from the device.
// It does nothing if c was not added.
func (d *Device) RemoveConfig(c *Configuration) {
	d.mutex.Lock()
	idx := -1
	for i, existing := range d.configs {
		if existing == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.mutex.Unlock()
		return
	}
	d.configs = append(d.configs[:idx], d.configs[idx+1:]...)
	d.Descriptor.NumConfigurations = uint8(len(d.configs))
	if d.activeConfig == c {
		d.activeConfig = nil
	}
	d.mutex.Unlock()

	c.unbindFunctions()
	c.device = nil

	pkg.LogDebug(pkg.ComponentComposite, "configuration removed",
		"config", c.Value,
		"label", c.Label)
}

// Configs returns a copy of the configuration list.
func (d *Device) Configs() []*Configuration {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return append([]*Configuration(nil), d.configs...)
}

// SetConfiguration selects the configuration with the given value, as the
// host does with SET_CONFIGURATION. Zero deselects.
func (d *Device) SetConfiguration(value uint8) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if value == 0 {
		d.activeConfig = nil
		return nil
	}
	for _, c := range d.configs {
		if c.Value == value {
			d.activeConfig = c
			pkg.LogDebug(pkg.ComponentComposite, "configuration selected",
				"config", value,
				"interfaces", len(c.ActiveInterfaces()))
			return nil
		}
	}
	return pkg.ErrInvalidParameter
}

// ActiveConfiguration returns the selected configuration, if any.
func (d *Device) ActiveConfiguration() *Configuration {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.activeConfig
}

// removeAll removes every configuration, most recent first.
func (d *Device) removeAll() {
	configs := d.Configs()
	for i := len(configs) - 1; i >= 0; i-- {
		d.RemoveConfig(configs[i])
	}
}
