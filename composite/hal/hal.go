package hal

import (
	"strings"
)

// Speed represents the maximum speed a gadget controller supports.
type Speed uint8

// USB speed constants.
const (
	SpeedUnknown Speed = iota // Not reported
	SpeedLow                  // Low Speed (1.5 Mbit/s)
	SpeedFull                 // Full Speed (12 Mbit/s)
	SpeedHigh                 // High Speed (480 Mbit/s)
	SpeedSuper                // Super Speed (5 Gbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low Speed"
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	case SpeedSuper:
		return "Super Speed"
	default:
		return "Unknown"
	}
}

// ParseSpeed converts a sysfs maximum_speed value ("high-speed", ...) to a Speed.
func ParseSpeed(s string) Speed {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "low-speed":
		return SpeedLow
	case "full-speed":
		return SpeedFull
	case "high-speed":
		return SpeedHigh
	case "super-speed", "super-speed-plus":
		return SpeedSuper
	default:
		return SpeedUnknown
	}
}

// MaxPacketSize0 returns the EP0 packet size used at this speed.
func (s Speed) MaxPacketSize0() uint8 {
	switch s {
	case SpeedLow:
		return 8
	case SpeedSuper:
		return 9 // 2^9 = 512, encoded as an exponent for SuperSpeed
	default:
		return 64
	}
}

// Gadget describes the USB device controller (UDC) a composite device is
// bound to. Implementations report static capabilities only; queries must
// not change controller state.
type Gadget interface {
	// Name returns the controller name, e.g. "musb-hdrc" or "pxa27x_udc".
	Name() string

	// IsOTG reports whether the controller supports On-The-Go negotiation.
	IsOTG() bool

	// MaxSpeed returns the fastest speed the controller can negotiate.
	MaxSpeed() Speed
}

// Controller is a Gadget with fixed capabilities. It is returned by
// [Discover] and can be constructed directly for virtual gadgets.
type Controller struct {
	ControllerName string
	OTG            bool
	Speed          Speed
}

// Virtual returns a non-OTG high-speed controller with the given name.
func Virtual(name string) *Controller {
	return &Controller{ControllerName: name, Speed: SpeedHigh}
}

// Name implements Gadget.
func (c *Controller) Name() string { return c.ControllerName }

// IsOTG implements Gadget.
func (c *Controller) IsOTG() bool { return c.OTG }

// MaxSpeed implements Gadget.
func (c *Controller) MaxSpeed() Speed { return c.Speed }
