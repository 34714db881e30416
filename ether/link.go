package ether

import (
	"crypto/rand"
	"net"
	"strings"
	"sync"

	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/pkg"
)

// Link is the network link shared by every network function of a gadget.
// It must be set up before any binder runs and cleaned up after the last
// configuration using it is gone.
type Link struct {
	name string

	active   bool
	gadget   hal.Gadget
	hostAddr net.HardwareAddr
	devAddr  net.HardwareAddr

	mutex sync.Mutex
}

// NewLink creates an inactive link with the given interface name.
func NewLink(name string) *Link {
	return &Link{name: name}
}

// Name returns the interface name.
func (l *Link) Name() string {
	return l.name
}

// Setup activates the link on g. If hostAddr is empty a random locally
// administered address is used. The device-side address is always random.
func (l *Link) Setup(g hal.Gadget, hostAddr net.HardwareAddr) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.active {
		return pkg.ErrBusy
	}
	if g == nil {
		return pkg.ErrNoGadget
	}

	host := hostAddr
	if len(host) == 0 {
		var err error
		if host, err = randomAddr(); err != nil {
			return err
		}
	} else if len(host) != 6 {
		return pkg.ErrInvalidParameter
	}
	dev, err := randomAddr()
	if err != nil {
		return err
	}

	l.gadget = g
	l.hostAddr = append(net.HardwareAddr(nil), host...)
	l.devAddr = dev
	l.active = true

	pkg.LogDebug(pkg.ComponentEther, "link set up",
		"link", l.name,
		"gadget", g.Name(),
		"host", l.hostAddr.String(),
		"dev", l.devAddr.String())
	return nil
}

// Cleanup deactivates the link. It is safe to call on an inactive link.
func (l *Link) Cleanup() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.active {
		return
	}
	l.active = false
	l.gadget = nil
	l.hostAddr = nil
	l.devAddr = nil

	pkg.LogDebug(pkg.ComponentEther, "link cleaned up", "link", l.name)
}

// Active reports whether the link is set up.
func (l *Link) Active() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.active
}

// HostAddr returns the host-side MAC address, or nil when inactive.
func (l *Link) HostAddr() net.HardwareAddr {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.hostAddr
}

// DevAddr returns the device-side MAC address, or nil when inactive.
func (l *Link) DevAddr() net.HardwareAddr {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.devAddr
}

// CanSupportECM reports whether g can run CDC ECM. PXA 25x and 27x
// controllers lack the alternate settings ECM needs.
func CanSupportECM(g hal.Gadget) bool {
	if g == nil {
		return false
	}
	name := strings.ToLower(g.Name())
	return !strings.HasPrefix(name, "pxa25x") && !strings.HasPrefix(name, "pxa27x")
}

// randomAddr returns a random unicast, locally administered MAC address.
func randomAddr() (net.HardwareAddr, error) {
	addr := make(net.HardwareAddr, 6)
	if _, err := rand.Read(addr); err != nil {
		return nil, err
	}
	addr[0] &^= 0x01 // unicast
	addr[0] |= 0x02  // locally administered
	return addr, nil
}
