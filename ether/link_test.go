package ether

import (
	"bytes"
	"errors"
	"net"
	"testing"

	"github.com/ardnew/softgadget/composite/hal"
	"github.com/ardnew/softgadget/pkg"
)

func TestLink_Setup(t *testing.T) {
	link := NewLink("usb0")
	host := net.HardwareAddr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}

	if link.Active() {
		t.Fatal("Active() = true before Setup")
	}
	if err := link.Setup(hal.Virtual("udc"), host); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !link.Active() {
		t.Error("Active() = false after Setup")
	}
	if !bytes.Equal(link.HostAddr(), host) {
		t.Errorf("HostAddr() = %v, want %v", link.HostAddr(), host)
	}
	if len(link.DevAddr()) != 6 {
		t.Errorf("len(DevAddr()) = %d, want 6", len(link.DevAddr()))
	}

	if err := link.Setup(hal.Virtual("udc"), nil); !errors.Is(err, pkg.ErrBusy) {
		t.Errorf("second Setup() error = %v, want %v", err, pkg.ErrBusy)
	}

	link.Cleanup()
	if link.Active() {
		t.Error("Active() = true after Cleanup")
	}
	if link.HostAddr() != nil {
		t.Errorf("HostAddr() = %v after Cleanup, want nil", link.HostAddr())
	}
	link.Cleanup()
}

func TestLink_SetupRandomAddr(t *testing.T) {
	link := NewLink("usb0")
	if err := link.Setup(hal.Virtual("udc"), nil); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer link.Cleanup()

	addr := link.HostAddr()
	if len(addr) != 6 {
		t.Fatalf("len(HostAddr()) = %d, want 6", len(addr))
	}
	if addr[0]&0x01 != 0 {
		t.Errorf("HostAddr() %v is multicast", addr)
	}
	if addr[0]&0x02 == 0 {
		t.Errorf("HostAddr() %v is not locally administered", addr)
	}
}

func TestLink_SetupErrors(t *testing.T) {
	tests := []struct {
		name   string
		gadget hal.Gadget
		addr   net.HardwareAddr
		want   error
	}{
		{"no gadget", nil, nil, pkg.ErrNoGadget},
		{"short address", hal.Virtual("udc"), net.HardwareAddr{1, 2, 3}, pkg.ErrInvalidParameter},
		{"eui64 address", hal.Virtual("udc"), make(net.HardwareAddr, 8), pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := NewLink("usb0")
			if err := link.Setup(tt.gadget, tt.addr); !errors.Is(err, tt.want) {
				t.Errorf("Setup() error = %v, want %v", err, tt.want)
			}
			if link.Active() {
				t.Error("Active() = true after failed Setup")
			}
		})
	}
}

func TestCanSupportECM(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"musb-hdrc", true},
		{"dummy_udc.0", true},
		{"pxa25x_udc", false},
		{"pxa27x_udc", false},
		{"PXA27x_udc", false},
		{"pxa3xx-u2d", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSupportECM(hal.Virtual(tt.name)); got != tt.want {
				t.Errorf("CanSupportECM(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if CanSupportECM(nil) {
		t.Error("CanSupportECM(nil) = true, want false")
	}
}
