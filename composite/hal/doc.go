// Package hal defines the gadget controller abstraction used by the
// composite framework.
//
// A [Gadget] reports the identity and static capabilities of the USB
// device controller (UDC) a composite device is bound to: its name, OTG
// support, and maximum speed. The composite layer never drives the
// controller directly; it only queries it while building descriptors.
//
// On Linux, controllers are listed under /sys/class/udc. [Discover] reads
// that directory, and [Virtual] builds a controller for testing or for
// software-only gadgets:
//
//	udc, err := hal.Find(hal.SysfsUDCPath, "")
//	if err != nil {
//	    udc = hal.Virtual("dummy_udc.0")
//	}
package hal
