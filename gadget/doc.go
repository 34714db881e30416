// Package gadget binds a FunctionFS function instance into a composite
// USB device.
//
// A [Coordinator] is both the function provider's listener and the
// composite core's driver. When an instance becomes ready it registers
// itself with the core; the core then calls Bind, which sets up the shared
// network link, fills in the device descriptor and strings, and adds each
// enabled configuration in RNDIS, ECM, Generic order. Every configuration
// wraps the function instance, plus a network function for RNDIS and ECM.
//
//	core := composite.NewCore(udc)
//	coord := gadget.NewCoordinator(core, gadget.Enabled{gadget.KindECM, gadget.KindGeneric})
//	coord.Listen(provider)
//	defer coord.Close()
//
// At most one instance is registered at a time. A second ready notification
// is rejected with [pkg.ErrAlreadyRegistered]. A failed bind releases
// everything it acquired and leaves the coordinator idle.
package gadget
