// Package composite implements a minimal USB composite gadget framework.
//
// A [Core] binds one [Driver] to a gadget controller. On registration the
// core creates a [Device] and calls the driver's Bind, which adds
// [Configuration] values to the device. Each configuration's BindFunc adds
// [Function] values that reserve interface numbers and string IDs.
//
// Basic usage:
//
//	core := composite.NewCore(hal.Virtual("dummy_udc.0"))
//	if err := core.Register(drv); err != nil {
//	    return err
//	}
//	defer core.Unregister(drv)
//
// # Interface slots
//
// A configuration keeps its interface slot array across binds. Consumers
// treat the first nil slot as the end of the list, see
// [Configuration.ActiveInterfaces].
//
// # Descriptors
//
// Descriptor types serialize with MarshalTo into caller-provided buffers
// and parse with the matching Parse function.
package composite
