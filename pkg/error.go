package pkg

import "errors"

// Composite gadget errors.
var (
	// ErrAlreadyRegistered indicates a function instance reported ready while
	// the composite driver was already registered.
	ErrAlreadyRegistered = errors.New("composite driver already registered")

	// ErrNoInstance indicates a bind was attempted with no ready function instance.
	ErrNoInstance = errors.New("no function instance")

	// ErrRegistrationFailed indicates the composite driver could not be registered.
	ErrRegistrationFailed = errors.New("composite driver registration failed")

	// ErrOutOfStringSlots indicates the string descriptor ID space is exhausted.
	ErrOutOfStringSlots = errors.New("out of string descriptor IDs")

	// ErrOutOfInterfaces indicates a configuration has no free interface IDs.
	ErrOutOfInterfaces = errors.New("out of interface IDs")

	// ErrFrozen indicates descriptor parameters can no longer be changed.
	ErrFrozen = errors.New("descriptor parameters frozen")

	// ErrNotRegistered indicates the driver is not registered with the core.
	ErrNotRegistered = errors.New("driver not registered")

	// ErrNoGadget indicates no gadget controller is available.
	ErrNoGadget = errors.New("no gadget controller")
)

// General errors.
var (
	// ErrNoDevice indicates the device is not present.
	ErrNoDevice = errors.New("device not present")

	// ErrInvalidState indicates an invalid state for the operation.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")

	// ErrBusy indicates the resource is busy.
	ErrBusy = errors.New("resource busy")

	// ErrNoMemory indicates a fixed-size table is full.
	ErrNoMemory = errors.New("insufficient memory")

	// ErrDescriptorTooShort indicates the descriptor data is too short.
	ErrDescriptorTooShort = errors.New("descriptor too short")

	// ErrDescriptorTypeMismatch indicates the descriptor type does not match expected.
	ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")
)
