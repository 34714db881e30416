package composite

// Driver is a composite gadget driver. The core calls Bind once the driver
// is registered and Unbind when it is unregistered, or when Bind fails.
type Driver interface {
	// Name identifies the driver, e.g. "g_ffs".
	Name() string

	// Descriptor returns the driver's device descriptor template. The core
	// copies it after Bind returns, so Bind may still adjust it.
	Descriptor() *DeviceDescriptor

	// Bind populates dev with configurations.
	Bind(dev *Device) error

	// Unbind releases what Bind acquired. It is also called on the
	// error-recovery path after a failed Bind and must tolerate that.
	Unbind(dev *Device) error
}
