package composite

// Limits for fixed-size tables.
const (
	// MaxConfigInterfaces is the capacity of a configuration's interface
	// slot array.
	MaxConfigInterfaces = 16

	// MaxConfigurations is the maximum number of configurations per device.
	MaxConfigurations = 4

	// MaxStringID is the highest string descriptor ID a device hands out.
	// IDs 0 (language table) and 255 are never allocated.
	MaxStringID = 254
)
