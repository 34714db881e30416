package composite

// Function is one sub-function of a configuration, such as a network
// function or a user-space FunctionFS function.
//
// Bind runs when the function is added to a configuration; it reserves
// interface numbers with [Configuration.InterfaceID] and string IDs with
// [Device.StringID]. Unbind runs when the configuration is torn down.
type Function interface {
	// Name identifies the function in logs.
	Name() string

	// Bind attaches the function to c.
	Bind(c *Configuration) error

	// Unbind releases whatever Bind acquired.
	Unbind(c *Configuration)
}

// DescriptorSource is implemented by functions that contribute interface
// and endpoint descriptors to their configuration's descriptor set.
type DescriptorSource interface {
	// AppendDescriptors appends the function's descriptors to dst.
	AppendDescriptors(dst []byte) []byte
}
