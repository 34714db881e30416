// Package pkg provides shared utilities for the softgadget composite binder.
//
// This package contains common functionality used by the composite
// framework, the FunctionFS provider, and the gadget coordinator:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for registration, binding and descriptor allocation
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with a component tag:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentGadget, "driver registered", "name", "g_ffs")
//
// # Errors
//
// Errors are sentinel values compared with [errors.Is]:
//
//	if errors.Is(err, pkg.ErrAlreadyRegistered) {
//	    // a second function instance reported ready
//	}
package pkg
