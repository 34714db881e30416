// Package platform identifies the running operating system for use in
// USB manufacturer strings.
package platform

import "strings"

// Identity names the running kernel.
type Identity struct {
	SysName string // e.g. "Linux"
	Release string // e.g. "6.1.0-rpi7"
}

// String returns "<sysname> <release>".
func (id Identity) String() string {
	return strings.TrimSpace(id.SysName + " " + id.Release)
}

// Identify returns the identity of the running kernel. It never fails;
// fields that cannot be determined fall back to runtime values.
func Identify() Identity {
	return identify()
}

// cstring converts a NUL-terminated byte array to a string.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
