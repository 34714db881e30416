//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package platform

import "runtime"

func identify() Identity {
	return Identity{SysName: runtime.GOOS, Release: "unknown"}
}
