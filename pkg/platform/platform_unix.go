//go:build linux || darwin || freebsd || netbsd || openbsd

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func identify() Identity {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return Identity{SysName: runtime.GOOS, Release: "unknown"}
	}
	return Identity{
		SysName: cstring(uts.Sysname[:]),
		Release: cstring(uts.Release[:]),
	}
}
