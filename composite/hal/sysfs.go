package hal

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ardnew/softgadget/pkg"
)

// SysfsUDCPath is the sysfs class directory listing device controllers.
const SysfsUDCPath = "/sys/class/udc"

// Discover scans root (normally [SysfsUDCPath]) for device controllers.
// Controllers are returned sorted by name. A missing root yields
// [pkg.ErrNoGadget].
func Discover(root string) ([]*Controller, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkg.ErrNoGadget
		}
		return nil, err
	}

	var controllers []*Controller
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		controllers = append(controllers, &Controller{
			ControllerName: entry.Name(),
			OTG:            readAttr(dir, "is_otg") == "1",
			Speed:          ParseSpeed(readAttr(dir, "maximum_speed")),
		})
		pkg.LogDebug(pkg.ComponentHAL, "controller discovered",
			"name", entry.Name(),
			"dir", dir)
	}
	if len(controllers) == 0 {
		return nil, pkg.ErrNoGadget
	}

	sort.Slice(controllers, func(i, j int) bool {
		return controllers[i].ControllerName < controllers[j].ControllerName
	})
	return controllers, nil
}

// Find returns the controller named name from root, or the first one if
// name is empty.
func Find(root, name string) (*Controller, error) {
	controllers, err := Discover(root)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return controllers[0], nil
	}
	for _, c := range controllers {
		if c.ControllerName == name {
			return c, nil
		}
	}
	return nil, pkg.ErrNoGadget
}

// readAttr reads a sysfs attribute, returning "" if it is absent.
func readAttr(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
