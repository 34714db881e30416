// Package usbid resolves USB vendor and product IDs to names using the
// usb.ids database shipped with most Linux distributions.
//
// The gadget logs the resolved names when it publishes a device
// descriptor, so an operator can see which identity a host will
// enumerate:
//
//	db := usbid.New()
//	db.Load()
//	db.Describe(0x0525, 0xa4ac) // "Netchip Technology, Inc. (0525:a4ac)"
package usbid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPaths lists the standard locations for the USB ID database.
var DefaultPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// Database caches vendor and product names from the USB ID database.
type Database struct {
	vendors  map[uint16]string
	products map[uint32]string // (VID<<16)|PID
	loaded   bool
	paths    []string
	mu       sync.RWMutex
}

// New creates a database that searches DefaultPaths.
func New() *Database {
	return NewWithPaths(DefaultPaths)
}

// NewWithPaths creates a database that searches the given paths in order.
func NewWithPaths(paths []string) *Database {
	return &Database{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
		paths:    paths,
	}
}

// Load parses the first readable database file. Subsequent calls do
// nothing. Returns false if no file could be opened.
func (db *Database) Load() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.loaded {
		return len(db.vendors) > 0
	}
	db.loaded = true

	for _, path := range db.paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		db.parse(f)
		f.Close()
		return true
	}
	return false
}

// Parse reads database content from r, merging it into db.
func (db *Database) Parse(r io.Reader) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.loaded = true
	db.parse(r)
}

// parse handles "vvvv  Vendor" lines and tab-indented "\tpppp  Product"
// lines. Any other line ends the current vendor block.
func (db *Database) parse(r io.Reader) {
	scanner := bufio.NewScanner(r)
	var vid uint16
	inVendor := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}

		product := line[0] == '\t'
		if product {
			if !inVendor {
				continue
			}
			line = line[1:]
		}

		id, name, ok := splitEntry(line)
		if !ok {
			inVendor = inVendor && product
			continue
		}

		if product {
			db.products[uint32(vid)<<16|uint32(id)] = name
			continue
		}
		vid, inVendor = id, true
		db.vendors[vid] = name
	}
}

// splitEntry splits "xxxx  Name" into its hex ID and name.
func splitEntry(line string) (uint16, string, bool) {
	if len(line) < 6 || line[4] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(line[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	return uint16(id), strings.TrimSpace(line[5:]), true
}

// Vendor returns the vendor name for vid, or "" if unknown.
func (db *Database) Vendor(vid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vendors[vid]
}

// Product returns the product name for vid:pid, or "" if unknown.
func (db *Database) Product(vid, pid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.products[uint32(vid)<<16|uint32(pid)]
}

// Describe formats vid:pid with whatever names are known.
func (db *Database) Describe(vid, pid uint16) string {
	ids := fmt.Sprintf("%04x:%04x", vid, pid)
	names := strings.TrimSpace(db.Vendor(vid) + " " + db.Product(vid, pid))
	if names == "" {
		return ids
	}
	return names + " (" + ids + ")"
}
