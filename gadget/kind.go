package gadget

import (
	"fmt"
	"strings"

	"github.com/ardnew/softgadget/composite"
	"github.com/ardnew/softgadget/pkg"
)

// Kind identifies one of the configurations the gadget can offer.
type Kind uint8

// Configuration kinds, in the order they are added to a device.
const (
	KindRNDIS   Kind = iota // FunctionFS plus RNDIS
	KindECM                 // FunctionFS plus CDC ECM, or CDC subset
	KindGeneric             // FunctionFS alone
)

// String returns the name used in configuration files.
func (k Kind) String() string {
	switch k {
	case KindRNDIS:
		return "rndis"
	case KindECM:
		return "ecm"
	case KindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Label returns the configuration's string descriptor text.
func (k Kind) Label() string {
	switch k {
	case KindRNDIS:
		return "FunctionFS + RNDIS"
	case KindECM:
		return "FunctionFS + ECM"
	default:
		return "FunctionFS"
	}
}

// IsNetwork reports whether the configuration carries a network function.
func (k Kind) IsNetwork() bool {
	return k == KindRNDIS || k == KindECM
}

// ParseKind converts a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rndis":
		return KindRNDIS, nil
	case "ecm":
		return KindECM, nil
	case "generic":
		return KindGeneric, nil
	default:
		return 0, fmt.Errorf("%w: unknown configuration %q", pkg.ErrInvalidParameter, name)
	}
}

// Enabled is the fixed set of configurations a gadget is built with.
// Order and duplicates are irrelevant.
type Enabled []Kind

// ParseEnabled converts configuration names to an Enabled set.
func ParseEnabled(names []string) (Enabled, error) {
	e := make(Enabled, 0, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		e = append(e, k)
	}
	if e.Has(KindRNDIS) && e.Has(KindECM) {
		return nil, fmt.Errorf("%w: rndis and ecm are mutually exclusive", pkg.ErrInvalidParameter)
	}
	return e, nil
}

// Has reports whether k is enabled.
func (e Enabled) Has(k Kind) bool {
	for _, x := range e {
		if x == k {
			return true
		}
	}
	return false
}

// Entry is one configuration of a ConfigurationSet.
type Entry struct {
	Kind   Kind
	Label  *StringSlot
	Config *composite.Configuration
}

// ConfigurationSet holds the configurations a gadget offers. Entries are
// created once and reused on every bind.
type ConfigurationSet struct {
	Entries []*Entry
}

// NewConfigurationSet builds the set for e, always in RNDIS, ECM, Generic
// order. Configuration values are assigned by position starting at 1.
func NewConfigurationSet(e Enabled) *ConfigurationSet {
	s := &ConfigurationSet{}
	for _, k := range []Kind{KindRNDIS, KindECM, KindGeneric} {
		if !e.Has(k) {
			continue
		}
		value := uint8(len(s.Entries) + 1)
		s.Entries = append(s.Entries, &Entry{
			Kind:   k,
			Label:  NewStringSlot(k.Label()),
			Config: composite.NewConfiguration(k.Label(), value, nil),
		})
	}
	return s
}

// HasNetwork reports whether any entry carries a network function.
func (s *ConfigurationSet) HasNetwork() bool {
	for _, e := range s.Entries {
		if e.Kind.IsNetwork() {
			return true
		}
	}
	return false
}

// Kinds returns the kinds of the entries in order.
func (s *ConfigurationSet) Kinds() []Kind {
	kinds := make([]Kind, len(s.Entries))
	for i, e := range s.Entries {
		kinds[i] = e.Kind
	}
	return kinds
}
