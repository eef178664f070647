// Package selection tracks user package overrides relative to the default
// package set of the active device profile and derives the package list of a
// build request.
package selection

import (
	"sort"

	"github.com/open-edge-platform/firmware-selector/internal/utils/general/slice"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// State is the override recorded for one package name.
type State int

const (
	// Unset means no override: defaults stay, other packages stay out.
	Unset State = iota
	// Added marks a non-default package for inclusion.
	Added
	// Removed marks a default package for exclusion.
	Removed
)

func (s State) String() string {
	switch s {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unset"
	}
}

// Machine holds the selection of one device session. Removed is only ever
// recorded for default packages and Added only for non-default ones; every
// mutation clamps other requests to Unset. A Machine is not safe for
// concurrent use.
type Machine struct {
	defaults   []string
	defaultSet map[string]struct{}
	states     map[string]State
}

// NewMachine returns an empty selection over the given default packages.
func NewMachine(defaults []string) *Machine {
	m := &Machine{}
	m.Reset(defaults)
	return m
}

// Reset switches to a new default set (device or profile change) and drops
// every override.
func (m *Machine) Reset(defaults []string) {
	m.defaults = slice.Unique(defaults)
	m.defaultSet = slice.ToSet(m.defaults)
	m.states = make(map[string]State)
}

// Clear drops every override and keeps the default set.
func (m *Machine) Clear() {
	m.states = make(map[string]State)
}

// Defaults returns the default packages in profile order.
func (m *Machine) Defaults() []string {
	return append([]string(nil), m.defaults...)
}

// IsDefault reports whether name belongs to the default set.
func (m *Machine) IsDefault(name string) bool {
	return slice.ContainsStringMapKey(m.defaultSet, name)
}

// State returns the override recorded for name.
func (m *Machine) State(name string) State {
	return m.states[name]
}

// Set records state for name and returns the state actually recorded.
// Added on a default name and Removed on a non-default name clamp to Unset.
func (m *Machine) Set(name string, state State) State {
	if name == "" {
		return Unset
	}
	isDefault := m.IsDefault(name)
	switch {
	case state == Removed && !isDefault, state == Added && isDefault:
		logger.Logger().Debugf("clamping %s on %s to unset (default=%v)", state, name, isDefault)
		state = Unset
	case state != Added && state != Removed:
		state = Unset
	}

	if state == Unset {
		delete(m.states, name)
	} else {
		m.states[name] = state
	}
	return state
}

// Toggle flips a default package between Unset and Removed, and any other
// package between Unset and Added.
func (m *Machine) Toggle(name string) State {
	if m.IsDefault(name) {
		if m.State(name) == Removed {
			return m.Set(name, Unset)
		}
		return m.Set(name, Removed)
	}
	if m.State(name) == Added {
		return m.Set(name, Unset)
	}
	return m.Set(name, Added)
}

// Remove takes name out of the build: a default is marked Removed, an added
// package goes back to Unset.
func (m *Machine) Remove(name string) State {
	if m.IsDefault(name) {
		return m.Set(name, Removed)
	}
	return m.Set(name, Unset)
}

// Add puts name into the build: a non-default is marked Added, a removed
// default goes back to Unset.
func (m *Machine) Add(name string) State {
	if m.IsDefault(name) {
		return m.Set(name, Unset)
	}
	return m.Set(name, Added)
}

// Restore drops any override for name.
func (m *Machine) Restore(name string) State {
	return m.Set(name, Unset)
}

// Added returns the added package names, sorted.
func (m *Machine) Added() []string {
	var out []string
	for name, s := range m.states {
		if s == Added {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Removed returns the removed default names in profile order.
func (m *Machine) Removed() []string {
	var out []string
	for _, name := range m.defaults {
		if m.states[name] == Removed {
			out = append(out, name)
		}
	}
	return out
}

// BuildList derives the package list of a build request: the defaults that
// were not removed, then the added packages, then every removed default
// prefixed with "-".
func (m *Machine) BuildList() []string {
	out := make([]string, 0, len(m.defaults)+len(m.states))
	for _, name := range m.defaults {
		if m.states[name] != Removed {
			out = append(out, name)
		}
	}
	out = append(out, m.Added()...)
	for _, name := range m.Removed() {
		out = append(out, "-"+name)
	}
	return out
}
