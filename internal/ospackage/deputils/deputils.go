// Package deputils normalizes dependency entries coming from both index
// formats into ospackage.Dependency values and plain dependency names.
package deputils

import (
	"strings"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
	"github.com/open-edge-platform/firmware-selector/internal/utils/general/slice"
)

// MatchMask is the version match bitmask carried by binary dependency objects.
type MatchMask uint32

const (
	MatchEqual MatchMask = 1 << iota
	MatchLess
	MatchGreater
	MatchFuzzy
	MatchConflict

	// MatchAny accepts every version.
	MatchAny = MatchEqual | MatchLess | MatchGreater
)

// ImplicitDependency is available on every target and never listed.
const ImplicitDependency = "libc"

// RenderOp returns the comparator string for mask. The conflict bit is ignored
// here; combinations without a comparator render as "" (any version).
func RenderOp(mask MatchMask) string {
	switch mask &^ MatchConflict {
	case MatchLess:
		return "<"
	case MatchLess | MatchEqual:
		return "<="
	case MatchLess | MatchEqual | MatchFuzzy:
		return "<~"
	case MatchEqual | MatchFuzzy, MatchFuzzy:
		return "~"
	case MatchEqual:
		return "="
	case MatchGreater | MatchEqual:
		return ">="
	case MatchGreater | MatchEqual | MatchFuzzy:
		return ">~"
	case MatchGreater:
		return ">"
	case MatchLess | MatchGreater:
		return "><"
	default:
		return ""
	}
}

// FromMatch builds a Dependency from the fields of a binary dependency object.
// A missing mask means "equal" when a version is present.
func FromMatch(name, version string, mask MatchMask, hasMask bool) ospackage.Dependency {
	if !hasMask {
		if version != "" {
			mask = MatchEqual
		} else {
			mask = 0
		}
	}
	dep := ospackage.Dependency{
		Name:     name,
		Conflict: mask&MatchConflict != 0,
	}
	if version != "" {
		dep.Op = RenderOp(mask)
		if dep.Op != "" {
			dep.Version = version
		}
	}
	return dep
}

// Format renders a dependency the way apk prints it, e.g. "!busybox>=1.36".
func Format(dep ospackage.Dependency) string {
	var b strings.Builder
	if dep.Conflict {
		b.WriteByte('!')
	}
	b.WriteString(dep.Name)
	if dep.Op != "" && dep.Version != "" {
		b.WriteString(dep.Op)
		b.WriteString(dep.Version)
	}
	return b.String()
}

// Names returns the bare dependency names in order, without duplicates.
// Operators, versions and conflict markers are dropped.
func Names(deps []ospackage.Dependency) []string {
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Name)
	}
	return slice.Unique(names)
}

// textOps maps control-file comparators to the canonical set.
var textOps = map[string]string{
	"<<": "<",
	"<":  "<",
	"<=": "<=",
	"=":  "=",
	">=": ">=",
	">":  ">",
	">>": ">",
}

// ParseDepends parses a control-file Depends value such as
// "libc, bar (>= 1.0), baz". The implicit libc dependency is dropped.
func ParseDepends(value string) []ospackage.Dependency {
	var deps []ospackage.Dependency
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, constraint := entry, ""
		if i := strings.IndexByte(entry, '('); i >= 0 {
			name = strings.TrimSpace(entry[:i])
			constraint = strings.TrimSuffix(strings.TrimSpace(entry[i+1:]), ")")
		}
		if name == "" || name == ImplicitDependency {
			continue
		}
		dep := ospackage.Dependency{Name: name}
		if op, ver, ok := splitConstraint(constraint); ok {
			dep.Op, dep.Version = op, ver
		}
		deps = append(deps, dep)
	}
	return deps
}

// splitConstraint splits ">= 1.0" into (">=", "1.0").
func splitConstraint(c string) (string, string, bool) {
	c = strings.TrimSpace(c)
	if c == "" {
		return "", "", false
	}
	end := 0
	for end < len(c) && strings.IndexByte("<=>", c[end]) >= 0 {
		end++
	}
	op, ok := textOps[c[:end]]
	ver := strings.TrimSpace(c[end:])
	if !ok || ver == "" {
		return "", "", false
	}
	return op, ver, true
}

// ParseNames parses a comma-separated list of names such as a Provides value.
func ParseNames(value string) []string {
	var names []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if i := strings.IndexAny(entry, " (="); i >= 0 {
			entry = entry[:i]
		}
		names = append(names, entry)
	}
	return slice.Unique(names)
}
