// Package pkgindex holds the in-memory canonical record set of the loaded
// feeds and answers dependency graph queries over it.
package pkgindex

import (
	"sort"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
)

// Index is the record set of one device session. Records of the same name
// from different feeds are kept side by side; a later feed adds to, and does
// not replace, earlier occurrences.
type Index struct {
	records []ospackage.PackageInfo
	byName  map[string][]int
}

// New builds an index from records in load order.
func New(records ...ospackage.PackageInfo) *Index {
	idx := &Index{byName: make(map[string][]int)}
	idx.Add(records...)
	return idx
}

// Add appends records of a newly loaded feed.
func (idx *Index) Add(records ...ospackage.PackageInfo) {
	for _, r := range records {
		idx.byName[r.Name] = append(idx.byName[r.Name], len(idx.records))
		idx.records = append(idx.records, r)
	}
}

// Len returns the number of records.
func (idx *Index) Len() int { return len(idx.records) }

// Records returns a copy of all records in load order.
func (idx *Index) Records() []ospackage.PackageInfo {
	out := make([]ospackage.PackageInfo, len(idx.records))
	copy(out, idx.records)
	return out
}

// Lookup returns every record named name, in load order.
func (idx *Index) Lookup(name string) []ospackage.PackageInfo {
	positions := idx.byName[name]
	out := make([]ospackage.PackageInfo, 0, len(positions))
	for _, i := range positions {
		out = append(out, idx.records[i])
	}
	return out
}

// Has reports whether any feed carries name.
func (idx *Index) Has(name string) bool {
	return len(idx.byName[name]) > 0
}

// Names returns the sorted distinct package names.
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.byName))
	for n := range idx.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Expand returns every package name reachable from name through dependency
// lists, in breadth-first discovery order. name itself is never included,
// and cycles terminate. Names without a record are still reported but not
// walked further.
func (idx *Index) Expand(name string) []string {
	visited := map[string]struct{}{name: {}}
	queue := []string{name}
	var out []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, i := range idx.byName[cur] {
			for _, dep := range idx.records[i].Depends {
				if _, seen := visited[dep]; seen {
					continue
				}
				visited[dep] = struct{}{}
				out = append(out, dep)
				queue = append(queue, dep)
			}
		}
	}
	return out
}

// Dependents returns every record whose dependency names contain name.
func (idx *Index) Dependents(name string) []ospackage.PackageInfo {
	var out []ospackage.PackageInfo
	for _, r := range idx.records {
		if r.HasDependency(name) {
			out = append(out, r)
		}
	}
	return out
}

// DependentNames is Dependents reduced to distinct names in load order.
func (idx *Index) DependentNames(name string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range idx.Dependents(name) {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r.Name)
	}
	return out
}
