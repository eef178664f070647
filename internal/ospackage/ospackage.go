package ospackage

import "github.com/open-edge-platform/firmware-selector/internal/utils/general/slice"

// PackageInfo is the canonical record for one package of one feed. Both the
// binary (packages.adb) and the text (Packages) index decoders produce it.
// Records are treated as immutable once built; copy before changing.
type PackageInfo struct {
	Name          string       // e.g. "luci-app-firewall"
	Version       string       // e.g. "24.364.71279~08a7f42-r1"
	Arch          string       // e.g. "mipsel_24kc", "all"
	Section       string       // empty for binary indexes
	License       string       // optional
	URL           string       // project homepage
	CPEID         string       // optional, text indexes only
	Filename      string       // file name inside the feed
	Size          int64        // download size in bytes
	InstalledSize int64        // installed size in bytes
	Checksum      string       // lowercase hex content hash
	Description   string       // free text
	Depends       []string     // dependency names, ordered, de-duplicated
	Constraints   []Dependency // parsed depends entries including operator and version
	Provides      []string     // names this package provides
	Maintainer    string       // binary indexes only
	Origin        string       // source package name, binary indexes only
	BuildTime     int64        // unix seconds, binary indexes only
	Feed          string       // origin feed tag, e.g. "base", "kmods"
}

// Dependency is one parsed dependency entry. Op is one of the canonical
// comparator strings ("", "<", "<=", "<~", "~", "=", ">=", ">~", ">", "><").
type Dependency struct {
	Name     string
	Op       string
	Version  string
	Conflict bool
}

// HasDependency reports whether name is one of the package's dependency names.
func (p PackageInfo) HasDependency(name string) bool {
	return slice.Contains(p.Depends, name)
}
