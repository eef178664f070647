// Package feeds resolves the package feeds of a device and loads them into a
// single record set.
package feeds

import (
	"path"
	"strings"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage/pkgindex"
	"github.com/open-edge-platform/firmware-selector/internal/profile"
)

// TextIndexName is the file name of control-file feed indexes.
const TextIndexName = "Packages"

// Feed names beyond the architecture feeds.
const (
	TargetFeed = "target"
	KmodsFeed  = "kmods"
)

// ArchFeeds are the per-architecture feeds, in load order.
var ArchFeeds = []string{"base", "luci", "packages", "telephony"}

// Feed is one index to load.
type Feed struct {
	Name string
	URL  string
}

// Resolver builds feed URLs below a download server.
type Resolver struct {
	BaseURL string
	// BinaryVersions are glob patterns of versions publishing packages.adb.
	BinaryVersions []string
}

// NewResolver returns a Resolver for baseURL.
func NewResolver(baseURL string, binaryVersions []string) *Resolver {
	return &Resolver{BaseURL: baseURL, BinaryVersions: binaryVersions}
}

// IsBinary reports whether version publishes binary indexes.
func (r *Resolver) IsBinary(version string) bool {
	if strings.EqualFold(version, profile.SnapshotVersion) {
		version = profile.SnapshotVersion
	}
	for _, pattern := range r.BinaryVersions {
		if ok, err := path.Match(pattern, version); err == nil && ok {
			return true
		}
	}
	return false
}

// IndexFilename returns the index file name used by version.
func (r *Resolver) IndexFilename(version string) string {
	if r.IsBinary(version) {
		return pkgindex.BinaryIndexName
	}
	return TextIndexName
}

// Feeds returns the feeds of a device. The target feed is added when target
// is set, the kmods feed when kernel is also known.
func (r *Resolver) Feeds(version, arch, target string, kernel *profile.Kernel) []Feed {
	root := profile.DownloadPath(r.BaseURL, version)
	file := r.IndexFilename(version)

	feeds := make([]Feed, 0, len(ArchFeeds)+2)
	for _, name := range ArchFeeds {
		feeds = append(feeds, Feed{
			Name: name,
			URL:  root + "/packages/" + arch + "/" + name + "/" + file,
		})
	}
	if target == "" {
		return feeds
	}

	targetRoot := root + "/targets/" + target
	feeds = append(feeds, Feed{Name: TargetFeed, URL: targetRoot + "/packages/" + file})
	if kernel != nil && !kernel.IsZero() {
		feeds = append(feeds, Feed{Name: KmodsFeed, URL: targetRoot + "/kmods/" + kernel.Key() + "/" + file})
	}
	return feeds
}
