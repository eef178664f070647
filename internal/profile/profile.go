// Package profile reads per-device firmware metadata: the architecture, the
// default package set and the kernel descriptor of a target.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/open-edge-platform/firmware-selector/internal/utils/general/slice"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// SnapshotVersion selects the rolling snapshot tree instead of a release.
const SnapshotVersion = "SNAPSHOT"

// Kernel identifies the kernel a target was built with.
type Kernel struct {
	Version  string `json:"version"`
	Release  string `json:"release"`
	Vermagic string `json:"vermagic"`
}

// Key returns "{version}-{release}-{vermagic}", the kmods feed directory.
func (k Kernel) Key() string {
	return k.Version + "-" + k.Release + "-" + k.Vermagic
}

// IsZero reports whether no kernel information is present.
func (k Kernel) IsZero() bool {
	return k.Version == "" && k.Release == "" && k.Vermagic == ""
}

// ParseKernelKey parses a "{version}-{release}-{vermagic}" string. The
// version may itself not contain '-'; the vermagic is the last field.
func ParseKernelKey(key string) (Kernel, error) {
	parts := strings.Split(key, "-")
	if len(parts) < 3 {
		return Kernel{}, fmt.Errorf("invalid kernel descriptor %q, expected version-release-vermagic", key)
	}
	k := Kernel{
		Version:  parts[0],
		Release:  strings.Join(parts[1:len(parts)-1], "-"),
		Vermagic: parts[len(parts)-1],
	}
	if k.Version == "" || k.Release == "" || k.Vermagic == "" {
		return Kernel{}, fmt.Errorf("invalid kernel descriptor %q, expected version-release-vermagic", key)
	}
	return k, nil
}

// Profile is the metadata of one device of a target.
type Profile struct {
	ID              string
	Version         string
	Target          string
	Arch            string
	DefaultPackages []string
	DevicePackages  []string
	Kernel          *Kernel
}

// DefaultSet returns the packages a build gets without user changes: the
// target defaults plus the device packages. A device entry "-name" drops
// name from the target defaults.
func (p *Profile) DefaultSet() []string {
	drop := make(map[string]struct{})
	var extra []string
	for _, name := range p.DevicePackages {
		if strings.HasPrefix(name, "-") {
			drop[strings.TrimPrefix(name, "-")] = struct{}{}
			continue
		}
		extra = append(extra, name)
	}
	var out []string
	for _, name := range p.DefaultPackages {
		if _, ok := drop[name]; !ok {
			out = append(out, name)
		}
	}
	return slice.Unique(append(out, extra...))
}

// Source looks up device profiles. An empty id returns the target-level
// profile without device packages.
type Source interface {
	Profile(ctx context.Context, version, target, id string) (*Profile, error)
}

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DownloadPath returns the tree root of a firmware version below base:
// {base}/snapshots for SNAPSHOT, {base}/releases/{version} otherwise.
func DownloadPath(base, version string) string {
	base = strings.TrimRight(base, "/")
	if strings.EqualFold(version, SnapshotVersion) {
		return base + "/snapshots"
	}
	return base + "/releases/" + version
}

// HTTPSource reads profiles.json from a download server.
type HTTPSource struct {
	BaseURL string
	Fetcher Fetcher
}

// NewHTTPSource returns a Source reading below baseURL.
func NewHTTPSource(baseURL string, fetcher Fetcher) *HTTPSource {
	return &HTTPSource{BaseURL: baseURL, Fetcher: fetcher}
}

// ProfilesURL returns the profiles.json URL of a target.
func (s *HTTPSource) ProfilesURL(version, target string) string {
	return DownloadPath(s.BaseURL, version) + "/targets/" + target + "/profiles.json"
}

type profilesDocument struct {
	ArchPackages    string   `json:"arch_packages"`
	DefaultPackages []string `json:"default_packages"`
	LinuxKernel     *Kernel  `json:"linux_kernel"`
	Target          string   `json:"target"`
	Profiles        map[string]struct {
		DevicePackages []string `json:"device_packages"`
	} `json:"profiles"`
}

// Profile implements Source.
func (s *HTTPSource) Profile(ctx context.Context, version, target, id string) (*Profile, error) {
	url := s.ProfilesURL(version, target)
	logger.Logger().Debugf("fetching device profiles from %s", url)

	data, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching profiles for %s: %w", target, err)
	}
	return ParseProfiles(data, version, target, id)
}

// ParseProfiles decodes a profiles.json document and extracts profile id.
func ParseProfiles(data []byte, version, target, id string) (*Profile, error) {
	var doc profilesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding profiles for %s: %w", target, err)
	}
	if doc.Target != "" {
		target = doc.Target
	}

	p := &Profile{
		ID:              id,
		Version:         version,
		Target:          target,
		Arch:            doc.ArchPackages,
		DefaultPackages: doc.DefaultPackages,
	}
	if doc.LinuxKernel != nil && !doc.LinuxKernel.IsZero() {
		k := *doc.LinuxKernel
		p.Kernel = &k
	}
	if id == "" {
		return p, nil
	}

	dev, ok := doc.Profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %q not found for target %s", id, target)
	}
	p.DevicePackages = dev.DevicePackages
	return p, nil
}
