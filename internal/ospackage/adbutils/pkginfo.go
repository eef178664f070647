package adbutils

import (
	"fmt"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/deputils"
	"github.com/open-edge-platform/firmware-selector/internal/utils/logger"
)

// Root object slots of an index.
const (
	NdxDescription = 1
	NdxPackages    = 2
)

// Package info object slots.
const (
	PiName = iota + 1
	PiVersion
	PiHashes
	PiDescription
	PiArch
	PiLicense
	PiOrigin
	PiMaintainer
	PiURL
	PiRepoCommit
	PiBuildTime
	PiInstalledSize
	PiFileSize
	PiProviderPriority
	PiDepends
	PiProvides
	PiReplaces
	PiInstallIf
	PiRecommends
	PiLayer
	PiTags
)

// Dependency object slots.
const (
	DepName    = 1
	DepVersion = 2
	DepMatch   = 3
)

// PkgInfo is one pkginfo object as stored in the binary index.
type PkgInfo struct {
	Name             string
	Version          string
	Hash             string
	Description      string
	Arch             string
	License          string
	Origin           string
	Maintainer       string
	URL              string
	RepoCommit       string
	BuildTime        uint64
	InstalledSize    uint64
	FileSize         uint64
	ProviderPriority uint64
	Depends          []ospackage.Dependency
	Provides         []ospackage.Dependency
	Replaces         []ospackage.Dependency
	InstallIf        []ospackage.Dependency
	Recommends       []ospackage.Dependency
	Layer            uint64
	Tags             []string
}

// Index is a decoded binary package index.
type Index struct {
	Description string
	Packages    []ospackage.PackageInfo
}

// ParseIndex decodes a packages.adb buffer, envelope included, into canonical
// records tagged with feed. Package objects lacking a name, version or
// architecture are skipped.
func ParseIndex(data []byte, feed string) (*Index, error) {
	log := logger.Logger()

	raw, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	schema, payload, err := ParseContainer(raw)
	if err != nil {
		return nil, err
	}
	if schema != SchemaIndex {
		return nil, formatErr("schema", "unexpected schema 0x%08x", schema)
	}

	r, err := NewReader(payload)
	if err != nil {
		return nil, err
	}
	root, err := r.Object(r.Root)
	if err != nil {
		return nil, fmt.Errorf("reading index root: %w", err)
	}

	idx := &Index{}
	if idx.Description, err = root.String(NdxDescription); err != nil {
		return nil, fmt.Errorf("reading index description: %w", err)
	}

	pkgs, err := root.Object(NdxPackages)
	if err != nil {
		return nil, fmt.Errorf("reading package array: %w", err)
	}
	skipped := 0
	for i := 1; i <= pkgs.Len(); i++ {
		t := pkgs.Field(i)
		if t.IsNull() {
			continue
		}
		info, err := ReadPkgInfo(r, t)
		if err != nil {
			return nil, fmt.Errorf("reading package %d: %w", i, err)
		}
		pi, ok := info.Canonical(feed)
		if !ok {
			skipped++
			continue
		}
		idx.Packages = append(idx.Packages, pi)
	}

	log.Debugf("decoded %d packages from adb index %q (feed %s, %d skipped)", len(idx.Packages), idx.Description, feed, skipped)
	return idx, nil
}

// ReadPkgInfo reads the pkginfo object referenced by t.
func ReadPkgInfo(r *Reader, t Tag) (PkgInfo, error) {
	var info PkgInfo
	obj, err := r.Object(t)
	if err != nil {
		return info, err
	}

	strFields := []struct {
		slot int
		dst  *string
	}{
		{PiName, &info.Name},
		{PiVersion, &info.Version},
		{PiDescription, &info.Description},
		{PiArch, &info.Arch},
		{PiLicense, &info.License},
		{PiOrigin, &info.Origin},
		{PiMaintainer, &info.Maintainer},
		{PiURL, &info.URL},
	}
	for _, f := range strFields {
		if *f.dst, err = obj.String(f.slot); err != nil {
			return info, err
		}
	}

	if info.Hash, err = obj.Hex(PiHashes); err != nil {
		return info, err
	}
	if info.RepoCommit, err = obj.Hex(PiRepoCommit); err != nil {
		return info, err
	}

	intFields := []struct {
		slot int
		dst  *uint64
	}{
		{PiBuildTime, &info.BuildTime},
		{PiInstalledSize, &info.InstalledSize},
		{PiFileSize, &info.FileSize},
		{PiProviderPriority, &info.ProviderPriority},
		{PiLayer, &info.Layer},
	}
	for _, f := range intFields {
		if *f.dst, err = obj.Int(f.slot); err != nil {
			return info, err
		}
	}

	depFields := []struct {
		slot int
		dst  *[]ospackage.Dependency
	}{
		{PiDepends, &info.Depends},
		{PiProvides, &info.Provides},
		{PiReplaces, &info.Replaces},
		{PiInstallIf, &info.InstallIf},
		{PiRecommends, &info.Recommends},
	}
	for _, f := range depFields {
		if *f.dst, err = readDependencies(r, obj.Field(f.slot)); err != nil {
			return info, err
		}
	}

	tags, err := obj.Object(PiTags)
	if err != nil {
		return info, err
	}
	for i := 1; i <= tags.Len(); i++ {
		s, err := tags.String(i)
		if err != nil {
			return info, err
		}
		if s != "" {
			info.Tags = append(info.Tags, s)
		}
	}
	return info, nil
}

// readDependencies reads an array of dependency objects.
func readDependencies(r *Reader, t Tag) ([]ospackage.Dependency, error) {
	arr, err := r.Object(t)
	if err != nil {
		return nil, err
	}
	var deps []ospackage.Dependency
	for i := 1; i <= arr.Len(); i++ {
		if !arr.Has(i) {
			continue
		}
		obj, err := arr.Object(i)
		if err != nil {
			return nil, err
		}
		name, err := obj.String(DepName)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}
		version, err := obj.String(DepVersion)
		if err != nil {
			return nil, err
		}
		mask, err := obj.Int(DepMatch)
		if err != nil {
			return nil, err
		}
		deps = append(deps, deputils.FromMatch(name, version, deputils.MatchMask(mask), obj.Has(DepMatch)))
	}
	return deps, nil
}

// Canonical maps the pkginfo to a canonical record. It reports false when the
// name, version or architecture is missing.
func (info PkgInfo) Canonical(feed string) (ospackage.PackageInfo, bool) {
	if info.Name == "" || info.Version == "" || info.Arch == "" {
		return ospackage.PackageInfo{}, false
	}
	return ospackage.PackageInfo{
		Name:          info.Name,
		Version:       info.Version,
		Arch:          info.Arch,
		License:       info.License,
		URL:           info.URL,
		Filename:      fmt.Sprintf("%s_%s_%s.apk", info.Name, info.Version, info.Arch),
		Size:          int64(info.FileSize),
		InstalledSize: int64(info.InstalledSize),
		Checksum:      info.Hash,
		Description:   info.Description,
		Depends:       deputils.Names(info.Depends),
		Constraints:   info.Depends,
		Provides:      deputils.Names(info.Provides),
		Maintainer:    info.Maintainer,
		Origin:        info.Origin,
		BuildTime:     int64(info.BuildTime),
		Feed:          feed,
	}, true
}
