package pkgindex_test

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/adbutils"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/pkgindex"
	"github.com/open-edge-platform/firmware-selector/internal/ospackage/pkgindex/indextest"
)

func TestExpand(t *testing.T) {
	indextest.RunExpandTestsFunc(
		t,
		"pkgindex",
		func(all []ospackage.PackageInfo, start string) []string {
			return pkgindex.New(all...).Expand(start)
		},
	)
}

func TestExpandTwoCycleBothDirections(t *testing.T) {
	idx := pkgindex.New(
		ospackage.PackageInfo{Name: "x", Depends: []string{"y"}},
		ospackage.PackageInfo{Name: "y", Depends: []string{"x"}},
	)
	if got := idx.Expand("x"); !reflect.DeepEqual(got, []string{"y"}) {
		t.Errorf("Expand(x): expected [y], got %v", got)
	}
	if got := idx.Expand("y"); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Expand(y): expected [x], got %v", got)
	}
}

func TestExpandDeepChain(t *testing.T) {
	const depth = 100000
	records := make([]ospackage.PackageInfo, depth)
	for i := range records {
		records[i] = ospackage.PackageInfo{Name: name(i)}
		if i+1 < depth {
			records[i].Depends = []string{name(i + 1)}
		}
	}
	got := pkgindex.New(records...).Expand(name(0))
	if len(got) != depth-1 {
		t.Errorf("expected %d names, got %d", depth-1, len(got))
	}
}

func name(i int) string {
	return fmt.Sprintf("pkg-%d", i)
}

func TestDependents(t *testing.T) {
	idx := pkgindex.New(
		ospackage.PackageInfo{Name: "x", Depends: []string{"y"}, Feed: "base"},
		ospackage.PackageInfo{Name: "y"},
		ospackage.PackageInfo{Name: "z", Depends: []string{"w"}},
	)
	deps := idx.Dependents("y")
	if len(deps) != 1 || deps[0].Name != "x" {
		t.Errorf("expected [x], got %+v", deps)
	}
	if got := idx.DependentNames("w"); !reflect.DeepEqual(got, []string{"z"}) {
		t.Errorf("expected [z], got %v", got)
	}
	if got := idx.Dependents("nothing"); len(got) != 0 {
		t.Errorf("expected no dependents, got %+v", got)
	}
}

func TestIndexLookupIsAdditive(t *testing.T) {
	idx := pkgindex.New(ospackage.PackageInfo{Name: "a", Version: "1", Feed: "base"})
	idx.Add(ospackage.PackageInfo{Name: "a", Version: "2", Feed: "packages"}, ospackage.PackageInfo{Name: "b"})

	if idx.Len() != 3 {
		t.Errorf("expected 3 records, got %d", idx.Len())
	}
	got := idx.Lookup("a")
	if len(got) != 2 || got[0].Feed != "base" || got[1].Feed != "packages" {
		t.Errorf("expected both occurrences in load order, got %+v", got)
	}
	if !idx.Has("b") || idx.Has("c") {
		t.Errorf("unexpected Has results")
	}
	if names := idx.Names(); !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", names)
	}
}

const controlFile = "Package: x\nVersion: 1\nArchitecture: all\nFilename: x.ipk\nDepends: y\n\nPackage: y\nVersion: 1\nArchitecture: all\nFilename: y.ipk\n"

func TestParseFeedText(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	w.Write([]byte(controlFile))
	w.Close()

	for name, data := range map[string][]byte{
		"https://example.org/base/Packages":    []byte(controlFile),
		"https://example.org/base/Packages.gz": gz.Bytes(),
	} {
		pkgs, err := pkgindex.ParseFeed(name, data, "base")
		if err != nil {
			t.Fatalf("ParseFeed(%s): %v", name, err)
		}
		if len(pkgs) != 2 || pkgs[0].Feed != "base" {
			t.Errorf("ParseFeed(%s): unexpected records %+v", name, pkgs)
		}
	}
}

func TestParseFeedBinaryRouting(t *testing.T) {
	if !pkgindex.IsBinaryIndex("https://example.org/x/packages.adb") {
		t.Error("expected packages.adb to be a binary index")
	}
	if pkgindex.IsBinaryIndex("https://example.org/x/Packages") {
		t.Error("expected Packages to be a text index")
	}

	_, err := pkgindex.ParseFeed("packages.adb", []byte("not an adb file"), "base")
	var fe *adbutils.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("expected FormatError, got %v", err)
	}
}
