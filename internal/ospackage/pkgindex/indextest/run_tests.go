package indextest

import (
	"reflect"
	"sort"
	"testing"

	"github.com/open-edge-platform/firmware-selector/internal/ospackage"
)

func pkg(name string, deps ...string) ospackage.PackageInfo {
	return ospackage.PackageInfo{Name: name, Version: "1", Arch: "all", Depends: deps}
}

var TestCases = []struct {
	Name  string
	All   []ospackage.PackageInfo
	Start string
	Want  []string
}{
	{
		Name:  "SimpleChain",
		All:   []ospackage.PackageInfo{pkg("C"), pkg("B", "C"), pkg("A", "B")},
		Start: "A",
		Want:  []string{"B", "C"},
	},
	{
		Name:  "TwoCycle",
		All:   []ospackage.PackageInfo{pkg("x", "y"), pkg("y", "x")},
		Start: "x",
		Want:  []string{"y"},
	},
	{
		Name:  "SelfReference",
		All:   []ospackage.PackageInfo{pkg("x", "x", "z"), pkg("z")},
		Start: "x",
		Want:  []string{"z"},
	},
	{
		Name:  "Diamond",
		All:   []ospackage.PackageInfo{pkg("A", "B", "C"), pkg("B", "D"), pkg("C", "D"), pkg("D")},
		Start: "A",
		Want:  []string{"B", "C", "D"},
	},
	{
		Name:  "MissingRecordIsLeaf",
		All:   []ospackage.PackageInfo{pkg("A", "ghost")},
		Start: "A",
		Want:  []string{"ghost"},
	},
	{
		Name:  "SameNameAcrossFeedsIsAdditive",
		All:   []ospackage.PackageInfo{pkg("A", "B"), pkg("A", "C"), pkg("B"), pkg("C")},
		Start: "A",
		Want:  []string{"B", "C"},
	},
	{
		Name:  "UnknownStart",
		All:   []ospackage.PackageInfo{pkg("A")},
		Start: "nope",
		Want:  []string{},
	},
}

// RunExpandTestsFunc drives an expansion function through the table.
func RunExpandTestsFunc(
	t *testing.T,
	prefix string,
	expandFunc func(all []ospackage.PackageInfo, start string) []string,
) {

	t.Helper()
	for _, tc := range TestCases {
		t.Run(prefix+"/"+tc.Name, func(t *testing.T) {
			got := append([]string{}, expandFunc(tc.All, tc.Start)...)
			want := append([]string{}, tc.Want...)
			sort.Strings(got)
			sort.Strings(want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Expand [%v] = %v; want %v", tc.Name, got, want)
			}
		})
	}
}
