package slice_test

import (
	"reflect"
	"testing"

	"github.com/open-edge-platform/firmware-selector/internal/utils/general/slice"
)

func TestContains(t *testing.T) {
	_slice := []string{"foo", "bar"}
	if !slice.Contains(_slice, "foo") {
		t.Errorf("Contains should return true for existing element")
	}
	if slice.Contains(_slice, "baz") {
		t.Errorf("Contains should return false for non-existing element")
	}
}

func TestUnique(t *testing.T) {
	input := []string{"b", "a", "", "b", "c", "a"}
	expected := []string{"b", "a", "c"}
	result := slice.Unique(input)
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
	if got := slice.Unique(nil); len(got) != 0 {
		t.Errorf("Expected empty result for nil input, got %v", got)
	}
}

func TestToSetAndContainsStringMapKey(t *testing.T) {
	set := slice.ToSet([]string{"x", "y"})
	if !slice.ContainsStringMapKey(set, "x") {
		t.Errorf("ContainsStringMapKey should return true for existing key")
	}
	if slice.ContainsStringMapKey(set, "z") {
		t.Errorf("ContainsStringMapKey should return false for missing key")
	}
}
