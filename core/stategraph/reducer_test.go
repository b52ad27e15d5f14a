package stategraph

import (
	"reflect"
	"testing"
)

func TestMergeOverwritesWithoutReducer(t *testing.T) {
	reducers := NewReducerRegistry()

	if got := reducers.Merge("key", "old", "new"); got != "new" {
		t.Errorf("expected last write to win, got %v", got)
	}
}

func TestMergeStringMapsUnion(t *testing.T) {
	got := MergeStringMaps(
		map[string]string{"a": "1", "b": "2"},
		map[string]string{"b": "3", "c": "4"},
	)

	want := map[string]string{"a": "1", "b": "3", "c": "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMergeStringMapsNilInputs(t *testing.T) {
	if got := MergeStringMaps(nil, nil); !reflect.DeepEqual(got, map[string]string{}) {
		t.Errorf("expected empty map, got %v", got)
	}

	got := MergeStringMaps(nil, map[string]string{"a": "1"})
	if !reflect.DeepEqual(got, map[string]string{"a": "1"}) {
		t.Errorf("got %v", got)
	}
}

// Disjoint-key contributions must merge to the same result regardless of the
// order siblings commit in.
func TestMergeStringMapsOrderIndependentForDisjointKeys(t *testing.T) {
	contributions := []map[string]string{
		{"impact": "a"},
		{"novelty": "b"},
		{"rigor": "c"},
	}

	orders := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	var reference map[string]string
	for _, order := range orders {
		var acc any
		for _, index := range order {
			acc = MergeStringMaps(acc, contributions[index])
		}
		merged := acc.(map[string]string)
		if reference == nil {
			reference = merged
			continue
		}
		if !reflect.DeepEqual(merged, reference) {
			t.Fatalf("order %v produced %v, want %v", order, merged, reference)
		}
	}
}

func TestMergeStringMapsAssociative(t *testing.T) {
	a := map[string]string{"x": "1"}
	b := map[string]string{"y": "2"}
	c := map[string]string{"z": "3"}

	left := MergeStringMaps(MergeStringMaps(a, b), c)
	right := MergeStringMaps(a, MergeStringMaps(b, c))

	if !reflect.DeepEqual(left, right) {
		t.Errorf("not associative: %v vs %v", left, right)
	}
}

func TestAppendStrings(t *testing.T) {
	got := AppendStrings([]string{"a"}, []string{"b", "c"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("got %v", got)
	}

	got = AppendStrings(nil, "solo")
	if !reflect.DeepEqual(got, []string{"solo"}) {
		t.Errorf("single string not promoted: %v", got)
	}
}
