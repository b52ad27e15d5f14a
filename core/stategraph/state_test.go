package stategraph

import (
	"reflect"
	"testing"
)

func TestStateTypedAccessors(t *testing.T) {
	state := State{
		"title":    "Attention Is All You Need",
		"pages":    float64(12),
		"keywords": []any{"transformer", "attention"},
		"sections": map[string]any{"introduction": "text"},
	}

	if got := state.GetString("title"); got != "Attention Is All You Need" {
		t.Errorf("GetString: got %q", got)
	}
	if got := state.GetInt("pages"); got != 12 {
		t.Errorf("GetInt on float64: got %d", got)
	}
	if got := state.GetStringSlice("keywords"); !reflect.DeepEqual(got, []string{"transformer", "attention"}) {
		t.Errorf("GetStringSlice: got %v", got)
	}
	if got := state.GetStringMap("sections"); got["introduction"] != "text" {
		t.Errorf("GetStringMap: got %v", got)
	}

	if got := state.GetString("missing"); got != "" {
		t.Errorf("GetString on missing key: got %q", got)
	}
	if got := state.GetInt("title"); got != 0 {
		t.Errorf("GetInt on string: got %d", got)
	}
}

func TestStateCloneIsIndependent(t *testing.T) {
	original := State{"a": 1}
	copied := original.Clone()
	copied["a"] = 2
	copied["b"] = 3

	if original["a"] != 1 {
		t.Error("clone write leaked into original")
	}
	if _, ok := original["b"]; ok {
		t.Error("clone insertion leaked into original")
	}
}

func TestStateApplyDoesNotMutateReceiver(t *testing.T) {
	reducers := NewReducerRegistry()
	before := State{"a": 1}

	after := before.Apply(Update{"a": 2, "b": 3}, reducers)

	if before["a"] != 1 {
		t.Error("Apply mutated the receiver")
	}
	if after["a"] != 2 || after["b"] != 3 {
		t.Errorf("unexpected merged state: %v", after)
	}
}

func TestStateApplyUsesReducer(t *testing.T) {
	reducers := NewReducerRegistry()
	reducers.Register("analyses", MergeStringMaps)

	state := State{"analyses": map[string]string{"impact": "high"}}
	merged := state.Apply(Update{"analyses": map[string]string{"novelty": "strong"}}, reducers)

	got := merged.GetStringMap("analyses")
	if got["impact"] != "high" || got["novelty"] != "strong" {
		t.Errorf("reducer not applied: %v", got)
	}
}

func TestStateApplyReducerOnAbsentKey(t *testing.T) {
	reducers := NewReducerRegistry()
	reducers.Register("analyses", MergeStringMaps)

	merged := State{}.Apply(Update{"analyses": map[string]string{"impact": "high"}}, reducers)

	if got := merged.GetStringMap("analyses"); got["impact"] != "high" {
		t.Errorf("reducer not applied on first write: %v", got)
	}
}
