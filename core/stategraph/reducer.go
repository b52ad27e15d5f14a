package stategraph

import "sync"

// Reducer merges a node's contribution for one state key into the value
// already committed. Reducers used on keys written by parallel siblings must
// be commutative and associative so the merged result does not depend on
// completion order.
type Reducer func(previous, incoming any) any

// ReducerRegistry maps state keys to their merge functions. Keys without a
// registered reducer use last-write-wins. Safe for concurrent use.
type ReducerRegistry struct {
	mu       sync.RWMutex
	reducers map[string]Reducer
}

// NewReducerRegistry creates an empty registry.
func NewReducerRegistry() *ReducerRegistry {
	return &ReducerRegistry{reducers: map[string]Reducer{}}
}

// Register binds a reducer to a state key, replacing any existing binding.
func (r *ReducerRegistry) Register(key string, reducer Reducer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reducers[key] = reducer
}

// Reducer returns the reducer bound to key, if any.
func (r *ReducerRegistry) Reducer(key string) (Reducer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reducer, ok := r.reducers[key]
	return reducer, ok
}

// Merge combines previous and incoming values for key. Without a registered
// reducer the incoming value overwrites the previous one.
func (r *ReducerRegistry) Merge(key string, previous, incoming any) any {
	if reducer, ok := r.Reducer(key); ok {
		return reducer(previous, incoming)
	}
	return incoming
}

// MergeStringMaps is a reducer producing the union of two string maps, with
// incoming entries winning on key collisions. Nil and foreign-typed inputs
// degrade to empty maps. Commutative up to collisions and associative, so
// parallel writers with disjoint keys merge deterministically.
func MergeStringMaps(previous, incoming any) any {
	merged := map[string]string{}
	for key, value := range toStringMap(previous) {
		merged[key] = value
	}
	for key, value := range toStringMap(incoming) {
		merged[key] = value
	}
	return merged
}

func toStringMap(value any) map[string]string {
	switch typed := value.(type) {
	case map[string]string:
		return typed
	case map[string]any:
		out := make(map[string]string, len(typed))
		for key, item := range typed {
			if text, ok := item.(string); ok {
				out[key] = text
			}
		}
		return out
	}
	return nil
}

// AppendStrings is a reducer concatenating string slices in commit order.
func AppendStrings(previous, incoming any) any {
	merged := append([]string{}, toStringSlice(previous)...)
	return append(merged, toStringSlice(incoming)...)
}

func toStringSlice(value any) []string {
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if text, ok := item.(string); ok {
				out = append(out, text)
			}
		}
		return out
	case string:
		return []string{typed}
	}
	return nil
}
