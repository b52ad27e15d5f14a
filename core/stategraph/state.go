package stategraph

// State is the shared key-value store flowing through a graph run. Values
// are arbitrary; typed accessors cover the common shapes. A State handed to
// a node is a snapshot and must be treated as read-only; nodes communicate
// changes exclusively through the Update they return.
type State map[string]any

// Update is the partial state a node returns. Keys are merged into the run
// state through the registered reducers at commit time.
type Update map[string]any

// Get returns the raw value for key and whether it is present.
func (s State) Get(key string) (any, bool) {
	value, ok := s[key]
	return value, ok
}

// GetString returns the string value for key, or "" when absent or not a
// string.
func (s State) GetString(key string) string {
	value, _ := s[key].(string)
	return value
}

// GetInt returns the int value for key. JSON-decoded numbers arrive as
// float64, so both shapes are accepted.
func (s State) GetInt(key string) int {
	switch value := s[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return 0
}

// GetStringSlice returns the []string value for key. A []any holding only
// strings is converted; anything else yields nil.
func (s State) GetStringSlice(key string) []string {
	switch value := s[key].(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			text, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, text)
		}
		return out
	}
	return nil
}

// GetStringMap returns the map[string]string value for key. A
// map[string]any holding only strings is converted; anything else yields
// nil.
func (s State) GetStringMap(key string) map[string]string {
	switch value := s[key].(type) {
	case map[string]string:
		return value
	case map[string]any:
		out := make(map[string]string, len(value))
		for name, item := range value {
			text, ok := item.(string)
			if !ok {
				return nil
			}
			out[name] = text
		}
		return out
	}
	return nil
}

// Clone returns a shallow copy of the state. Top-level keys are independent;
// nested values are shared, which is safe as long as nodes never mutate
// their input.
func (s State) Clone() State {
	copied := make(State, len(s))
	for key, value := range s {
		copied[key] = value
	}
	return copied
}

// Apply merges an update into the state through the given reducers and
// returns the merged result as a new State. The receiver is not modified.
func (s State) Apply(update Update, reducers *ReducerRegistry) State {
	merged := s.Clone()
	for key, incoming := range update {
		previous, exists := merged[key]
		if exists {
			merged[key] = reducers.Merge(key, previous, incoming)
		} else if reducer, ok := reducers.Reducer(key); ok {
			merged[key] = reducer(nil, incoming)
		} else {
			merged[key] = incoming
		}
	}
	return merged
}
