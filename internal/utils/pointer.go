package utils

// Ptr returns a pointer to the given value. Handy for optional schema fields.
func Ptr[T any](value T) *T {
	return &value
}

// Deref returns the pointed-to value, or fallback when the pointer is nil.
func Deref[T any](pointer *T, fallback T) T {
	if pointer == nil {
		return fallback
	}
	return *pointer
}
