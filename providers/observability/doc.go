// Package observability defines the structured logging contract shared by the
// graph executor and the pipeline nodes.
//
// The package intentionally stays small: a Logger interface, an Attribute
// value type with typed constructors, and a NoopLogger default. Concrete
// backends live in subpackages (see slogobs for the log/slog implementation).
package observability
