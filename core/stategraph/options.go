package stategraph

import "github.com/minsupark/paperlens/providers/observability"

const defaultMaxConcurrency = 8

// BuilderOption configures a Builder at construction time.
type BuilderOption func(*Builder)

// WithMaxConcurrency bounds how many node instances run in parallel within a
// superstep. Values below one are ignored.
func WithMaxConcurrency(limit int) BuilderOption {
	return func(b *Builder) {
		if limit >= 1 {
			b.maxConcurrency = limit
		}
	}
}

// WithObserver sets the logger used to trace run, superstep and node
// lifecycles.
func WithObserver(observer observability.Logger) BuilderOption {
	return func(b *Builder) {
		if observer != nil {
			b.observer = observer
		}
	}
}
