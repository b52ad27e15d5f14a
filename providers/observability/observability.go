package observability

import (
	"context"
	"fmt"
	"time"
)

// Logger provides structured logging for the graph executor and pipeline nodes.
// Implementations must be safe for concurrent use: nodes at the same superstep
// log from parallel goroutines.
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Attribute represents a key-value pair of log metadata.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Strings creates a string-slice attribute.
func Strings(key string, value []string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error creates an error attribute.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: "error", Value: ""}
	}
	return Attribute{Key: "error", Value: err.Error()}
}

// NoopLogger discards everything. It is the default when no logger is configured.
type NoopLogger struct{}

var _ Logger = NoopLogger{}

func (NoopLogger) Debug(context.Context, string, ...Attribute) {}
func (NoopLogger) Info(context.Context, string, ...Attribute)  {}
func (NoopLogger) Warn(context.Context, string, ...Attribute)  {}
func (NoopLogger) Error(context.Context, string, ...Attribute) {}

// DefaultMaxStringLength is the default maximum length for truncated strings.
const DefaultMaxStringLength = 500

// TruncateString truncates a string to maxLen characters, adding a suffix with
// the original length. Used to keep prompt and response previews readable in logs.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}
