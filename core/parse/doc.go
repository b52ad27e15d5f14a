// Package parse converts raw LLM text output into typed Go values, repairing
// slightly malformed JSON along the way.
package parse
