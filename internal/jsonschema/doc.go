// Package jsonschema generates minimal JSON Schemas from Go types via
// reflection. The schemas are embedded in LLM requests to guide structured
// output; they are not a general-purpose JSON Schema implementation.
package jsonschema
