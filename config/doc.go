// Package config loads and validates the YAML run settings, including
// per-node model selection in the "provider:model" form.
package config
