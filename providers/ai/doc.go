// Package ai defines the provider-agnostic chat contract used by the LLM
// client. Concrete backends live in subpackages (openai, gemini); callers
// select one by the provider prefix of a model identifier.
package ai
