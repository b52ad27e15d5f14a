// Package client provides a thin single-shot chat client over an ai.Provider
// plus a per-node registry. Invoke returns raw text; InvokeAs requests and
// parses structured output for an arbitrary Go type.
package client
