// Package utils holds small internal helpers shared by the provider
// implementations: a generic JSON POST helper and pointer conveniences.
package utils
