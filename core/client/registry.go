package client

import (
	"fmt"
	"sync"
)

// Factory builds a Client for a named pipeline node. Implementations decide
// which provider and model back the node.
type Factory func(nodeName string) (*Client, error)

// Registry memoizes per-node clients so that nodes sharing a model reuse the
// same Client. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	clients map[string]*Client
}

// NewRegistry creates a Registry backed by the given factory.
func NewRegistry(factory Factory) (*Registry, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory is required")
	}
	return &Registry{
		factory: factory,
		clients: map[string]*Client{},
	}, nil
}

// ForNode returns the client for the named node, building it on first use.
func (r *Registry) ForNode(nodeName string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[nodeName]; ok {
		return c, nil
	}

	c, err := r.factory(nodeName)
	if err != nil {
		return nil, fmt.Errorf("failed to build client for node %q: %w", nodeName, err)
	}

	r.clients[nodeName] = c
	return c, nil
}

// Clear drops all memoized clients.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = map[string]*Client{}
}
