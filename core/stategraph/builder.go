package stategraph

import (
	"errors"
	"fmt"

	"github.com/minsupark/paperlens/providers/observability"
)

// Builder assembles a Graph incrementally. Errors accumulate across calls
// and surface together from Build, so wiring code stays free of per-call
// error handling.
type Builder struct {
	nodes       map[string]node
	order       []string
	staticEdges map[string][]string
	conditional map[string]conditionalEdge
	reducers    *ReducerRegistry

	maxConcurrency int
	observer       observability.Logger

	buildErrors []error
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		nodes:          map[string]node{},
		staticEdges:    map[string][]string{},
		conditional:    map[string]conditionalEdge{},
		reducers:       NewReducerRegistry(),
		maxConcurrency: defaultMaxConcurrency,
		observer:       observability.NoopLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddNode registers a named node. Names must be unique and may not collide
// with the Start and End sentinels.
func (b *Builder) AddNode(name string, fn NodeFunc) *Builder {
	if name == "" {
		b.buildErrors = append(b.buildErrors, errors.New("node name must not be empty"))
		return b
	}
	if name == Start || name == End {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node name %q is reserved", name))
		return b
	}
	if fn == nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node %q has a nil function", name))
		return b
	}
	if _, exists := b.nodes[name]; exists {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node %q is already registered", name))
		return b
	}

	b.nodes[name] = node{name: name, run: fn}
	b.order = append(b.order, name)
	return b
}

// AddEdge adds a static edge. Edges from Start define the initial frontier;
// edges to End are recorded but schedule nothing. A node with several
// incoming static edges acts as a barrier and runs once all of its activated
// predecessors have finished.
func (b *Builder) AddEdge(from, to string) *Builder {
	if from == End {
		b.buildErrors = append(b.buildErrors, errors.New("edges cannot leave the end node"))
		return b
	}
	if to == Start {
		b.buildErrors = append(b.buildErrors, errors.New("edges cannot enter the start node"))
		return b
	}
	if from == to {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("self edge on %q is not allowed", from))
		return b
	}

	b.staticEdges[from] = append(b.staticEdges[from], to)
	return b
}

// AddConditionalEdge attaches a router to a node. The router runs after the
// node's update is committed and must resolve to one of the declared
// targets, to the fallback, or to End. Fallback receives control when a
// dynamic decision carries no dispatches; pass End when an empty fan-out
// should finish the run.
func (b *Builder) AddConditionalEdge(from string, router Router, targets []string, fallback string) *Builder {
	if router == nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("conditional edge from %q has a nil router", from))
		return b
	}
	if _, exists := b.conditional[from]; exists {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node %q already has a conditional edge", from))
		return b
	}
	if len(targets) == 0 {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("conditional edge from %q declares no targets", from))
		return b
	}
	if fallback == "" {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("conditional edge from %q declares no fallback", from))
		return b
	}

	targetSet := make(map[string]bool, len(targets)+2)
	for _, target := range targets {
		targetSet[target] = true
	}
	targetSet[fallback] = true
	targetSet[End] = true

	b.conditional[from] = conditionalEdge{router: router, targets: targetSet, fallback: fallback}
	return b
}

// RegisterReducer binds a reducer to a state key.
func (b *Builder) RegisterReducer(key string, reducer Reducer) *Builder {
	if reducer == nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("reducer for key %q is nil", key))
		return b
	}
	b.reducers.Register(key, reducer)
	return b
}

// Build validates the accumulated graph and returns it. All wiring errors
// collected so far are joined into a single error.
func (b *Builder) Build() (*Graph, error) {
	errs := append([]error{}, b.buildErrors...)

	if len(b.staticEdges[Start]) == 0 {
		errs = append(errs, errors.New("graph has no entry edge from the start node"))
	}

	known := func(name string) bool {
		if name == Start || name == End {
			return true
		}
		_, ok := b.nodes[name]
		return ok
	}

	for from, tos := range b.staticEdges {
		if !known(from) {
			errs = append(errs, fmt.Errorf("edge references unknown node %q", from))
		}
		for _, to := range tos {
			if !known(to) {
				errs = append(errs, fmt.Errorf("edge from %q references unknown node %q", from, to))
			}
		}
	}

	for from, edge := range b.conditional {
		if !known(from) {
			errs = append(errs, fmt.Errorf("conditional edge references unknown node %q", from))
		}
		for target := range edge.targets {
			if !known(target) {
				errs = append(errs, fmt.Errorf("conditional edge from %q references unknown target %q", from, target))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	predecessors := map[string][]string{}
	for from, tos := range b.staticEdges {
		if from == Start {
			continue
		}
		for _, to := range tos {
			if to == End {
				continue
			}
			predecessors[to] = append(predecessors[to], from)
		}
	}

	return &Graph{
		nodes:          b.nodes,
		order:          b.order,
		staticEdges:    b.staticEdges,
		predecessors:   predecessors,
		conditional:    b.conditional,
		reducers:       b.reducers,
		maxConcurrency: b.maxConcurrency,
		observer:       b.observer,
	}, nil
}
