package stategraph

import (
	"context"
	"fmt"

	"github.com/minsupark/paperlens/providers/observability"
)

const (
	// Start is the virtual entry node. Edges from Start define the initial
	// frontier of a run.
	Start = "__start__"
	// End is the virtual exit node. Routing to End schedules nothing.
	End = "__end__"
)

// NodeFunc is the unit of work attached to a graph node. It receives a
// read-only snapshot of the state and returns the partial update to commit.
type NodeFunc func(ctx context.Context, state State) (Update, error)

type node struct {
	name string
	run  NodeFunc
}

// conditionalEdge routes from a node after its update is committed. The
// declared targets bound what the router may return; fallback receives
// control when a dynamic decision carries no dispatches.
type conditionalEdge struct {
	router   Router
	targets  map[string]bool
	fallback string
}

// Graph is an immutable executable state graph built by a Builder.
type Graph struct {
	nodes        map[string]node
	order        []string
	staticEdges  map[string][]string
	predecessors map[string][]string
	conditional  map[string]conditionalEdge
	reducers     *ReducerRegistry

	maxConcurrency int
	observer       observability.Logger
}

// RunError wraps a node failure that aborted a run.
type RunError struct {
	Node string
	Err  error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
