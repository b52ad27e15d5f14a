package stategraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minsupark/paperlens/providers/observability"
)

// invocation is one node instance scheduled into a superstep. Dynamic
// instances carry their dispatch sub-state as input instead of the shared
// run state.
type invocation struct {
	node    string
	input   State
	dynamic bool
}

type invocationResult struct {
	update  Update
	dropped bool
}

// Run executes the graph to completion and returns the final state.
//
// Execution proceeds in supersteps: every scheduled instance of the current
// frontier runs in parallel against the same pre-superstep snapshot, all
// updates are committed through the reducers in frontier order, and only
// then are routers evaluated against the committed state to form the next
// frontier. A failing node aborts the run with a RunError unless it is a
// dynamic fan-out instance, in which case its contribution is dropped and
// its siblings proceed.
func (g *Graph) Run(ctx context.Context, initial State) (State, error) {
	runID := uuid.NewString()
	started := time.Now()

	state := initial.Clone()
	if state == nil {
		state = State{}
	}

	activated := map[string]bool{}
	completed := map[string]bool{}
	var pendingOrder []string
	pendingSet := map[string]bool{}

	var frontier []invocation
	for _, entry := range g.staticEdges[Start] {
		if entry == End {
			continue
		}
		frontier = append(frontier, invocation{node: entry, input: state})
		activated[entry] = true
	}

	g.observer.Info(ctx, "graph run started",
		observability.String("run_id", runID),
		observability.Int("entry_nodes", len(frontier)),
	)

	superstep := 0
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g.observer.Debug(ctx, "superstep started",
			observability.String("run_id", runID),
			observability.Int("superstep", superstep),
			observability.Int("frontier_size", len(frontier)),
		)

		results, err := g.executeSuperstep(ctx, runID, superstep, frontier, state)
		if err != nil {
			return nil, err
		}

		// Commit all surviving updates in frontier order before any router
		// observes the state.
		for _, result := range results {
			if result.dropped || result.update == nil {
				continue
			}
			state = state.Apply(result.update, g.reducers)
		}

		finished := map[string]bool{}
		var finishedOrder []string
		for _, inv := range frontier {
			if !finished[inv.node] {
				finished[inv.node] = true
				finishedOrder = append(finishedOrder, inv.node)
			}
			completed[inv.node] = true
		}

		trigger := func(target string) {
			if target == End {
				return
			}
			activated[target] = true
			if !pendingSet[target] {
				pendingSet[target] = true
				pendingOrder = append(pendingOrder, target)
			}
		}

		var dynamicNext []invocation
		for _, name := range finishedOrder {
			for _, to := range g.staticEdges[name] {
				trigger(to)
			}

			edge, ok := g.conditional[name]
			if !ok {
				continue
			}

			decision := edge.router(state)
			if decision.IsDynamic() {
				dispatches := decision.Dispatches()
				if len(dispatches) == 0 {
					trigger(edge.fallback)
					continue
				}
				for _, dispatch := range dispatches {
					if !edge.targets[dispatch.Target] {
						return nil, fmt.Errorf("router on %q dispatched to undeclared target %q", name, dispatch.Target)
					}
					dynamicNext = append(dynamicNext, invocation{
						node:    dispatch.Target,
						input:   dispatch.SubState.Clone(),
						dynamic: true,
					})
					activated[dispatch.Target] = true
				}
				continue
			}

			for _, target := range decision.Targets() {
				if !edge.targets[target] {
					return nil, fmt.Errorf("router on %q returned undeclared target %q", name, target)
				}
				trigger(target)
			}
		}

		next := dynamicNext

		// A pending node runs once every activated static predecessor has
		// finished. Predecessors that were never activated this run are not
		// waited on.
		var stillPending []string
		for _, target := range pendingOrder {
			ready := true
			for _, pred := range g.predecessors[target] {
				if activated[pred] && !completed[pred] {
					ready = false
					break
				}
			}
			if !ready {
				stillPending = append(stillPending, target)
				continue
			}
			delete(pendingSet, target)
			delete(completed, target)
			next = append(next, invocation{node: target, input: state})
		}
		pendingOrder = stillPending

		if len(next) == 0 && len(pendingOrder) > 0 {
			return nil, fmt.Errorf("graph stalled: pending nodes %v are waiting on predecessors that will never run", pendingOrder)
		}

		frontier = next
		superstep++
	}

	g.observer.Info(ctx, "graph run finished",
		observability.String("run_id", runID),
		observability.Int("supersteps", superstep),
		observability.Duration("elapsed", time.Since(started)),
	)

	return state, nil
}

// executeSuperstep runs every invocation of the frontier concurrently,
// bounded by the configured concurrency limit. The first plain node failure
// cancels the superstep and is returned after all workers drain. Failures of
// dynamic instances only mark their result dropped.
func (g *Graph) executeSuperstep(ctx context.Context, runID string, superstep int, frontier []invocation, snapshot State) ([]invocationResult, error) {
	results := make([]invocationResult, len(frontier))

	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, g.maxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var runErr error

	for i := range frontier {
		wg.Add(1)
		go func(index int, inv invocation) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-stepCtx.Done():
				results[index].dropped = true
				return
			}

			input := inv.input
			if input == nil {
				input = snapshot
			}

			nodeStart := time.Now()
			update, err := g.nodes[inv.node].run(stepCtx, input)
			if err != nil {
				if inv.dynamic {
					g.observer.Warn(stepCtx, "fan-out instance failed, dropping its contribution",
						observability.String("run_id", runID),
						observability.Int("superstep", superstep),
						observability.String("node", inv.node),
						observability.Error(err),
					)
					results[index].dropped = true
					return
				}

				g.observer.Error(stepCtx, "node failed, aborting run",
					observability.String("run_id", runID),
					observability.Int("superstep", superstep),
					observability.String("node", inv.node),
					observability.Error(err),
				)
				mu.Lock()
				if runErr == nil {
					runErr = &RunError{Node: inv.node, Err: err}
				}
				mu.Unlock()
				cancel()
				return
			}

			g.observer.Debug(stepCtx, "node finished",
				observability.String("run_id", runID),
				observability.Int("superstep", superstep),
				observability.String("node", inv.node),
				observability.Duration("elapsed", time.Since(nodeStart)),
			)
			results[index].update = update
		}(i, frontier[i])
	}

	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
