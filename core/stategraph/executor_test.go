package stategraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// runCounter counts node executions across goroutines.
type runCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRunCounter() *runCounter {
	return &runCounter{counts: map[string]int{}}
}

func (r *runCounter) node(name string, update Update) NodeFunc {
	return func(ctx context.Context, state State) (Update, error) {
		r.mu.Lock()
		r.counts[name]++
		r.mu.Unlock()
		return update, nil
	}
}

func (r *runCounter) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

func TestRunLinearGraph(t *testing.T) {
	counter := newRunCounter()

	graph, err := NewBuilder().
		AddNode("first", counter.node("first", Update{"first": "done"})).
		AddNode("second", counter.node("second", Update{"second": "done"})).
		AddEdge(Start, "first").
		AddEdge("first", "second").
		AddEdge("second", End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	final, err := graph.Run(context.Background(), State{"input": "x"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if final.GetString("first") != "done" || final.GetString("second") != "done" {
		t.Errorf("unexpected final state: %v", final)
	}
	if counter.count("first") != 1 || counter.count("second") != 1 {
		t.Errorf("unexpected execution counts: %v", counter.counts)
	}
}

func TestRunParallelSiblingsMergeThroughReducer(t *testing.T) {
	makeWriter := func(key, value string) NodeFunc {
		return func(ctx context.Context, state State) (Update, error) {
			return Update{"analyses": map[string]string{key: value}}, nil
		}
	}

	graph, err := NewBuilder().
		AddNode("fan", passthrough).
		AddNode("left", makeWriter("left", "l")).
		AddNode("right", makeWriter("right", "r")).
		AddNode("join", passthrough).
		AddEdge(Start, "fan").
		AddEdge("fan", "left").
		AddEdge("fan", "right").
		AddEdge("left", "join").
		AddEdge("right", "join").
		AddEdge("join", End).
		RegisterReducer("analyses", MergeStringMaps).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	final, err := graph.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	analyses := final.GetStringMap("analyses")
	if analyses["left"] != "l" || analyses["right"] != "r" {
		t.Errorf("sibling contributions not merged: %v", analyses)
	}
}

// Siblings of the same superstep read the pre-superstep snapshot, never each
// other's writes.
func TestRunSiblingsCannotSeeEachOthersWrites(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}

	makeSpy := func(name string) NodeFunc {
		return func(ctx context.Context, state State) (Update, error) {
			mu.Lock()
			seen[name] = state.GetString("marker")
			mu.Unlock()
			return Update{"marker": name}, nil
		}
	}

	graph, err := NewBuilder().
		AddNode("fan", passthrough).
		AddNode("left", makeSpy("left")).
		AddNode("right", makeSpy("right")).
		AddEdge(Start, "fan").
		AddEdge("fan", "left").
		AddEdge("fan", "right").
		AddEdge("left", End).
		AddEdge("right", End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := graph.Run(context.Background(), State{"marker": "initial"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if seen["left"] != "initial" || seen["right"] != "initial" {
		t.Errorf("siblings observed in-superstep writes: %v", seen)
	}
}

// A barrier node with staggered predecessors runs exactly once, after both
// have finished.
func TestRunFanInBarrierWaitsForSlowPredecessor(t *testing.T) {
	counter := newRunCounter()

	slow := func(ctx context.Context, state State) (Update, error) {
		time.Sleep(30 * time.Millisecond)
		return Update{"slow": "done"}, nil
	}

	graph, err := NewBuilder().
		AddNode("fan", passthrough).
		AddNode("fast", counter.node("fast", Update{"fast": "done"})).
		AddNode("slow", slow).
		AddNode("join", counter.node("join", nil)).
		AddEdge(Start, "fan").
		AddEdge("fan", "fast").
		AddEdge("fan", "slow").
		AddEdge("fast", "join").
		AddEdge("slow", "join").
		AddEdge("join", End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	final, err := graph.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counter.count("join") != 1 {
		t.Errorf("join ran %d times, want 1", counter.count("join"))
	}
	if final.GetString("slow") != "done" {
		t.Error("join ran before the slow predecessor committed")
	}
}

// With paths of unequal length (a -> c and a -> b -> c) the barrier holds c
// until b has finished, and c still runs exactly once.
func TestRunBarrierAcrossUnequalPathLengths(t *testing.T) {
	counter := newRunCounter()
	var order []string
	var mu sync.Mutex
	record := func(name string) NodeFunc {
		return func(ctx context.Context, state State) (Update, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}
	}

	graph, err := NewBuilder().
		AddNode("a", record("a")).
		AddNode("b", record("b")).
		AddNode("c", counter.node("c", nil)).
		AddEdge(Start, "a").
		AddEdge("a", "b").
		AddEdge("a", "c").
		AddEdge("b", "c").
		AddEdge("c", End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := graph.Run(context.Background(), State{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counter.count("c") != 1 {
		t.Errorf("c ran %d times, want 1", counter.count("c"))
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("unexpected execution order: %v", order)
	}
}

// A barrier only waits for predecessors that actually ran this run.
func TestRunBarrierIgnoresInactivePredecessors(t *testing.T) {
	counter := newRunCounter()

	graph, err := NewBuilder().
		AddNode("pick", passthrough).
		AddNode("taken", counter.node("taken", nil)).
		AddNode("skipped", counter.node("skipped", nil)).
		AddNode("join", counter.node("join", nil)).
		AddEdge(Start, "pick").
		AddEdge("taken", "join").
		AddEdge("skipped", "join").
		AddEdge("join", End).
		AddConditionalEdge("pick", func(State) RouteDecision {
			return RouteTo("taken")
		}, []string{"taken", "skipped"}, End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := graph.Run(context.Background(), State{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counter.count("join") != 1 {
		t.Errorf("join ran %d times, want 1", counter.count("join"))
	}
	if counter.count("skipped") != 0 {
		t.Error("untaken branch must not run")
	}
}

// Dynamic dispatch instances see only their dispatch sub-state.
func TestRunDynamicDispatchIsolatesSubState(t *testing.T) {
	var mu sync.Mutex
	var sections []string
	var leaked bool

	worker := func(ctx context.Context, state State) (Update, error) {
		mu.Lock()
		defer mu.Unlock()
		sections = append(sections, state.GetString("section"))
		if _, ok := state.Get("shared_secret"); ok {
			leaked = true
		}
		return Update{"analyses": map[string]string{state.GetString("section"): "ok"}}, nil
	}

	graph, err := NewBuilder().
		AddNode("plan", passthrough).
		AddNode("worker", worker).
		AddNode("join", passthrough).
		AddEdge(Start, "plan").
		AddEdge("worker", "join").
		AddEdge("join", End).
		AddConditionalEdge("plan", func(State) RouteDecision {
			return RouteDynamic([]Dispatch{
				{Target: "worker", SubState: State{"section": "methods"}},
				{Target: "worker", SubState: State{"section": "results"}},
				{Target: "worker", SubState: State{"section": "discussion"}},
			})
		}, []string{"worker"}, "join").
		RegisterReducer("analyses", MergeStringMaps).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	final, err := graph.Run(context.Background(), State{"shared_secret": "hidden"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if leaked {
		t.Error("dispatch instance observed the shared run state")
	}
	if len(sections) != 3 {
		t.Errorf("expected 3 worker instances, got %v", sections)
	}
	if got := final.GetStringMap("analyses"); len(got) != 3 {
		t.Errorf("expected 3 merged contributions, got %v", got)
	}
}

func TestRunEmptyDynamicDecisionUsesFallback(t *testing.T) {
	counter := newRunCounter()

	graph, err := NewBuilder().
		AddNode("plan", passthrough).
		AddNode("worker", counter.node("worker", nil)).
		AddNode("fallback", counter.node("fallback", nil)).
		AddEdge(Start, "plan").
		AddEdge("worker", End).
		AddEdge("fallback", End).
		AddConditionalEdge("plan", func(State) RouteDecision {
			return RouteDynamic(nil)
		}, []string{"worker"}, "fallback").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := graph.Run(context.Background(), State{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if counter.count("fallback") != 1 {
		t.Errorf("fallback ran %d times, want 1", counter.count("fallback"))
	}
	if counter.count("worker") != 0 {
		t.Error("worker must not run on an empty fan-out")
	}
}

// A failing dispatch instance is dropped while its siblings commit.
func TestRunDroppedDispatchInstanceDoesNotAbort(t *testing.T) {
	worker := func(ctx context.Context, state State) (Update, error) {
		section := state.GetString("section")
		if section == "broken" {
			return nil, errors.New("model refused")
		}
		return Update{"analyses": map[string]string{section: "ok"}}, nil
	}

	graph, err := NewBuilder().
		AddNode("plan", passthrough).
		AddNode("worker", worker).
		AddNode("join", passthrough).
		AddEdge(Start, "plan").
		AddEdge("worker", "join").
		AddEdge("join", End).
		AddConditionalEdge("plan", func(State) RouteDecision {
			return RouteDynamic([]Dispatch{
				{Target: "worker", SubState: State{"section": "methods"}},
				{Target: "worker", SubState: State{"section": "broken"}},
				{Target: "worker", SubState: State{"section": "results"}},
			})
		}, []string{"worker"}, "join").
		RegisterReducer("analyses", MergeStringMaps).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	final, err := graph.Run(context.Background(), State{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	analyses := final.GetStringMap("analyses")
	if len(analyses) != 2 {
		t.Errorf("expected 2 surviving contributions, got %v", analyses)
	}
	if _, ok := analyses["broken"]; ok {
		t.Error("failed instance's contribution must be dropped")
	}
}

func TestRunPlainNodeFailureAbortsWithRunError(t *testing.T) {
	sentinel := errors.New("conversion failed")

	graph, err := NewBuilder().
		AddNode("broken", func(ctx context.Context, state State) (Update, error) {
			return nil, sentinel
		}).
		AddNode("after", passthrough).
		AddEdge(Start, "broken").
		AddEdge("broken", "after").
		AddEdge("after", End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err = graph.Run(context.Background(), State{})
	if err == nil {
		t.Fatal("expected run to abort")
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunError, got %T", err)
	}
	if runErr.Node != "broken" {
		t.Errorf("unexpected failing node: %q", runErr.Node)
	}
	if !errors.Is(err, sentinel) {
		t.Error("RunError should unwrap to the node error")
	}
}

func TestRunRouterToUndeclaredTargetFails(t *testing.T) {
	graph, err := NewBuilder().
		AddNode("a", passthrough).
		AddNode("b", passthrough).
		AddNode("c", passthrough).
		AddEdge(Start, "a").
		AddEdge("b", End).
		AddEdge("c", End).
		AddConditionalEdge("a", func(State) RouteDecision {
			return RouteTo("c")
		}, []string{"b"}, End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := graph.Run(context.Background(), State{}); err == nil {
		t.Fatal("expected undeclared target error")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	graph, err := NewBuilder().
		AddNode("a", func(ctx context.Context, state State) (Update, error) {
			cancel()
			return nil, nil
		}).
		AddNode("b", passthrough).
		AddEdge(Start, "a").
		AddEdge("a", "b").
		AddEdge("b", End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := graph.Run(ctx, State{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunDoesNotMutateInitialState(t *testing.T) {
	graph, err := NewBuilder().
		AddNode("a", func(ctx context.Context, state State) (Update, error) {
			return Update{"written": true}, nil
		}).
		AddEdge(Start, "a").
		AddEdge("a", End).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	initial := State{"input": "x"}
	if _, err := graph.Run(context.Background(), initial); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, ok := initial.Get("written"); ok {
		t.Error("run mutated the caller's initial state")
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0

	worker := func(ctx context.Context, state State) (Update, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil, nil
	}

	builder := NewBuilder(WithMaxConcurrency(2)).
		AddNode("fan", passthrough).
		AddEdge(Start, "fan")
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("w%d", i)
		builder.AddNode(name, worker).
			AddEdge("fan", name).
			AddEdge(name, End)
	}

	graph, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := graph.Run(context.Background(), State{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if peak > 2 {
		t.Errorf("concurrency limit exceeded: peak %d", peak)
	}
}
