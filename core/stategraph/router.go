package stategraph

// Dispatch targets one node instance with an explicit input state. The
// instance sees only SubState, never the shared run state.
type Dispatch struct {
	Target   string
	SubState State
}

// RouteDecision is the outcome of a conditional edge. Exactly one variant is
// populated; construct decisions through RouteTo, RouteToAll or
// RouteDynamic.
type RouteDecision struct {
	single     string
	multi      []string
	dispatches []Dispatch
	dynamic    bool
}

// RouteTo activates a single named successor.
func RouteTo(target string) RouteDecision {
	return RouteDecision{single: target}
}

// RouteToAll activates every named successor in the next superstep.
func RouteToAll(targets ...string) RouteDecision {
	return RouteDecision{multi: targets}
}

// RouteDynamic fans out one node instance per dispatch. An empty dispatch
// list falls through to the edge's declared fallback node.
func RouteDynamic(dispatches []Dispatch) RouteDecision {
	return RouteDecision{dispatches: dispatches, dynamic: true}
}

// IsDynamic reports whether the decision is a dynamic fan-out.
func (d RouteDecision) IsDynamic() bool {
	return d.dynamic
}

// Targets returns the statically named successors of a non-dynamic decision.
func (d RouteDecision) Targets() []string {
	if d.dynamic {
		return nil
	}
	if d.single != "" {
		return []string{d.single}
	}
	return d.multi
}

// Dispatches returns the dispatch list of a dynamic decision.
func (d RouteDecision) Dispatches() []Dispatch {
	if !d.dynamic {
		return nil
	}
	return d.dispatches
}

// Router inspects the committed state after a node finishes and decides
// where execution goes next. Routers must be pure; they may be re-evaluated
// and must not mutate the state.
type Router func(state State) RouteDecision
