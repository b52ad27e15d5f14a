// Package stategraph implements a superstep-scheduled state graph. Nodes
// read an immutable snapshot of a shared key-value state and return partial
// updates that are committed through per-key reducers between supersteps.
// Conditional edges route on the committed state and may fan out dynamically
// by dispatching node instances with explicit sub-states. Nodes with several
// incoming static edges act as barriers and run once all of their activated
// predecessors have finished.
package stategraph
