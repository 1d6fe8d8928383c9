package sink

import "slices"

// Kind names the search event that produced a snapshot.
type Kind string

const (
	// KindIdle is the zero-state snapshot before anything was published.
	KindIdle Kind = "idle"
	// KindStarted is published once when a run begins.
	KindStarted Kind = "started"
	// KindEnter is published after a node was pushed onto the partial ordering.
	KindEnter Kind = "enter"
	// KindLeave is published after a node was popped while backtracking.
	KindLeave Kind = "leave"
	// KindFound is published after a complete ordering was appended to the results.
	KindFound Kind = "found"
	// KindCompleted is published when the search tree was exhausted.
	KindCompleted Kind = "completed"
	// KindStopped is published when a soft stop ended the run.
	KindStopped Kind = "stopped"
	// KindAborted is published when the run was interrupted by a hard reset.
	KindAborted Kind = "aborted"
	// KindReset is published after a hard reset discarded all state.
	KindReset Kind = "reset"
)

// Terminal reports whether k ends a run.
func (k Kind) Terminal() bool {
	switch k {
	case KindCompleted, KindStopped, KindAborted, KindReset:
		return true
	default:
		return false
	}
}

// Snapshot is an immutable view of the search at one step.
type Snapshot struct {
	// RunID identifies the enumeration run that produced the snapshot.
	RunID string `json:"run_id,omitempty"`
	// Seq is assigned by the Sink and increases with every publication.
	Seq uint64 `json:"seq"`
	// Kind is the event that produced this snapshot.
	Kind Kind `json:"kind"`
	// Node is the label the event is about, if any.
	Node string `json:"node,omitempty"`
	// Results holds every complete ordering found so far, in discovery order.
	Results [][]string `json:"results"`
	// PartialOrder is the ordering currently being explored.
	PartialOrder []string `json:"partial_order"`
	// Highlighted lists the labels of all Active nodes.
	Highlighted []string `json:"highlighted"`
	// Running is true while the run that produced the snapshot is alive.
	Running bool `json:"running"`
}

// clone returns a copy of s that shares no slice headers with it.
func (s Snapshot) clone() Snapshot {
	s.Results = slices.Clip(slices.Clone(s.Results))
	s.PartialOrder = slices.Clone(s.PartialOrder)
	s.Highlighted = slices.Clone(s.Highlighted)
	return s
}
