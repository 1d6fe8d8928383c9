// Package session is the single entry point through which editors and
// renderers talk to the enumeration engine. It owns one graph, one sink and
// one controller, and it guarantees that a running search is stopped before
// the graph it reads from is changed.
package session

import (
	"context"
	"sync"

	"github.com/vk/toposcope/internal/ctxlog"
	"github.com/vk/toposcope/internal/executor"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/sink"
)

// Session wires a graph.Model, a sink.Sink and an executor.Controller.
type Session struct {
	// mutex orders "stop the search" before "mutate the graph" and keeps
	// Start from slipping in between.
	mutex sync.Mutex

	graph *graph.Model
	sink  *sink.Sink
	ctrl  *executor.Controller
}

// New creates a Session with an empty graph.
func New(cfg executor.Config) *Session {
	g := graph.New()
	s := sink.New()
	return &Session{
		graph: g,
		sink:  s,
		ctrl:  executor.New(g, s, cfg),
	}
}

// stopForMutation hard-resets a live run. Callers hold s.mutex.
func (s *Session) stopForMutation(ctx context.Context, op string) {
	if s.ctrl.State() != executor.Running {
		return
	}
	ctxlog.FromContext(ctx).Debug("Run still alive, resetting first.", "op", op)
	s.ctrl.HardReset()
}

// AddNode adds a Neutral node with the given label.
func (s *Session) AddNode(ctx context.Context, label string) (*graph.Node, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopForMutation(ctx, "add")

	n, err := s.graph.AddNode(label)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Node added.", "label", label)
	return n, nil
}

// RemoveNode removes n and every edge touching it.
func (s *Session) RemoveNode(ctx context.Context, n *graph.Node) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopForMutation(ctx, "remove")

	if err := s.graph.RemoveNode(n); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Node removed.", "label", n.Label())
	return nil
}

// ToggleEdge inserts from -> to if absent and removes it otherwise. It
// reports whether the edge exists afterwards.
func (s *Session) ToggleEdge(ctx context.Context, from, to *graph.Node) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopForMutation(ctx, "edge")

	present, err := s.graph.ToggleEdge(from, to)
	if err != nil {
		return false, err
	}
	ctxlog.FromContext(ctx).Debug("Edge toggled.", "from", from.Label(), "to", to.Label(), "present", present)
	return present, nil
}

// Clear hard-resets the controller and empties the graph.
func (s *Session) Clear(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.ctrl.HardReset()
	s.graph.Clear()
	ctxlog.FromContext(ctx).Debug("Graph cleared.")
}

// Lookup returns the node with the given label.
func (s *Session) Lookup(label string) (*graph.Node, bool) {
	return s.graph.Lookup(label)
}

// Layout returns the current graph structure as labels.
func (s *Session) Layout() graph.Layout {
	return s.graph.Layout()
}

// RunEnumeration starts a background run and returns its ID.
func (s *Session) RunEnumeration(ctx context.Context) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.ctrl.Start(ctx)
}

// RequestSoftStop asks the current run to stop at its next pause.
func (s *Session) RequestSoftStop() {
	s.ctrl.RequestSoftStop()
}

// HardReset cancels the current run and discards its results.
func (s *Session) HardReset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ctrl.HardReset()
}

// Wait blocks until the current run has ended or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	return s.ctrl.Wait(ctx)
}

// State returns the controller state.
func (s *Session) State() executor.State {
	return s.ctrl.State()
}

// Results returns the orderings of the last finished run.
func (s *Session) Results() [][]string {
	return s.ctrl.Results()
}

// LatestSnapshot returns the most recently published snapshot.
func (s *Session) LatestSnapshot() sink.Snapshot {
	return s.sink.Latest()
}

// Subscribe registers a latest-wins snapshot subscriber.
func (s *Session) Subscribe() (<-chan sink.Snapshot, func()) {
	return s.sink.Subscribe()
}

// Close hard-resets a live run. Results of a finished run are kept and the
// Session stays usable.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Closing session.")
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stopForMutation(ctx, "close")
	return nil
}
