package enumerator

import (
	"context"
	"errors"
	"time"

	"github.com/vk/toposcope/internal/ctxlog"
	"github.com/vk/toposcope/internal/dag"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/sink"
)

// DefaultDelay is the animation pause used when no WithDelay option is given.
const DefaultDelay = time.Second

// errSoftStop unwinds the recursion after a StopToken was observed.
var errSoftStop = errors.New("enumeration stopped on request")

// Publisher receives a snapshot after every search step. *sink.Sink
// implements it.
type Publisher interface {
	Publish(snap sink.Snapshot)
}

// Outcome describes how a run ended.
type Outcome int

const (
	// Completed means the whole search tree was explored.
	Completed Outcome = iota
	// SoftStopped means a StopToken ended the run early.
	SoftStopped
	// Aborted means the context was cancelled.
	Aborted
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case SoftStopped:
		return "stopped"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Result is what a run produced before it ended.
type Result struct {
	// Orderings holds every complete topological ordering found, in
	// discovery order.
	Orderings [][]string
	// Outcome tells whether the search was exhaustive.
	Outcome Outcome
	// Steps counts how many times a node was pushed onto the partial ordering.
	Steps int
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithDelay sets the animation pause taken after every step. Zero disables
// the pause but keeps the cancellation checks.
func WithDelay(d time.Duration) Option {
	return func(e *Enumerator) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithRunID sets the run identifier stamped on every published snapshot.
func WithRunID(id string) Option {
	return func(e *Enumerator) {
		e.runID = id
	}
}

// WithCheckedGraph tells Run that the caller has already passed the graph
// through dag.Check and it has not changed since, so the check is skipped.
func WithCheckedGraph() Option {
	return func(e *Enumerator) {
		e.checked = true
	}
}

// Enumerator runs the backtracking search over one graph.
type Enumerator struct {
	graph   *graph.Model
	pub     Publisher
	delay   time.Duration
	runID   string
	checked bool
}

// discard is the Publisher used when none is given.
type discard struct{}

func (discard) Publish(sink.Snapshot) {}

// New creates an Enumerator for g that publishes to pub. A nil pub drops
// every snapshot.
func New(g *graph.Model, pub Publisher, opts ...Option) *Enumerator {
	if pub == nil {
		pub = discard{}
	}
	e := &Enumerator{graph: g, pub: pub, delay: DefaultDelay}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run enumerates every topological ordering of the graph. Unless built with
// WithCheckedGraph, it refuses cyclic graphs with a *dag.CycleError before
// touching any state.
//
// A requested stop ends the run at the next pause with a nil error and
// Outcome SoftStopped. A cancelled ctx interrupts the current pause and Run
// returns ctx.Err() with Outcome Aborted. In every case all nodes are
// Neutral again when Run returns.
func (e *Enumerator) Run(ctx context.Context, stop *StopToken) (Result, error) {
	if !e.checked {
		if err := dag.Check(e.graph); err != nil {
			return Result{}, err
		}
	}

	logger := ctxlog.FromContext(ctx)
	s := newSearch(e, stop)
	defer s.clearHighlights()

	logger.Debug("Enumeration started.", "nodes", len(s.nodes), "delay", e.delay)
	s.publish(sink.KindStarted, "")

	err := s.backtrack(ctx)
	res := Result{Orderings: s.results, Steps: s.steps}
	final := sink.KindCompleted
	switch {
	case err == nil:
		res.Outcome = Completed
	case errors.Is(err, errSoftStop):
		res.Outcome = SoftStopped
		final = sink.KindStopped
		err = nil
	default:
		res.Outcome = Aborted
		final = sink.KindAborted
	}

	s.clearHighlights()
	s.order = s.order[:0]
	s.publishFinal(final)

	logger.Debug("Enumeration finished.", "outcome", res.Outcome.String(), "orderings", len(res.Orderings), "steps", res.Steps)
	return res, err
}

// search is the private, per-run state of one enumeration.
type search struct {
	e    *Enumerator
	stop *StopToken

	nodes    []*graph.Node
	succ     [][]int
	inDegree []int
	used     []bool
	order    []int

	results [][]string
	steps   int
}

// newSearch captures the graph structure as index slices, in node order.
func newSearch(e *Enumerator, stop *StopToken) *search {
	nodes := e.graph.Nodes()
	index := make(map[*graph.Node]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	deg := e.graph.InDegreeSnapshot()
	s := &search{
		e:        e,
		stop:     stop,
		nodes:    nodes,
		succ:     make([][]int, len(nodes)),
		inDegree: make([]int, len(nodes)),
		used:     make([]bool, len(nodes)),
		order:    make([]int, 0, len(nodes)),
	}
	for i, n := range nodes {
		s.inDegree[i] = deg[n]
		for next := range e.graph.Successors(n) {
			s.succ[i] = append(s.succ[i], index[next])
		}
	}
	return s
}

// backtrack explores every extension of the current partial ordering.
func (s *search) backtrack(ctx context.Context) error {
	if len(s.order) == len(s.nodes) {
		found := s.labels()
		s.results = append(s.results, found)
		ctxlog.FromContext(ctx).Debug("Ordering found.", "index", len(s.results), "order", found)
		last := ""
		if len(found) > 0 {
			last = found[len(found)-1]
		}
		s.publish(sink.KindFound, last)
		return s.pause(ctx)
	}

	for i := range s.nodes {
		if s.used[i] || s.inDegree[i] != 0 {
			continue
		}
		if err := s.descend(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// descend places node i, explores below it and takes it back.
func (s *search) descend(ctx context.Context, i int) error {
	s.used[i] = true
	s.order = append(s.order, i)
	s.nodes[i].SetHighlight(graph.Active)
	s.steps++
	s.publish(sink.KindEnter, s.nodes[i].Label())
	if err := s.pause(ctx); err != nil {
		s.retract(i)
		return err
	}

	s.release(i)
	err := s.backtrack(ctx)
	s.restore(i)
	s.retract(i)
	if err != nil {
		return err
	}

	s.publish(sink.KindLeave, s.nodes[i].Label())
	return s.pause(ctx)
}

// release decrements the in-degree of every successor of i.
func (s *search) release(i int) {
	for _, j := range s.succ[i] {
		if s.inDegree[j] == 0 {
			panic("enumerator: in-degree of " + s.nodes[j].Label() + " is already zero")
		}
		s.inDegree[j]--
	}
}

// restore undoes release(i).
func (s *search) restore(i int) {
	for _, j := range s.succ[i] {
		s.inDegree[j]++
	}
}

// retract pops i off the partial ordering and returns it to Neutral.
func (s *search) retract(i int) {
	s.used[i] = false
	s.order = s.order[:len(s.order)-1]
	s.nodes[i].SetHighlight(graph.Neutral)
}

// pause sleeps for the animation delay and then checks both cancellation
// signals. A cancelled ctx interrupts the sleep.
func (s *search) pause(ctx context.Context) error {
	if s.e.delay > 0 {
		timer := time.NewTimer(s.e.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.stop.Requested() {
		return errSoftStop
	}
	return nil
}

// labels returns a fresh copy of the partial ordering as labels.
func (s *search) labels() []string {
	out := make([]string, len(s.order))
	for k, i := range s.order {
		out[k] = s.nodes[i].Label()
	}
	return out
}

// highlighted returns the labels of Active nodes in node order.
func (s *search) highlighted() []string {
	var out []string
	for _, n := range s.nodes {
		if n.Highlight() == graph.Active {
			out = append(out, n.Label())
		}
	}
	return out
}

// clearHighlights returns every node of this run to Neutral.
func (s *search) clearHighlights() {
	for _, n := range s.nodes {
		n.SetHighlight(graph.Neutral)
	}
}

func (s *search) publish(kind sink.Kind, node string) {
	s.e.pub.Publish(sink.Snapshot{
		RunID:        s.e.runID,
		Kind:         kind,
		Node:         node,
		Results:      s.results,
		PartialOrder: s.labels(),
		Highlighted:  s.highlighted(),
		Running:      true,
	})
}

func (s *search) publishFinal(kind sink.Kind) {
	s.e.pub.Publish(sink.Snapshot{
		RunID:   s.e.runID,
		Kind:    kind,
		Results: s.results,
	})
}
