package executor

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/toposcope/internal/ctxlog"
	"github.com/vk/toposcope/internal/dag"
	"github.com/vk/toposcope/internal/enumerator"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/sink"
)

var (
	// ErrAlreadyRunning is returned by Start while a run is alive.
	ErrAlreadyRunning = errors.New("an enumeration is already running")
	// ErrEmptyGraph is returned by Start when the graph has no nodes.
	ErrEmptyGraph = errors.New("graph has no nodes, add nodes first")
)

// State is the lifecycle state of a Controller.
type State int

const (
	// Idle means no run is alive.
	Idle State = iota
	// Running means a run goroutine is alive.
	Running
)

// String returns the lowercase name of the state.
func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Config holds the tunables of a Controller.
type Config struct {
	// Delay is the animation pause after every search step.
	Delay time.Duration
}

// run is the bookkeeping of one launched enumeration.
type run struct {
	id     string
	cancel context.CancelFunc
	stop   *enumerator.StopToken
	done   chan struct{}
	// discarded is set under Controller.mutex by HardReset.
	discarded bool
}

// closedChan is returned by Done when no run is alive.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Controller runs enumerations over one graph and publishes their progress
// to one sink.
type Controller struct {
	graph *graph.Model
	sink  *sink.Sink
	cfg   Config

	// lifecycle serialises Start and HardReset.
	lifecycle sync.Mutex

	mutex   sync.Mutex
	state   State
	current *run
	runID   string
	results [][]string
}

// New creates an Idle Controller.
func New(g *graph.Model, s *sink.Sink, cfg Config) *Controller {
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Controller{graph: g, sink: s, cfg: cfg}
}

// Start validates the graph and launches a run in the background. It
// returns the new run ID. ErrAlreadyRunning, ErrEmptyGraph and a
// *dag.CycleError all leave the Controller unchanged.
//
// The run outlives ctx; only its values (such as the logger) are inherited.
// Use HardReset to cancel it.
func (c *Controller) Start(ctx context.Context) (string, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.State() == Running {
		return "", ErrAlreadyRunning
	}
	if c.graph.Len() == 0 {
		return "", ErrEmptyGraph
	}
	if err := dag.Check(c.graph); err != nil {
		return "", err
	}

	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	runCtx = ctxlog.With(runCtx, "runID", id)
	r := &run{
		id:     id,
		cancel: cancel,
		stop:   &enumerator.StopToken{},
		done:   make(chan struct{}),
	}

	c.graph.ResetHighlights()
	c.mutex.Lock()
	c.state = Running
	c.current = r
	c.runID = id
	c.results = nil
	c.mutex.Unlock()

	ctxlog.FromContext(runCtx).Info("🚀 Enumeration started.", "nodes", c.graph.Len(), "delay", c.cfg.Delay)
	go c.execute(runCtx, r)
	return id, nil
}

// execute is the body of the run goroutine.
func (c *Controller) execute(ctx context.Context, r *run) {
	defer close(r.done)
	defer r.cancel()
	logger := ctxlog.FromContext(ctx)

	e := enumerator.New(c.graph, c.sink,
		enumerator.WithDelay(c.cfg.Delay),
		enumerator.WithRunID(r.id),
		// Start checked the graph under the lifecycle lock.
		enumerator.WithCheckedGraph(),
	)
	res, err := e.Run(ctx, r.stop)

	c.mutex.Lock()
	if !r.discarded {
		c.results = res.Orderings
	}
	if c.current == r {
		c.state = Idle
		c.current = nil
	}
	c.mutex.Unlock()

	switch {
	case errors.Is(err, context.Canceled):
		logger.Debug("Enumeration interrupted.", "steps", res.Steps)
	case err != nil:
		logger.Error("Enumeration failed.", "error", err)
	default:
		logger.Info("🏁 Enumeration finished.", "outcome", res.Outcome.String(), "orderings", len(res.Orderings))
	}
}

// RequestSoftStop asks the current run to stop at its next pause. Orderings
// found so far are kept. It is a no-op when Idle.
func (c *Controller) RequestSoftStop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.current != nil {
		c.current.stop.Request()
	}
}

// HardReset cancels the current run, if any, and waits for its goroutine to
// exit. Afterwards the result set is empty, every node is Neutral, a reset
// snapshot has been published and the Controller is Idle. It is valid in
// any state.
func (c *Controller) HardReset() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mutex.Lock()
	r := c.current
	if r != nil {
		r.discarded = true
	}
	c.results = nil
	c.mutex.Unlock()

	if r != nil {
		r.cancel()
		<-r.done
	}

	c.graph.ResetHighlights()
	c.mutex.Lock()
	c.state = Idle
	c.current = nil
	id := c.runID
	c.mutex.Unlock()

	c.sink.Reset(id)
}

// Done returns a channel that is closed when the current run has ended. It
// is already closed when no run is alive.
func (c *Controller) Done() <-chan struct{} {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.current == nil {
		return closedChan
	}
	return c.current.done
}

// Wait blocks until the current run has ended or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

// Results returns a copy of the orderings of the last finished run.
func (c *Controller) Results() [][]string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	out := make([][]string, len(c.results))
	for i, o := range c.results {
		out[i] = slices.Clone(o)
	}
	return out
}

// RunID returns the ID of the current or most recent run.
func (c *Controller) RunID() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.runID
}
