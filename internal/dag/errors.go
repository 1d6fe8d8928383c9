package dag

import (
	"errors"
	"strings"
)

// ErrCyclicGraph is returned when an operation requires an acyclic graph.
var ErrCyclicGraph = errors.New("graph contains a cycle")

// CycleError reports a rejected graph together with one offending cycle.
type CycleError struct {
	// Path is a closed walk, its first and last labels are equal. It may be
	// empty if no cycle path could be reconstructed.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCyclicGraph.Error()
	}
	return ErrCyclicGraph.Error() + ": " + strings.Join(e.Path, " -> ")
}

// Unwrap makes errors.Is(err, ErrCyclicGraph) hold.
func (e *CycleError) Unwrap() error {
	return ErrCyclicGraph
}

// Check returns nil for an acyclic graph and a *CycleError otherwise.
func Check(g Graph) error {
	if IsAcyclic(g) {
		return nil
	}
	return &CycleError{Path: FindCycle(g)}
}
