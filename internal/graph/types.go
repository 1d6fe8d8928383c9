package graph

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrDuplicateLabel is returned by AddNode when the label is already taken.
	ErrDuplicateLabel = errors.New("duplicate node label")
	// ErrEmptyLabel is returned by AddNode for blank labels.
	ErrEmptyLabel = errors.New("node label must not be empty")
	// ErrSelfLoop is returned by ToggleEdge when both endpoints are the same node.
	ErrSelfLoop = errors.New("self-referential edge not allowed")
	// ErrUnknownNode is returned when a node does not belong to the model.
	ErrUnknownNode = errors.New("node not found")
)

// Highlight is the visual state of a node during an enumeration run.
type Highlight int32

const (
	// Neutral is the resting state of every node outside a run.
	Neutral Highlight = iota
	// Active marks a node that is part of the partial ordering being explored.
	Active
)

// String returns the lowercase name of the highlight.
func (h Highlight) String() string {
	switch h {
	case Neutral:
		return "neutral"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Node is a single vertex of the graph. Its identity is its label.
type Node struct {
	// label is the unique, human-readable identifier of the node.
	label string
	// highlight is the node's current Highlight, managed atomically.
	highlight atomic.Int32
}

// Label returns the node's label.
func (n *Node) Label() string {
	return n.label
}

// Highlight atomically retrieves the node's highlight state.
func (n *Node) Highlight() Highlight {
	return Highlight(n.highlight.Load())
}

// SetHighlight atomically sets the node's highlight state.
func (n *Node) SetHighlight(h Highlight) {
	n.highlight.Store(int32(h))
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return n.label
}

// Edge is a directed edge between two distinct nodes of the same Model.
type Edge struct {
	From *Node
	To   *Node
}

// edgeKey identifies an edge by its ordered pair of endpoints.
type edgeKey struct {
	from, to *Node
}

// Layout is a label-only copy of the graph structure, used by renderers
// that must not hold references into the live Model.
type Layout struct {
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// Model is the editable directed graph. All operations on it are
// concurrency-safe.
type Model struct {
	// mutex protects nodes, byLabel, edges, edgeSet and out.
	mutex sync.RWMutex
	// nodes stores all nodes in insertion order.
	nodes []*Node
	// byLabel indexes nodes by their unique label.
	byLabel map[string]*Node
	// edges stores all edges in insertion order. Never handed out uncopied.
	edges []Edge
	// edgeSet answers edge membership in O(1).
	edgeSet map[edgeKey]struct{}
	// out lists the successors of every node in edge insertion order.
	// Slices are replaced, never mutated in place.
	out map[*Node][]*Node
}
