package graph

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// New creates and returns an initialized, empty Model.
func New() *Model {
	return &Model{
		byLabel: make(map[string]*Node),
		edgeSet: make(map[edgeKey]struct{}),
		out:     make(map[*Node][]*Node),
	}
}

// AddNode creates a Neutral node with the given label. It fails with
// ErrDuplicateLabel if any existing node already uses that label.
func (m *Model) AddNode(label string) (*Node, error) {
	if strings.TrimSpace(label) == "" {
		return nil, ErrEmptyLabel
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.byLabel[label]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	}

	n := &Node{label: label}
	m.nodes = append(m.nodes, n)
	m.byLabel[label] = n
	return n, nil
}

// Lookup returns the node with the given label.
func (m *Model) Lookup(label string) (*Node, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	n, ok := m.byLabel[label]
	return n, ok
}

// RemoveNode removes the node and every edge that has it as an endpoint.
func (m *Model) RemoveNode(n *Node) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.owns(n) {
		return fmt.Errorf("%w: %v", ErrUnknownNode, n)
	}

	m.nodes = slices.DeleteFunc(m.nodes, func(x *Node) bool { return x == n })
	delete(m.byLabel, n.label)
	delete(m.out, n)

	kept := make([]Edge, 0, len(m.edges))
	for _, e := range m.edges {
		if e.From == n || e.To == n {
			delete(m.edgeSet, edgeKey{e.From, e.To})
			if e.To == n && e.From != n {
				m.dropSuccessor(e.From, n)
			}
			continue
		}
		kept = append(kept, e)
	}
	m.edges = kept
	return nil
}

// ToggleEdge removes the edge from -> to if it exists and inserts it
// otherwise. It reports whether the edge is present after the call. The
// reverse edge to -> from is independent and is never touched.
func (m *Model) ToggleEdge(from, to *Node) (bool, error) {
	if from == to {
		return false, fmt.Errorf("%w: %v -> %v", ErrSelfLoop, from, to)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.owns(from) {
		return false, fmt.Errorf("%w: source %v", ErrUnknownNode, from)
	}
	if !m.owns(to) {
		return false, fmt.Errorf("%w: destination %v", ErrUnknownNode, to)
	}

	key := edgeKey{from, to}
	if _, ok := m.edgeSet[key]; ok {
		delete(m.edgeSet, key)
		m.edges = slices.DeleteFunc(m.edges, func(e Edge) bool {
			return e.From == from && e.To == to
		})
		m.dropSuccessor(from, to)
		return false, nil
	}

	m.edgeSet[key] = struct{}{}
	m.edges = append(m.edges, Edge{From: from, To: to})
	// Full slice expression forces a copy, Successors may hold the old header.
	succ := m.out[from]
	m.out[from] = append(succ[:len(succ):len(succ)], to)
	return true, nil
}

// HasEdge reports whether the directed edge from -> to exists.
func (m *Model) HasEdge(from, to *Node) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.edgeSet[edgeKey{from, to}]
	return ok
}

// InDegreeSnapshot returns the number of incoming edges of every node. It is
// computed fresh on every call.
func (m *Model) InDegreeSnapshot() map[*Node]int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	inDegree := make(map[*Node]int, len(m.nodes))
	for _, n := range m.nodes {
		inDegree[n] = 0
	}
	for _, e := range m.edges {
		inDegree[e.To]++
	}
	return inDegree
}

// Successors yields every node reachable from n over one outgoing edge, in
// edge insertion order. The sequence is lazy and reads the edge set as it
// was when iteration started.
func (m *Model) Successors(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		m.mutex.RLock()
		succ := m.out[n]
		m.mutex.RUnlock()

		for _, s := range succ {
			if !yield(s) {
				return
			}
		}
	}
}

// Nodes returns all nodes in insertion order. The returned slice is a copy.
func (m *Model) Nodes() []*Node {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return slices.Clone(m.nodes)
}

// Edges returns all edges in insertion order. The returned slice is a copy.
func (m *Model) Edges() []Edge {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return slices.Clone(m.edges)
}

// Len returns the number of nodes.
func (m *Model) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.nodes)
}

// Clear removes every node and edge.
func (m *Model) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.nodes = nil
	m.edges = nil
	m.byLabel = make(map[string]*Node)
	m.edgeSet = make(map[edgeKey]struct{})
	m.out = make(map[*Node][]*Node)
}

// ResetHighlights sets every node back to Neutral.
func (m *Model) ResetHighlights() {
	for _, n := range m.Nodes() {
		n.SetHighlight(Neutral)
	}
}

// Highlighted returns the labels of all Active nodes in node order.
func (m *Model) Highlighted() []string {
	var labels []string
	for _, n := range m.Nodes() {
		if n.Highlight() == Active {
			labels = append(labels, n.label)
		}
	}
	return labels
}

// Layout returns a label-only copy of the current structure.
func (m *Model) Layout() Layout {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	l := Layout{
		Nodes: make([]string, 0, len(m.nodes)),
		Edges: make([][2]string, 0, len(m.edges)),
	}
	for _, n := range m.nodes {
		l.Nodes = append(l.Nodes, n.label)
	}
	for _, e := range m.edges {
		l.Edges = append(l.Edges, [2]string{e.From.label, e.To.label})
	}
	return l
}

// dropSuccessor replaces the successor list of from with a copy lacking to.
// Callers hold the mutex.
func (m *Model) dropSuccessor(from, to *Node) {
	succ := slices.DeleteFunc(slices.Clone(m.out[from]), func(x *Node) bool { return x == to })
	if len(succ) == 0 {
		delete(m.out, from)
		return
	}
	m.out[from] = succ
}

// owns reports whether n is a member of the model. Callers hold the mutex.
func (m *Model) owns(n *Node) bool {
	if n == nil {
		return false
	}
	return m.byLabel[n.label] == n
}
