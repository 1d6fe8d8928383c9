// Package render turns a graph layout and a search snapshot into something a
// person can look at: a plain-text frame for terminals and a Graphviz DOT
// document whose active nodes are coloured.
package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	dgraph "github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/sink"
)

// Colours used for node states in DOT output.
const (
	ActiveColor  = "red"
	NeutralColor = "black"
)

// Text writes a human readable frame for snap. Active nodes carry a
// trailing asterisk.
func Text(w io.Writer, layout graph.Layout, snap sink.Snapshot) error {
	var b strings.Builder

	state := "idle"
	if snap.Running {
		state = "running"
	}
	fmt.Fprintf(&b, "[%s] %s", state, snap.Kind)
	if snap.Node != "" {
		fmt.Fprintf(&b, " %s", snap.Node)
	}
	fmt.Fprintf(&b, " (seq %d)\n", snap.Seq)

	nodes := make([]string, 0, len(layout.Nodes))
	for _, n := range layout.Nodes {
		if slices.Contains(snap.Highlighted, n) {
			n += "*"
		}
		nodes = append(nodes, n)
	}
	fmt.Fprintf(&b, "nodes: %s\n", orNone(strings.Join(nodes, " ")))

	edges := make([]string, 0, len(layout.Edges))
	for _, e := range layout.Edges {
		edges = append(edges, e[0]+"->"+e[1])
	}
	fmt.Fprintf(&b, "edges: %s\n", orNone(strings.Join(edges, " ")))

	if snap.Running {
		fmt.Fprintf(&b, "order: %s\n", orNone(strings.Join(snap.PartialOrder, " ")))
	}

	fmt.Fprintf(&b, "found: %d\n", len(snap.Results))
	for i, r := range snap.Results {
		fmt.Fprintf(&b, "%4d. %s\n", i+1, strings.Join(r, " "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// DOT writes layout as a Graphviz digraph. Nodes listed in
// snap.Highlighted are drawn in ActiveColor.
func DOT(w io.Writer, layout graph.Layout, snap sink.Snapshot) error {
	g := dgraph.New(dgraph.StringHash, dgraph.Directed())

	for _, n := range layout.Nodes {
		color := NeutralColor
		if slices.Contains(snap.Highlighted, n) {
			color = ActiveColor
		}
		if err := g.AddVertex(n, dgraph.VertexAttribute("color", color)); err != nil {
			return fmt.Errorf("failed to add vertex %q: %w", n, err)
		}
	}
	for _, e := range layout.Edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return fmt.Errorf("failed to add edge %s -> %s: %w", e[0], e[1], err)
		}
	}

	return draw.DOT(g, w, draw.GraphAttribute("label", dotLabel(snap)))
}

// dotLabel summarises the snapshot for the graph caption.
func dotLabel(snap sink.Snapshot) string {
	label := fmt.Sprintf("%s, %d found", snap.Kind, len(snap.Results))
	if snap.Running && len(snap.PartialOrder) > 0 {
		label += ", order " + strings.Join(snap.PartialOrder, " ")
	}
	return label
}
