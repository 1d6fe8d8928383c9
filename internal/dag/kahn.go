package dag

import (
	"iter"

	"github.com/vk/toposcope/internal/graph"
)

// Graph is the read-only view of a graph.Model that the detector needs.
type Graph interface {
	Nodes() []*graph.Node
	InDegreeSnapshot() map[*graph.Node]int
	Successors(n *graph.Node) iter.Seq[*graph.Node]
}

// IsAcyclic reports whether g has no directed cycle, using Kahn's algorithm:
// seed a queue with every node of in-degree zero, repeatedly dequeue a node
// and release its successors, and compare the number of processed nodes with
// the node count. It works on a private copy of the in-degrees and never
// mutates g. Runs in O(V + E).
func IsAcyclic(g Graph) bool {
	nodes := g.Nodes()
	inDegree := g.InDegreeSnapshot()

	queue := make([]*graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	processed := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		processed++

		for next := range g.Successors(current) {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	return processed == len(nodes)
}
