package dag

import (
	"slices"

	"github.com/vk/toposcope/internal/graph"
)

// FindCycle returns the labels along one directed cycle of g, closed by
// repeating the first label, or nil when g is acyclic. Nodes are visited in
// g's node order so the reported cycle is stable for an unchanged graph.
func FindCycle(g Graph) []string {
	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// temporary: currently on the recursion stack.
	// unvisited: everything else.
	permanent := make(map[*graph.Node]bool)
	temporary := make(map[*graph.Node]bool)
	var stack []*graph.Node

	var visit func(n *graph.Node) []string
	visit = func(n *graph.Node) []string {
		if permanent[n] {
			return nil
		}
		if temporary[n] {
			// n is on the recursion stack, the stack suffix from n is the cycle.
			start := slices.Index(stack, n)
			path := make([]string, 0, len(stack)-start+1)
			for _, s := range stack[start:] {
				path = append(path, s.Label())
			}
			return append(path, n.Label())
		}

		temporary[n] = true
		stack = append(stack, n)

		for next := range g.Successors(n) {
			if cycle := visit(next); cycle != nil {
				return cycle
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n)
		permanent[n] = true
		return nil
	}

	for _, n := range g.Nodes() {
		if cycle := visit(n); cycle != nil {
			return cycle
		}
	}
	return nil
}
