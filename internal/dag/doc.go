// Package dag decides whether a graph.Model is an AOV network, that is a
// directed graph without cycles, which is the precondition for enumerating
// its topological orderings.
//
// IsAcyclic runs Kahn's algorithm and is the authoritative check. FindCycle
// is a depth-first search used only to explain a rejection to the user.
package dag
