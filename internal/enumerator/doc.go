// Package enumerator finds every topological ordering of an acyclic
// graph.Model with an animated, cancellable depth-first backtracking search.
//
// # How It Works
//
// The search keeps three pieces of private state: the current in-degree of
// every node, a used marker per node, and the partial ordering (a stack).
// At each level the candidates are the unused nodes whose in-degree is zero,
// scanned in the model's node order. For each candidate the search:
//
//  1. pushes it, marks it Active and publishes an enter snapshot, then pauses
//  2. decrements the in-degree of its successors and recurses
//  3. restores the in-degrees, pops it, marks it Neutral, publishes a leave
//     snapshot and pauses again
//
// When the partial ordering holds every node, a copy of it is appended to the
// results, a found snapshot is published and the search pauses once more
// before backtracking. The search is exhaustive; it never stops at the first
// ordering.
//
// # Cancellation
//
// Pauses are the only suspension points and the only places cancellation is
// observed. Two independent signals exist:
//
//   - **StopToken** (soft): passed explicitly to Run. Once requested, the run
//     ends at the next pause and returns its results with a nil error.
//   - **Context** (hard): cancelling the context interrupts the current pause
//     immediately. Run returns the context's error.
//
// Either way the whole remaining search tree is abandoned, and a deferred
// cleanup puts every node back to Neutral before Run returns. Results only
// ever contain complete orderings.
package enumerator
