// Package graph holds the editable directed graph that the enumerator searches.
//
// # Why Graph Package Exists
//
// Every other component of toposcope reads the same small, mutable graph:
// the editor adds and removes nodes and toggles edges, the cycle detector
// counts in-degrees, the enumerator walks successors and paints highlights,
// and the renderers read labels and edges to draw. The Model type is the
// single owner of that structure.
//
// # Structure vs. Highlight
//
// The Model keeps two kinds of data with different writers:
//
//	┌──────────────────────────────┐
//	│            Model             │
//	│  nodes (insertion order)     │  written by the editor (control goroutine)
//	│  edges (insertion order)     │
//	└──────────────┬───────────────┘
//	               │ per node
//	               ▼
//	      ┌────────────────┐
//	      │   Highlight    │  written by the enumerator goroutine
//	      │ Neutral/Active │  read by renderers
//	      └────────────────┘
//
// **Structure** (nodes, edges) is guarded by a sync.RWMutex. The edge slice
// is copy-on-write: mutations build a new slice, so a reader that captured
// the slice header can keep iterating after releasing the lock. Successors
// relies on this to return a lazy iter.Seq that never yields under a lock.
//
// **Highlight** is an atomic per-node value, so the enumerator can paint
// nodes without contending with structural readers.
//
// # Determinism
//
// Nodes and edges are iterated in insertion order. The enumerator reuses
// that order for its candidate scan, which is what makes the discovery order
// of topological orderings reproducible for an unchanged graph.
//
// # Thread-Safety
//
// All Model methods are safe to call concurrently. Callers are still
// responsible for not mutating the structure while an enumeration run is
// reading it; internal/session serialises that by hard-resetting the run
// before any mutation.
package graph
