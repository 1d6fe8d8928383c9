// Package sink is the publish point between the enumeration goroutine and
// whatever renders its progress.
//
// # Why Sink Exists
//
// The enumerator mutates its search state thousands of times per run, and
// renderers run at their own pace on other goroutines. Handing renderers a
// reference into live search state would race. Instead the enumerator
// publishes an immutable Snapshot after every step and renderers read the
// latest one.
//
// # Delivery Guarantees
//
//   - **Latest():** always returns the most recently published snapshot.
//   - **Subscribe():** each subscriber gets a buffered channel of capacity
//     one. A new snapshot replaces an unread one, so a slow subscriber never
//     blocks the publisher, and it may skip intermediate snapshots but never
//     sees them out of order. Seq is strictly increasing per subscriber.
//
// # Immutability
//
// Publish copies every slice it receives. Results are append-only during a
// run, so the copy shares the inner orderings, which are never written
// again after they are published.
package sink
