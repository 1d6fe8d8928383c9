// Package executor owns the lifecycle of enumeration runs.
//
// A Controller is a two-state machine, Idle and Running. Start launches one
// enumerator on its own goroutine and returns immediately. The run ends on
// its own when the search tree is exhausted, early when RequestSoftStop is
// called, or at once when HardReset cancels it.
//
// Every lifecycle operation is serialised by a single mutex, and HardReset
// waits for the goroutine to exit before it reports Idle. A new run can
// therefore never overlap with one that is still unwinding, and the cleanup
// of a cancelled run (results discarded, highlights Neutral, reset snapshot
// published) happens exactly once.
package executor
