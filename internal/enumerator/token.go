package enumerator

import "sync/atomic"

// StopToken is a cooperative cancellation flag. The zero value is ready to
// use and not requested.
type StopToken struct {
	requested atomic.Bool
}

// Request asks the run that observes this token to stop at its next pause.
func (t *StopToken) Request() {
	t.requested.Store(true)
}

// Requested reports whether a stop was requested. A nil token never is.
func (t *StopToken) Requested() bool {
	return t != nil && t.requested.Load()
}
