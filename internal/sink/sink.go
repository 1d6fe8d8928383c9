package sink

import "sync"

// Sink is a thread-safe publish point holding the latest Snapshot.
type Sink struct {
	mutex  sync.Mutex
	latest Snapshot
	seq    uint64
	nextID int
	subs   map[int]chan Snapshot
}

// New creates a Sink whose latest snapshot is an idle one.
func New() *Sink {
	return &Sink{
		latest: Snapshot{Kind: KindIdle},
		subs:   make(map[int]chan Snapshot),
	}
}

// Publish stores a copy of snap as the latest snapshot and notifies
// subscribers. It never blocks on a slow subscriber.
func (s *Sink) Publish(snap Snapshot) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.seq++
	snap = snap.clone()
	snap.Seq = s.seq
	s.latest = snap

	for _, ch := range s.subs {
		// Replace an unread snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Reset publishes an empty, non-running snapshot for runID.
func (s *Sink) Reset(runID string) {
	s.Publish(Snapshot{RunID: runID, Kind: KindReset})
}

// Latest returns a copy of the most recently published snapshot.
func (s *Sink) Latest() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.latest.clone()
}

// Subscribe registers a new subscriber. The returned channel always holds at
// most the newest unread snapshot. The cancel func unregisters the
// subscriber and closes the channel; it is safe to call more than once.
func (s *Sink) Subscribe() (<-chan Snapshot, func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
