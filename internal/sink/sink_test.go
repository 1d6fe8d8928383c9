package sink

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsIdle(t *testing.T) {
	s := New()
	latest := s.Latest()
	assert.Equal(t, KindIdle, latest.Kind)
	assert.Zero(t, latest.Seq)
	assert.False(t, latest.Running)
}

func TestPublish_StoresDefensiveCopy(t *testing.T) {
	s := New()
	partial := []string{"A", "B"}
	results := [][]string{{"A", "B"}}

	s.Publish(Snapshot{Kind: KindEnter, Node: "B", PartialOrder: partial, Results: results, Running: true})
	partial[0] = "X"
	results[0] = []string{"Z"}

	latest := s.Latest()
	assert.Equal(t, []string{"A", "B"}, latest.PartialOrder)
	assert.Equal(t, [][]string{{"A", "B"}}, latest.Results)
	assert.Equal(t, uint64(1), latest.Seq)

	// Mutating the copy returned by Latest does not leak back either.
	latest.PartialOrder[0] = "Y"
	assert.Equal(t, "A", s.Latest().PartialOrder[0])
}

func TestPublish_AssignsIncreasingSeq(t *testing.T) {
	s := New()
	for range 5 {
		s.Publish(Snapshot{Kind: KindEnter})
	}
	assert.Equal(t, uint64(5), s.Latest().Seq)
}

func TestReset(t *testing.T) {
	s := New()
	s.Publish(Snapshot{RunID: "r1", Kind: KindFound, Results: [][]string{{"A"}}, Running: true})

	s.Reset("r1")

	latest := s.Latest()
	assert.Equal(t, KindReset, latest.Kind)
	assert.Empty(t, latest.Results)
	assert.Empty(t, latest.Highlighted)
	assert.False(t, latest.Running)
	assert.True(t, latest.Kind.Terminal())
	assert.False(t, KindEnter.Terminal())
}

func TestSubscribe_LatestWins(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Publish(Snapshot{Kind: KindEnter, Node: "A"})
	s.Publish(Snapshot{Kind: KindEnter, Node: "B"})
	s.Publish(Snapshot{Kind: KindLeave, Node: "B"})

	got := <-ch
	assert.Equal(t, KindLeave, got.Kind)
	assert.Equal(t, uint64(3), got.Seq)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra snapshot %+v", extra)
	default:
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()

	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after cancel must not panic on the closed channel.
	assert.NotPanics(t, func() { s.Publish(Snapshot{Kind: KindEnter}) })
}

func TestSubscribe_ConcurrentPublishersKeepOrder(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()

	var wg sync.WaitGroup
	wg.Add(4)
	for range 4 {
		go func() {
			defer wg.Done()
			for range 200 {
				s.Publish(Snapshot{Kind: KindEnter})
			}
		}()
	}

	done := make(chan struct{})
	var last uint64
	go func() {
		defer close(done)
		for snap := range ch {
			assert.Greater(t, snap.Seq, last)
			last = snap.Seq
		}
	}()

	wg.Wait()
	cancel()
	<-done

	require.Equal(t, uint64(800), s.Latest().Seq)
	assert.LessOrEqual(t, last, uint64(800))
}
