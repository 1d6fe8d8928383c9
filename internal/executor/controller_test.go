package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/toposcope/internal/dag"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/sink"
)

func build(t *testing.T, labels []string, edges [][2]string) *graph.Model {
	t.Helper()
	m := graph.New()
	for _, l := range labels {
		_, err := m.AddNode(l)
		require.NoError(t, err)
	}
	for _, e := range edges {
		from, _ := m.Lookup(e[0])
		to, _ := m.Lookup(e[1])
		_, err := m.ToggleEdge(from, to)
		require.NoError(t, err)
	}
	return m
}

func diamond(t *testing.T) *graph.Model {
	return build(t,
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}},
	)
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
	require.Equal(t, Idle, c.State())
}

func TestStart_RunsToCompletion(t *testing.T) {
	s := sink.New()
	c := New(diamond(t), s, Config{})

	id, err := c.Start(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, c.RunID())

	waitIdle(t, c)

	assert.Equal(t, [][]string{{"A", "B", "C", "D"}, {"A", "C", "B", "D"}}, c.Results())
	latest := s.Latest()
	assert.Equal(t, sink.KindCompleted, latest.Kind)
	assert.Equal(t, id, latest.RunID)
	assert.False(t, latest.Running)
}

func TestStart_Rejections(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		c := New(graph.New(), sink.New(), Config{})
		_, err := c.Start(context.Background())
		assert.ErrorIs(t, err, ErrEmptyGraph)
		assert.Equal(t, Idle, c.State())
	})

	t.Run("cyclic graph", func(t *testing.T) {
		s := sink.New()
		c := New(build(t, []string{"A", "B"}, [][2]string{{"A", "B"}, {"B", "A"}}), s, Config{})
		_, err := c.Start(context.Background())
		assert.ErrorIs(t, err, dag.ErrCyclicGraph)
		assert.Equal(t, Idle, c.State())
		assert.Empty(t, c.Results())
		assert.Equal(t, sink.KindIdle, s.Latest().Kind)
	})

	t.Run("already running", func(t *testing.T) {
		c := New(diamond(t), sink.New(), Config{Delay: time.Hour})
		_, err := c.Start(context.Background())
		require.NoError(t, err)
		t.Cleanup(c.HardReset)

		_, err = c.Start(context.Background())
		assert.ErrorIs(t, err, ErrAlreadyRunning)
		assert.Equal(t, Running, c.State())
	})
}

func TestRequestSoftStop(t *testing.T) {
	m := diamond(t)
	c := New(m, sink.New(), Config{Delay: 5 * time.Millisecond})

	_, err := c.Start(context.Background())
	require.NoError(t, err)
	c.RequestSoftStop()
	waitIdle(t, c)

	assert.Empty(t, m.Highlighted())
	for _, order := range c.Results() {
		assert.Len(t, order, 4, "never a partial ordering")
	}

	// No-op when idle.
	assert.NotPanics(t, c.RequestSoftStop)
}

func TestHardReset_InterruptsPause(t *testing.T) {
	m := diamond(t)
	s := sink.New()
	c := New(m, s, Config{Delay: time.Hour})

	id, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Running, c.State())

	done := make(chan struct{})
	go func() {
		c.HardReset()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("HardReset did not interrupt the pause")
	}

	assert.Equal(t, Idle, c.State())
	assert.Empty(t, c.Results())
	assert.Empty(t, m.Highlighted())
	latest := s.Latest()
	assert.Equal(t, sink.KindReset, latest.Kind)
	assert.Equal(t, id, latest.RunID)
	assert.Empty(t, latest.Results)

	// A fresh run can start right away.
	_, err = c.Start(context.Background())
	require.NoError(t, err)
	c.HardReset()
}

func TestHardReset_WhenIdle(t *testing.T) {
	s := sink.New()
	c := New(diamond(t), s, Config{})
	_, err := c.Start(context.Background())
	require.NoError(t, err)
	waitIdle(t, c)
	require.NotEmpty(t, c.Results())

	c.HardReset()

	assert.Empty(t, c.Results())
	assert.Equal(t, sink.KindReset, s.Latest().Kind)
	assert.Equal(t, Idle, c.State())
}

func TestStart_CallerContextDoesNotCancelRun(t *testing.T) {
	c := New(diamond(t), sink.New(), Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Start(ctx)
	require.NoError(t, err)
	waitIdle(t, c)
	assert.Len(t, c.Results(), 2)
}

func TestController_ConcurrentControl(t *testing.T) {
	m := diamond(t)
	c := New(m, sink.New(), Config{Delay: time.Millisecond})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, _ = c.Start(context.Background())
			case 1:
				c.RequestSoftStop()
			default:
				c.HardReset()
			}
		}(i)
	}
	wg.Wait()

	c.HardReset()
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, m.Highlighted())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
}
