package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/toposcope/internal/dag"
	"github.com/vk/toposcope/internal/executor"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/session"
)

func newConsole(t *testing.T, delay time.Duration) (*Console, *session.Session, *bytes.Buffer) {
	t.Helper()
	sess := session.New(executor.Config{Delay: delay})
	t.Cleanup(sess.HardReset)
	out := &bytes.Buffer{}
	return New(sess, out), sess, out
}

func exec(t *testing.T, c *Console, line string) {
	t.Helper()
	_, err := c.Exec(context.Background(), line)
	require.NoError(t, err, "command %q", line)
}

func TestExec_BuildAndRun(t *testing.T) {
	c, sess, out := newConsole(t, 0)

	exec(t, c, "add A B C")
	exec(t, c, "edge A B")
	exec(t, c, "edge A C")
	exec(t, c, "run --wait")

	assert.Equal(t, [][]string{{"A", "B", "C"}, {"A", "C", "B"}}, sess.Results())
	assert.Contains(t, out.String(), "added edge A -> B")
	assert.Contains(t, out.String(), "2 ordering(s)")
	assert.Contains(t, out.String(), "   2. A C B")
}

func TestExec_EdgeToggleAndRemove(t *testing.T) {
	c, sess, out := newConsole(t, 0)

	exec(t, c, "add A B")
	exec(t, c, "edge A B")
	exec(t, c, "edge A B")
	assert.Contains(t, out.String(), "removed edge A -> B")
	assert.Empty(t, sess.Layout().Edges)

	exec(t, c, "rm B")
	assert.Equal(t, []string{"A"}, sess.Layout().Nodes)
}

func TestExec_Errors(t *testing.T) {
	c, _, _ := newConsole(t, 0)
	ctx := context.Background()
	exec(t, c, "add A B")

	_, err := c.Exec(ctx, "add A")
	assert.ErrorIs(t, err, graph.ErrDuplicateLabel)

	_, err = c.Exec(ctx, "rm Z")
	assert.ErrorIs(t, err, graph.ErrUnknownNode)

	_, err = c.Exec(ctx, "edge A A")
	assert.ErrorIs(t, err, graph.ErrSelfLoop)

	_, err = c.Exec(ctx, "edge A")
	assert.Error(t, err)

	_, err = c.Exec(ctx, "frobnicate")
	assert.ErrorContains(t, err, "unknown command")

	exec(t, c, "edge A B")
	exec(t, c, "edge B A")
	_, err = c.Exec(ctx, "run")
	assert.ErrorIs(t, err, dag.ErrCyclicGraph)
}

func TestExec_StopResetClear(t *testing.T) {
	c, sess, out := newConsole(t, time.Hour)

	exec(t, c, "add A B")
	exec(t, c, "run")
	assert.Equal(t, executor.Running, sess.State())

	exec(t, c, "stop")
	exec(t, c, "reset")
	assert.Equal(t, executor.Idle, sess.State())

	exec(t, c, "run")
	exec(t, c, "clear")
	assert.Equal(t, executor.Idle, sess.State())
	assert.Empty(t, sess.Layout().Nodes)
	assert.Contains(t, out.String(), "stop requested")
	assert.Contains(t, out.String(), "cleared")
}

func TestExec_ShowAndDot(t *testing.T) {
	c, _, out := newConsole(t, 0)
	exec(t, c, "add A B")
	exec(t, c, "edge A B")

	exec(t, c, "show")
	assert.Contains(t, out.String(), "edges: A->B")

	out.Reset()
	exec(t, c, "dot")
	assert.Contains(t, out.String(), `"A" -> "B"`)
}

func TestExec_BlankAndComment(t *testing.T) {
	c, _, out := newConsole(t, 0)
	quit, err := c.Exec(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, quit)

	quit, err = c.Exec(context.Background(), "# just a note")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Empty(t, out.String())
}

func TestServe(t *testing.T) {
	c, sess, out := newConsole(t, 0)
	script := strings.Join([]string{
		"add A B",
		"edge B A",
		"rm nope",
		"run --wait",
		"quit",
		"add never",
	}, "\n")

	require.NoError(t, c.Serve(context.Background(), strings.NewReader(script)))

	assert.Equal(t, [][]string{{"B", "A"}}, sess.Results())
	assert.Contains(t, out.String(), "error: node not found")
	_, ok := sess.Lookup("never")
	assert.False(t, ok, "commands after quit are not executed")
}

func TestServe_EOF(t *testing.T) {
	c, sess, _ := newConsole(t, 0)
	require.NoError(t, c.Serve(context.Background(), strings.NewReader("add A")))
	_, ok := sess.Lookup("A")
	assert.True(t, ok)
}

func TestServe_ContextCancel(t *testing.T) {
	c, _, _ := newConsole(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, w := io.Pipe()
	defer w.Close()
	err := c.Serve(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
}
