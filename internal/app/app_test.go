package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/toposcope/internal/config"
	"github.com/vk/toposcope/internal/executor"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/relay"
	"github.com/vk/toposcope/internal/session"
)

const forkHCL = `
animation {
  delay = "0s"
}

graph {
  nodes = ["A", "B", "C"]
  edge {
    from = "A"
    to   = "B"
  }
  edge {
    from = "A"
    to   = "C"
  }
}
`

func ptr[T any](v T) *T { return &v }

func TestNewApp_SeedsGraph(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{ConfigPaths: []string{WriteConfig(t, forkHCL)}})

	layout := a.Session().Layout()
	assert.Equal(t, []string{"A", "B", "C"}, layout.Nodes)
	assert.Equal(t, [][2]string{{"A", "B"}, {"A", "C"}}, layout.Edges)
	assert.Equal(t, time.Duration(0), a.Settings().Delay)
}

func TestNewApp_CommandLineWins(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{
		ConfigPaths: []string{WriteConfig(t, forkHCL+"\nserver {\n  port = 9000\n}\n")},
		Delay:       ptr(50 * time.Millisecond),
		HTTPPort:    ptr(0),
		LogFormat:   "json",
		RendererURL: "http://localhost:3000",
	})

	s := a.Settings()
	assert.Equal(t, 50*time.Millisecond, s.Delay)
	assert.Zero(t, s.HTTPPort)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, "http://localhost:3000", s.Renderer.URL)
}

func TestNewApp_BadConfig(t *testing.T) {
	_, err := NewApp(context.Background(), &bytes.Buffer{}, &Config{
		ConfigPaths: []string{WriteConfig(t, `graph { nodes = ["A", "A"] }`)},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load configuration")
}

func TestRun_OneShot(t *testing.T) {
	a, out := SetupAppTest(t, &Config{
		ConfigPaths: []string{WriteConfig(t, forkHCL)},
		PrintDOT:    true,
	})

	require.NoError(t, a.Run(context.Background(), nil))

	assert.Equal(t, [][]string{{"A", "B", "C"}, {"A", "C", "B"}}, a.Session().Results())
	assert.Contains(t, out.String(), "found: 2")
	assert.Contains(t, out.String(), `"A" -> "B"`)
	assert.Equal(t, executor.Idle, a.Session().State())
}

func TestRun_OneShotCyclicSeed(t *testing.T) {
	src := `graph {
  nodes = ["A", "B"]
  edge {
    from = "A"
    to   = "B"
  }
  edge {
    from = "B"
    to   = "A"
  }
}`
	a, _ := SetupAppTest(t, &Config{ConfigPaths: []string{WriteConfig(t, src)}})

	err := a.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "A -> B -> A")
}

func TestRun_InterruptStopsRun(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{
		ConfigPaths: []string{WriteConfig(t, forkHCL)},
		Delay:       ptr(time.Hour),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, nil) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}
	assert.Equal(t, executor.Idle, a.Session().State())
}

func TestRun_Interactive(t *testing.T) {
	a, out := SetupAppTest(t, &Config{Interactive: true, Delay: ptr(time.Duration(0))})
	script := strings.NewReader("add A B\nedge A B\nrun --wait\nquit\n")

	require.NoError(t, a.Run(context.Background(), script))
	assert.Contains(t, out.String(), "1 ordering(s)")
	assert.Equal(t, [][]string{{"A", "B"}}, a.Session().Results())
}

func TestObservationEndpoints(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{ConfigPaths: []string{WriteConfig(t, forkHCL)}})
	mux := a.newMux()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK\n", rec.Body.String())
	})

	t.Run("snapshot", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var p relay.Payload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, []string{"A", "B", "C"}, p.Layout.Nodes)
		assert.Equal(t, "idle", string(p.Snapshot.Kind))
	})

	t.Run("snapshot rejects writes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snapshot", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "minimal", cfg: Config{ConfigPaths: []string{"x.hcl"}}},
		{name: "interactive without path", cfg: Config{Interactive: true}},
		{name: "missing path", cfg: Config{}, wantErr: "config path is required"},
		{name: "bad format", cfg: Config{Interactive: true, LogFormat: "xml"}, wantErr: "log-format"},
		{name: "bad level", cfg: Config{Interactive: true, LogLevel: "loud"}, wantErr: "log-level"},
		{name: "negative delay", cfg: Config{Interactive: true, Delay: ptr(-time.Second)}, wantErr: "delay"},
		{name: "bad port", cfg: Config{Interactive: true, HTTPPort: ptr(70000)}, wantErr: "http-port"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg, *got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("DEBUG", "json", &buf)
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger = newLogger("nonsense", "text", &buf)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestSeed_UnknownEdgeEnds(t *testing.T) {
	testCases := []struct {
		name    string
		seed    graph.Layout
		errText string
	}{
		{
			name:    "both ends unknown",
			seed:    graph.Layout{Nodes: []string{"A"}, Edges: [][2]string{{"X", "Y"}}},
			errText: `source "X"`,
		},
		{
			name:    "unknown destination",
			seed:    graph.Layout{Nodes: []string{"A"}, Edges: [][2]string{{"A", "Y"}}},
			errText: `destination "Y"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sess := session.New(executor.Config{})
			settings := config.Default()
			settings.Seed = tc.seed

			err := seed(context.Background(), sess, settings)

			require.ErrorIs(t, err, graph.ErrUnknownNode)
			assert.NotErrorIs(t, err, graph.ErrSelfLoop)
			assert.ErrorContains(t, err, tc.errText)
		})
	}
}
