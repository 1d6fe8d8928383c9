package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/toposcope/internal/config"
	"github.com/vk/toposcope/internal/ctxlog"
	"github.com/vk/toposcope/internal/executor"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	settings   config.Settings
	sess       *session.Session
	httpServer *http.Server
}

// NewApp resolves the settings, builds the session and replays the seed
// graph into it. A seed graph with a cycle is kept as is; the cycle is
// reported when a run is started.
func NewApp(ctx context.Context, outW io.Writer, appConfig *Config) (*App, error) {
	// Bootstrap logger until the file settings are known.
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	settings, err := config.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(&settings, appConfig)

	logger = newLogger(settings.LogLevel, settings.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.", "level", settings.LogLevel, "format", settings.LogFormat)

	sess := session.New(executor.Config{Delay: settings.Delay})
	if err := seed(ctx, sess, settings); err != nil {
		return nil, err
	}
	logger.Debug("Seed graph loaded.", "nodes", len(settings.Seed.Nodes), "edges", len(settings.Seed.Edges))

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		settings: settings,
		sess:     sess,
	}, nil
}

// applyOverrides lets explicit command-line values win over file values.
func applyOverrides(s *config.Settings, c *Config) {
	if c.LogLevel != "" {
		s.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		s.LogFormat = c.LogFormat
	}
	if c.Delay != nil {
		s.Delay = *c.Delay
	}
	if c.HTTPPort != nil {
		s.HTTPPort = *c.HTTPPort
	}
	if c.RendererURL != "" {
		s.Renderer.URL = c.RendererURL
	}
}

// seed replays the configured graph into an empty session.
func seed(ctx context.Context, sess *session.Session, s config.Settings) error {
	for _, label := range s.Seed.Nodes {
		if _, err := sess.AddNode(ctx, label); err != nil {
			return fmt.Errorf("failed to seed node %q: %w", label, err)
		}
	}
	for _, e := range s.Seed.Edges {
		from, ok := sess.Lookup(e[0])
		if !ok {
			return fmt.Errorf("failed to seed edge %s -> %s: %w: source %q", e[0], e[1], graph.ErrUnknownNode, e[0])
		}
		to, ok := sess.Lookup(e[1])
		if !ok {
			return fmt.Errorf("failed to seed edge %s -> %s: %w: destination %q", e[0], e[1], graph.ErrUnknownNode, e[1])
		}
		if _, err := sess.ToggleEdge(ctx, from, to); err != nil {
			return fmt.Errorf("failed to seed edge %s -> %s: %w", e[0], e[1], err)
		}
	}
	return nil
}

// Session returns the application's session. This is primarily for testing.
func (a *App) Session() *session.Session {
	return a.sess
}

// Settings returns the resolved settings.
func (a *App) Settings() config.Settings {
	return a.settings
}
