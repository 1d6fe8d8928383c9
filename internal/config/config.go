package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vk/toposcope/internal/graph"
)

// Defaults applied before any file is read.
const (
	DefaultDelay     = time.Second
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultNamespace = "/"
)

// ErrInvalidSeed is returned when the graph block describes an impossible
// graph.
var ErrInvalidSeed = errors.New("invalid seed graph")

// Settings is the resolved configuration.
type Settings struct {
	Delay     time.Duration
	LogLevel  string
	LogFormat string
	HTTPPort  int
	Renderer  Renderer
	// Seed is the graph to build at startup. It may be cyclic.
	Seed graph.Layout
}

// Renderer configures the remote socket.io renderer. An empty URL disables it.
type Renderer struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Delay:     DefaultDelay,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Renderer:  Renderer{Namespace: DefaultNamespace},
	}
}

// fileRoot decodes every top-level block a file may contain. Anything else
// is reported by gohcl as unsupported.
type fileRoot struct {
	Animation *animationBlock `hcl:"animation,block"`
	Log       *logBlock       `hcl:"log,block"`
	Server    *serverBlock    `hcl:"server,block"`
	Renderer  *rendererBlock  `hcl:"renderer,block"`
	Graph     *graphBlock     `hcl:"graph,block"`
}

type animationBlock struct {
	Delay string `hcl:"delay,optional"`
}

type logBlock struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

type serverBlock struct {
	Port *int `hcl:"port,optional"`
}

type rendererBlock struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	InsecureSkipVerify *bool  `hcl:"insecure_skip_verify,optional"`
}

type graphBlock struct {
	Nodes []string     `hcl:"nodes,optional"`
	Edges []*edgeBlock `hcl:"edge,block"`
}

type edgeBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// merge applies the blocks present in root on top of s.
func (s *Settings) merge(root *fileRoot) error {
	if a := root.Animation; a != nil && a.Delay != "" {
		d, err := time.ParseDuration(a.Delay)
		if err != nil {
			return fmt.Errorf("animation.delay: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("animation.delay must not be negative, got %s", d)
		}
		s.Delay = d
	}

	if l := root.Log; l != nil {
		if l.Level != "" {
			if !validLevel(l.Level) {
				return fmt.Errorf("log.level %q is not one of debug, info, warn, error", l.Level)
			}
			s.LogLevel = l.Level
		}
		if l.Format != "" {
			if l.Format != "text" && l.Format != "json" {
				return fmt.Errorf("log.format %q is not one of text, json", l.Format)
			}
			s.LogFormat = l.Format
		}
	}

	if srv := root.Server; srv != nil && srv.Port != nil {
		if *srv.Port < 0 || *srv.Port > 65535 {
			return fmt.Errorf("server.port %d is out of range", *srv.Port)
		}
		s.HTTPPort = *srv.Port
	}

	if r := root.Renderer; r != nil {
		s.Renderer.URL = r.URL
		if r.Namespace != "" {
			s.Renderer.Namespace = r.Namespace
		}
		if r.InsecureSkipVerify != nil {
			s.Renderer.InsecureSkipVerify = *r.InsecureSkipVerify
		}
	}

	if g := root.Graph; g != nil {
		s.Seed.Nodes = append(s.Seed.Nodes, g.Nodes...)
		for _, e := range g.Edges {
			s.Seed.Edges = append(s.Seed.Edges, [2]string{e.From, e.To})
		}
	}
	return nil
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// validateSeed checks that the seed can be replayed onto an empty graph
// without errors. Cycles are allowed.
func validateSeed(seed graph.Layout) error {
	declared := make(map[string]struct{}, len(seed.Nodes))
	for _, n := range seed.Nodes {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%w: node label must not be empty", ErrInvalidSeed)
		}
		if _, dup := declared[n]; dup {
			return fmt.Errorf("%w: node %q declared twice", ErrInvalidSeed, n)
		}
		declared[n] = struct{}{}
	}

	edges := make(map[[2]string]struct{}, len(seed.Edges))
	for _, e := range seed.Edges {
		for _, end := range e {
			if _, ok := declared[end]; !ok {
				return fmt.Errorf("%w: edge %s -> %s uses undeclared node %q", ErrInvalidSeed, e[0], e[1], end)
			}
		}
		if e[0] == e[1] {
			return fmt.Errorf("%w: self-loop on %q", ErrInvalidSeed, e[0])
		}
		if _, dup := edges[e]; dup {
			return fmt.Errorf("%w: edge %s -> %s declared twice", ErrInvalidSeed, e[0], e[1])
		}
		edges[e] = struct{}{}
	}
	return nil
}
