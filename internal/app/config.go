package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the command-line level configuration for an App. Values that
// are empty or nil fall back to the HCL files and then to defaults.
type Config struct {
	ConfigPaths []string // hcl files or directories

	LogFormat   string
	LogLevel    string
	HTTPPort    *int
	Delay       *time.Duration
	RendererURL string

	// Interactive starts the console instead of a single run.
	Interactive bool
	// PrintDOT writes the final graph as Graphviz DOT after a single run.
	PrintDOT bool
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat != "" && cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.Delay != nil && *cfg.Delay < 0 {
		return nil, errors.New("delay must not be negative")
	}
	if cfg.HTTPPort != nil && (*cfg.HTTPPort < 0 || *cfg.HTTPPort > 65535) {
		return nil, fmt.Errorf("http-port %d is out of range", *cfg.HTTPPort)
	}
	if !cfg.Interactive && len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("a config path is required unless -interactive is set")
	}

	return &cfg, nil
}
