package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/toposcope/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("toposcope", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
toposcope - Watch every topological ordering of a graph being enumerated.

Usage:
  toposcope [options] [CONFIG_PATH...]
  toposcope -interactive [options] [CONFIG_PATH...]

Arguments:
  CONFIG_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the config file or directory.")
	cFlag := flagSet.String("c", "", "Path to the config file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'. Defaults to the config file, then 'text'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'. Defaults to the config file, then 'info'.")
	delayFlag := flagSet.Duration("delay", 0, "Pause after every search step, e.g. '250ms'. Overrides the config file.")
	httpPortFlag := flagSet.Int("http-port", 0, "Port for the HTTP observation server. 0 is disabled. Overrides the config file.")
	rendererFlag := flagSet.String("renderer-url", "", "socket.io URL of a remote renderer. Overrides the config file.")
	interactiveFlag := flagSet.Bool("interactive", false, "Start the line-oriented console instead of a single run.")
	iFlag := flagSet.Bool("i", false, "Start the console (shorthand).")
	dotFlag := flagSet.Bool("dot", false, "Print the graph as Graphviz DOT after a single run.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	if *configFlag != "" {
		paths = append(paths, *configFlag)
	}
	if *cFlag != "" {
		paths = append(paths, *cFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Config paths determined.", "paths", paths)

	interactive := *interactiveFlag || *iFlag
	if len(paths) == 0 && !interactive {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	cfg := app.Config{
		ConfigPaths: paths,
		LogFormat:   strings.ToLower(*logFormatFlag),
		LogLevel:    strings.ToLower(*logLevelFlag),
		RendererURL: *rendererFlag,
		Interactive: interactive,
		PrintDOT:    *dotFlag,
	}

	// Only flags given explicitly override the config file.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "delay":
			d := *delayFlag
			cfg.Delay = &d
		case "http-port":
			p := *httpPortFlag
			cfg.HTTPPort = &p
		}
	})

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
