package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/toposcope/internal/app"
	"github.com/vk/toposcope/internal/cli"
)

// main is the entrypoint for the toposcope application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Stdin, os.Args[1:]); err != nil {
		stop()
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, in io.Reader, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	toposcopeApp, err := startApp(ctx, outW, appConfig)
	if err != nil {
		return err
	}

	return toposcopeApp.Run(ctx, in)
}

// startApp builds the application on the calling goroutine and reports a
// panic during that build as an error. Panics on the run goroutines are not
// recovered; they end the process.
func startApp(ctx context.Context, outW io.Writer, appConfig *app.Config) (a *app.App, err error) {
	defer recoverStartup(&err)
	return app.NewApp(ctx, outW, appConfig)
}

func recoverStartup(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("application startup panicked: %v", r)
	}
}
