package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vk/toposcope/internal/console"
	"github.com/vk/toposcope/internal/ctxlog"
	"github.com/vk/toposcope/internal/relay"
	"github.com/vk/toposcope/internal/render"
	"github.com/vk/toposcope/internal/sink"
	"golang.org/x/sync/errgroup"
)

// Run drives the configured front end until it finishes or ctx is
// cancelled. in is read only in interactive mode.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.logger.Debug("App.Run method finished.")

	a.startObservationServer()
	defer a.closeObservationServer()
	defer a.sess.Close(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if a.settings.Renderer.URL != "" {
		r, err := relay.Dial(gctx, relay.Config{
			URL:                a.settings.Renderer.URL,
			Namespace:          a.settings.Renderer.Namespace,
			InsecureSkipVerify: a.settings.Renderer.InsecureSkipVerify,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to renderer: %w", err)
		}
		defer r.Close()

		updates, unsubscribe := a.sess.Subscribe()
		g.Go(func() error {
			defer unsubscribe()
			return ignoreCanceled(r.Forward(gctx, updates, a.sess.Layout))
		})
	}

	g.Go(func() error {
		// The front end decides when the whole group is done.
		defer cancel()
		if a.config.Interactive {
			a.logger.Info("⌨️ Interactive console ready, type 'help' for commands.")
			return ignoreCanceled(console.New(a.sess, a.outW).Serve(gctx, in))
		}
		return a.runOnce(gctx)
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runOnce enumerates the seed graph, rendering every update as a text frame.
// Cancelling ctx first asks for a soft stop and falls back to a hard reset
// when the run does not wind down in time.
func (a *App) runOnce(ctx context.Context) error {
	updates, unsubscribe := a.sess.Subscribe()
	defer unsubscribe()

	// Runs outlive their caller's context, so a cancelled ctx is not passed on.
	runID, err := a.sess.RunEnumeration(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("failed to start enumeration: %w", err)
	}
	a.logger.Info("🚀 Enumerating topological orderings...", "runID", runID, "nodes", len(a.sess.Layout().Nodes))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("🛑 Interrupted, stopping enumeration...")
			a.stop()
			return nil
		case snap := <-updates:
			if snap.RunID != runID {
				continue
			}
			if err := render.Text(a.outW, a.sess.Layout(), snap); err != nil {
				return err
			}
			if snap.Kind.Terminal() {
				return a.finish(ctx, snap)
			}
		}
	}
}

// maxStopGrace bounds how long a soft stop may take before a hard reset.
const maxStopGrace = 2 * time.Second

// stop asks for a soft stop and hard-resets if the run is still alive after
// one animation step, or maxStopGrace for long delays.
func (a *App) stop() {
	a.sess.RequestSoftStop()
	grace, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), min(a.settings.Delay+100*time.Millisecond, maxStopGrace))
	defer cancel()
	if err := a.sess.Wait(grace); err != nil {
		a.logger.Warn("Soft stop timed out, resetting.", "error", err)
		a.sess.HardReset()
	}
}

// finish prints the summary of a finished run.
func (a *App) finish(ctx context.Context, last sink.Snapshot) error {
	if err := a.sess.Wait(ctx); err != nil {
		return err
	}
	a.logger.Info("🏁 Enumeration finished.", "outcome", string(last.Kind), "orderings", len(last.Results))

	if a.config.PrintDOT {
		if err := render.DOT(a.outW, a.sess.Layout(), a.sess.LatestSnapshot()); err != nil {
			return fmt.Errorf("failed to render DOT: %w", err)
		}
	}
	return nil
}
