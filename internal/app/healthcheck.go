package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/toposcope/internal/relay"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// snapshotHandler serves the current layout and latest snapshot as JSON, in
// the same shape the relay emits.
func (a *App) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Snapshot endpoint hit.", "remote_addr", r.RemoteAddr)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload := relay.NewPayload(a.sess.Layout(), a.sess.LatestSnapshot())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("Failed to encode snapshot", "error", err)
	}
}

// newMux wires the observation endpoints.
func (a *App) newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/snapshot", a.snapshotHandler)
	return mux
}

// startObservationServer runs the HTTP server in the background. A port of
// zero disables it.
func (a *App) startObservationServer() {
	a.logger.Debug("Configuring observation server.")
	if a.settings.HTTPPort <= 0 {
		a.logger.Debug("Observation server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", a.settings.HTTPPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.newMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("🩺 Observation server starting", "address", fmt.Sprintf("http://localhost%s/snapshot", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Observation server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeObservationServer() error {
	a.logger.Debug("Closing observation server...")

	if a.httpServer == nil {
		a.logger.Debug("Observation server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down observation server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Observation server shutdown failed", "error", err)
		return err
	}

	a.logger.Debug("Observation server shut down gracefully.")
	return nil
}
