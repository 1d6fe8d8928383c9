// Package relay forwards search snapshots to a remote renderer over
// socket.io. Every update is emitted as one "snapshot" event carrying the
// current graph layout and the snapshot itself.
package relay

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/vk/toposcope/internal/ctxlog"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/sink"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SnapshotEvent is the socket.io event name used for every update.
const SnapshotEvent = "snapshot"

// DefaultConnectTimeout bounds Dial when Config.ConnectTimeout is zero.
const DefaultConnectTimeout = 15 * time.Second

// ErrInvalidURL is returned by Dial for URLs it cannot connect to.
var ErrInvalidURL = errors.New("invalid renderer URL")

// Config describes the remote renderer.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Payload is the body of a SnapshotEvent.
type Payload struct {
	Layout   graph.Layout  `json:"layout"`
	Snapshot sink.Snapshot `json:"snapshot"`
}

// NewPayload pairs a layout with a snapshot.
func NewPayload(layout graph.Layout, snap sink.Snapshot) Payload {
	return Payload{Layout: layout, Snapshot: snap}
}

// Relay is a connected socket.io client.
type Relay struct {
	io     *socket.Socket
	emit   func(Payload)
	logger *slog.Logger
}

// Dial connects to the renderer and waits for the namespace handshake.
func Dial(ctx context.Context, cfg Config) (*Relay, error) {
	logger := ctxlog.FromContext(ctx).With("component", "relay", "url", cfg.URL)

	baseURL, path, err := splitURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	opts := socket.DefaultOptions()
	if path != "" {
		opts.SetPath(path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("📡 Renderer connected", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Initiating connection...")
	io.Connect()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-timer.C:
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	r := &Relay{io: io, logger: logger}
	r.emit = func(p Payload) {
		io.Emit(SnapshotEvent, p)
	}
	return r, nil
}

// splitURL separates the origin socket.io connects to from the engine path.
func splitURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return "", "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), u.Path, nil
}

// Forward emits one event per snapshot received on updates until updates is
// closed or ctx is done. layout is called for every event so structural
// edits show up with the next update.
func (r *Relay) Forward(ctx context.Context, updates <-chan sink.Snapshot, layout func() graph.Layout) error {
	r.logger.Debug("Relay forwarding started.")
	defer r.logger.Debug("Relay forwarding stopped.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			r.emit(NewPayload(layout(), snap))
		}
	}
}

// Close disconnects from the renderer.
func (r *Relay) Close() {
	if r.io == nil {
		return
	}
	r.logger.Debug("Disconnecting socket client")
	r.io.Disconnect()
}
