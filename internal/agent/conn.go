package agent

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ZerkerEOD/hostlink/internal/config"
	"github.com/ZerkerEOD/hostlink/pkg/debug"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a close frame to the peer
	closeWait = 2 * time.Second

	// Websocket buffer sizes
	wsBufferSize = 64 * 1024
)

// Dial opens the single peer connection over the configured transport.
// There is no retry; a failure here is fatal to the client.
func Dial(ctx context.Context, cfg *config.Config) (io.ReadWriteCloser, error) {
	switch cfg.Transport {
	case config.TransportWebSocket:
		return dialWebSocket(ctx, cfg)
	case config.TransportTCP, "":
		return dialTCP(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

func dialTCP(ctx context.Context, cfg *config.Config) (io.ReadWriteCloser, error) {
	addr := cfg.Address()
	debug.Info("Connecting to %s over tcp", addr)

	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		debug.Error("Failed to connect to %s: %v", addr, err)
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	debug.Info("Connected to %s (local %s)", conn.RemoteAddr(), conn.LocalAddr())
	return conn, nil
}

func dialWebSocket(ctx context.Context, cfg *config.Config) (io.ReadWriteCloser, error) {
	wsURL := cfg.WebSocketURL()
	debug.Info("Connecting to %s over websocket", wsURL)

	dialer := websocket.Dialer{
		ReadBufferSize:   wsBufferSize,
		WriteBufferSize:  wsBufferSize,
		HandshakeTimeout: cfg.DialTimeout,
	}

	ws, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			debug.Error("WebSocket connection failed with status: %d", resp.StatusCode)
			resp.Body.Close()
		} else {
			debug.Error("WebSocket connection failed with no response: %v", err)
		}
		return nil, fmt.Errorf("failed to connect to WebSocket server %s: %w", wsURL, err)
	}

	debug.Info("Successfully established WebSocket connection")
	return newWSConn(ws), nil
}
