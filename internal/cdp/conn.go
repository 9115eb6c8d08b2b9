// Package cdp provides a Chrome DevTools Protocol client: a single WebSocket
// connection multiplexing request/response commands, event subscriptions and
// per-target sessions, with automatic reconnection.
package cdp

import (
	"context"
	"time"

	"github.com/coder/websocket"
)

// Conn defines the interface for a WebSocket connection.
// This abstraction enables testing with scripted connections.
type Conn interface {
	// Read reads a message from the connection.
	// Returns message type, payload, and any error.
	Read(ctx context.Context) (websocket.MessageType, []byte, error)

	// Write writes a message to the connection.
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error

	// Close closes the connection with a status code and reason.
	Close(code websocket.StatusCode, reason string) error
}

// dialer establishes a fresh Conn. The engine holds one for reconnection;
// a nil dialer makes any connection loss terminal.
type dialer func(ctx context.Context) (Conn, error)

// websocketDialer returns a dialer for wsURL honoring connectTimeout.
// Failures are wrapped in *ConnectError.
func websocketDialer(wsURL string, connectTimeout time.Duration) dialer {
	return func(ctx context.Context) (Conn, error) {
		if connectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, connectTimeout)
			defer cancel()
		}
		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			return nil, &ConnectError{URL: wsURL, Err: err}
		}
		return conn, nil
	}
}
