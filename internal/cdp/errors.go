package cdp

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrConnectionClosed indicates the socket died while work was in flight.
	// Pending commands are resolved with it; the connection itself may still
	// recover through reconnection.
	ErrConnectionClosed = errors.New("cdp: connection closed")

	// ErrClientClosed indicates Close was called on the client.
	ErrClientClosed = errors.New("cdp: client closed")

	// ErrReconnectExhausted indicates all reconnection attempts failed.
	// This is terminal: the client is permanently unusable.
	ErrReconnectExhausted = errors.New("cdp: reconnect attempts exhausted")

	// ErrMalformedMessage indicates an inbound frame matched neither the
	// response nor the event shape.
	ErrMalformedMessage = errors.New("cdp: malformed message")

	// ErrEngineUnavailable indicates the transport engine stopped without
	// recording why. Callers should treat it like a closed client.
	ErrEngineUnavailable = errors.New("cdp: transport engine unavailable")
)

// Error represents a CDP protocol error reported by the remote peer for a
// specific command. It is scoped to that command only, never to the connection.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("cdp error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("cdp error %d: %s", e.Code, e.Message)
}

// ConnectError represents a failure to establish the WebSocket connection.
type ConnectError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("cdp: connect %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying dial error.
func (e *ConnectError) Unwrap() error { return e.Err }

// Timeout reports whether the connection attempt failed by running out of
// time rather than being refused.
func (e *ConnectError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// TimeoutError represents a command that received no reply before its deadline.
type TimeoutError struct {
	Method string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("cdp: command %s timed out", e.Method)
}
