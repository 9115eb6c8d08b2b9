package cdp

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultCommandTimeout is the default per-command deadline.
	DefaultCommandTimeout = 30 * time.Second
	// DefaultConnectTimeout is the default deadline for establishing the socket.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultEventBuffer is the default capacity of a subscriber's event channel.
	DefaultEventBuffer = 256
)

// ReconnectPolicy controls how connection loss is retried.
// MaxAttempts of zero disables reconnection entirely.
type ReconnectPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Config holds client configuration. It is immutable once the client is
// connected.
type Config struct {
	// ConnectTimeout bounds each connection attempt, initial and reconnect.
	ConnectTimeout time.Duration

	// CommandTimeout is the engine-enforced deadline for each command.
	// Callers can shorten it further with their own context.
	CommandTimeout time.Duration

	// HeartbeatInterval, when positive, makes an idle engine issue a cheap
	// browser-level command on that interval so a dead socket is detected
	// between user commands. Zero disables the keepalive.
	HeartbeatInterval time.Duration

	// EventBuffer is the capacity of each subscriber's event channel. The
	// engine never blocks on delivery; a full buffer drops that event.
	EventBuffer int

	// Reconnect controls recovery from connection loss.
	Reconnect ReconnectPolicy

	// Logger receives engine diagnostics. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: DefaultConnectTimeout,
		CommandTimeout: DefaultCommandTimeout,
		EventBuffer:    DefaultEventBuffer,
		Reconnect: ReconnectPolicy{
			MaxAttempts:  5,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
		},
		Logger: zerolog.Nop(),
	}
}

// withDefaults fills zero values with the defaults.
func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	return c
}
