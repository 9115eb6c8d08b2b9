package cdp

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// connState represents the current state of the connection supervisor.
type connState int32

const (
	// stateConnected indicates an active, healthy connection.
	stateConnected connState = iota
	// stateDisconnected indicates the connection was just lost.
	stateDisconnected
	// stateReconnecting indicates a reconnection attempt is in progress.
	stateReconnecting
	// stateFailed indicates reconnection attempts are exhausted. Terminal.
	stateFailed
	// stateClosed indicates the client was closed by the caller. Terminal.
	stateClosed
)

// String returns a human-readable name for the connection state.
func (s connState) String() string {
	switch s {
	case stateConnected:
		return "connected"
	case stateDisconnected:
		return "disconnected"
	case stateReconnecting:
		return "reconnecting"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// jitterPercent is added on top of each backoff delay to avoid reconnect storms.
const jitterPercent = 0.1

// supervisor tracks connection state and computes reconnection delays.
// All transitions are made by the engine goroutine; the state word is
// atomic only so handles can snapshot it without synchronization.
type supervisor struct {
	state  atomic.Int32
	policy ReconnectPolicy
}

func newSupervisor(policy ReconnectPolicy) *supervisor {
	return &supervisor{policy: policy}
}

// State returns the current connection state.
func (s *supervisor) State() connState {
	return connState(s.state.Load())
}

// transition moves the supervisor to a new state. Terminal states are sticky.
func (s *supervisor) transition(next connState) {
	cur := s.State()
	if cur == stateClosed || cur == stateFailed {
		return
	}
	s.state.Store(int32(next))
}

// delay returns how long to wait before the given reconnect attempt
// (1-based). Attempt delays double from the initial delay, capped at the
// maximum, with jitter on top.
func (s *supervisor) delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := float64(s.policy.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= float64(s.policy.MaxDelay) {
			break
		}
	}
	if s.policy.MaxDelay > 0 && d > float64(s.policy.MaxDelay) {
		d = float64(s.policy.MaxDelay)
	}

	d += d * jitterPercent * rand.Float64()
	return time.Duration(d)
}
