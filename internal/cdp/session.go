package cdp

import (
	"context"
	"encoding/json"
)

// Session scopes commands and events to one attached target multiplexed over
// the shared connection. It is a capability, not a connection: an opaque id
// plus delegation to the client, safe to share freely.
//
// Sessions do not survive a reconnect; the peer makes no continuity promise
// across a fresh socket, so re-attach after the client reconnects.
type Session struct {
	client *Client
	id     string
}

// ID returns the session identifier assigned by the peer.
func (s *Session) ID() string { return s.id }

// Send sends a command scoped to this session.
func (s *Session) Send(method string, params interface{}) (json.RawMessage, error) {
	return s.SendContext(context.Background(), method, params)
}

// SendContext sends a session-scoped command with a caller context.
func (s *Session) SendContext(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return s.client.eng.submit(ctx, method, params, s.id)
}

// Subscribe registers for events of the given method carrying this
// session's id.
func (s *Session) Subscribe(method string) *EventStream {
	return s.client.eng.subscribe(method, s.id)
}

// Detach detaches from the target. The transport does not require it; the
// session simply stops being usable once the peer confirms.
func (s *Session) Detach(ctx context.Context) error {
	_, err := s.client.eng.submit(ctx, "Target.detachFromTarget", map[string]interface{}{
		"sessionId": s.id,
	}, "")
	return err
}
