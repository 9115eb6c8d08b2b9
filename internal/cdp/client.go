package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Client is the shareable entry point to the transport engine. It owns no
// mutable state of its own, only channel endpoints into the engine, so it is
// safe to copy across concurrent callers.
type Client struct {
	eng *engine
}

// Dial connects to a CDP WebSocket endpoint and returns a running client.
// The connection must be established within cfg.ConnectTimeout; failures are
// reported as *ConnectError.
func Dial(ctx context.Context, wsURL string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	dial := websocketDialer(wsURL, cfg.ConnectTimeout)
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	return start(conn, dial, cfg), nil
}

// NewClient wraps an established connection. Without an address to redial,
// any connection loss is terminal regardless of the reconnect policy.
func NewClient(conn Conn, cfg Config) *Client {
	return start(conn, nil, cfg.withDefaults())
}

func start(conn Conn, dial dialer, cfg Config) *Client {
	eng := newEngine(dial, cfg)
	go eng.run(conn)
	return &Client{eng: eng}
}

// Send sends a browser-level command and waits for its reply under the
// configured command timeout.
func (c *Client) Send(method string, params interface{}) (json.RawMessage, error) {
	return c.SendContext(context.Background(), method, params)
}

// SendContext sends a browser-level command with a caller-supplied context.
// The engine's per-command timeout still applies; whichever deadline is
// reached first resolves the call.
func (c *Client) SendContext(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return c.eng.submit(ctx, method, params, "")
}

// Subscribe registers for browser-level events of the given method. Only
// events without a sessionId are delivered; session-scoped events go to
// Session.Subscribe streams.
func (c *Client) Subscribe(method string) *EventStream {
	return c.eng.subscribe(method, "")
}

// SubscribeSession registers for events of the given method scoped to a
// session id obtained out of band. Session.Subscribe is the usual path.
func (c *Client) SubscribeSession(method, sessionID string) *EventStream {
	return c.eng.subscribe(method, sessionID)
}

// AttachTarget attaches to a target and returns the session scoping
// subsequent commands and events to it.
func (c *Client) AttachTarget(ctx context.Context, targetID string) (*Session, error) {
	res, err := c.eng.submit(ctx, "Target.attachToTarget", map[string]interface{}{
		"targetId": targetID,
		"flatten":  true,
	}, "")
	if err != nil {
		return nil, err
	}

	var attached struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(res, &attached); err != nil {
		return nil, fmt.Errorf("cdp: parse attachToTarget result: %w", err)
	}
	if attached.SessionID == "" {
		return nil, fmt.Errorf("cdp: attachToTarget returned no sessionId")
	}
	return &Session{client: c, id: attached.SessionID}, nil
}

// Close stops the engine. All pending commands fail with ErrClientClosed and
// every event stream is closed. Close is idempotent.
func (c *Client) Close() error {
	c.eng.close()
	return nil
}

// Connected reports whether the client currently has a live connection.
func (c *Client) Connected() bool {
	return c.eng.sup.State() == stateConnected
}

// EventStream delivers matching events to one subscriber, in the order the
// engine read them from the socket. The channel is closed when the client
// shuts down or the connection is permanently lost.
type EventStream struct {
	// C receives the events.
	C <-chan Event

	done chan struct{}
	once sync.Once
}

// Close is the unsubscribe signal. The engine notices it on the next
// delivery attempt, closes C and drops the subscriber; no explicit
// acknowledgement is needed. Close is idempotent.
func (s *EventStream) Close() {
	s.once.Do(func() { close(s.done) })
}
