package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// scriptConn implements Conn for tests. Frames queued with deliver are
// returned by Read; onWrite, when set, sees every written frame and can
// script replies.
type scriptConn struct {
	mu       sync.Mutex
	frames   chan []byte
	written  [][]byte
	onWrite  func(data []byte)
	writeErr error
	readFail chan error
	closed   bool
	closeCh  chan struct{}
}

func newScriptConn() *scriptConn {
	return &scriptConn{
		frames:   make(chan []byte, 256),
		readFail: make(chan error, 1),
		closeCh:  make(chan struct{}),
	}
}

func (c *scriptConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case data := <-c.frames:
		return websocket.MessageText, data, nil
	case err := <-c.readFail:
		return 0, nil, err
	case <-c.closeCh:
		return 0, nil, errors.New("connection closed")
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (c *scriptConn) Write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("connection closed")
	}
	if c.writeErr != nil {
		err := c.writeErr
		c.mu.Unlock()
		return err
	}
	c.written = append(c.written, data)
	onWrite := c.onWrite
	c.mu.Unlock()

	if onWrite != nil {
		onWrite(data)
	}
	return nil
}

func (c *scriptConn) Close(code websocket.StatusCode, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.closeCh)
	}
	return nil
}

// deliver queues a raw frame for Read.
func (c *scriptConn) deliver(data []byte) {
	c.frames <- data
}

// deliverEvent queues an event frame.
func (c *scriptConn) deliverEvent(method, params, sessionID string) {
	data, _ := json.Marshal(Event{Method: method, Params: json.RawMessage(params), SessionID: sessionID})
	c.deliver(data)
}

// respond queues a success reply for the given command id.
func (c *scriptConn) respond(id uint64, resultJSON string) {
	data, _ := json.Marshal(Response{ID: id, Result: json.RawMessage(resultJSON)})
	c.deliver(data)
}

// respondError queues an error reply for the given command id.
func (c *scriptConn) respondError(id uint64, code int, msg string) {
	data, _ := json.Marshal(Response{ID: id, Error: &Error{Code: code, Message: msg}})
	c.deliver(data)
}

// failRead makes the next Read return err, simulating connection loss.
func (c *scriptConn) failRead(err error) {
	c.readFail <- err
}

// echo makes the conn answer every written command with the given result.
func (c *scriptConn) echo(resultJSON string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWrite = func(data []byte) {
		var msg message
		if err := json.Unmarshal(data, &msg); err == nil && msg.ID != nil {
			c.respond(*msg.ID, resultJSON)
		}
	}
}

// writtenFrames returns a copy of everything written so far.
func (c *scriptConn) writtenFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}

// wasClosed reports whether Close was called.
func (c *scriptConn) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// testConfig returns a config tuned for fast tests: short command timeout,
// silent logger, reconnection off unless a test opts in.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CommandTimeout = 2 * time.Second
	cfg.Reconnect = ReconnectPolicy{}
	return cfg
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}
