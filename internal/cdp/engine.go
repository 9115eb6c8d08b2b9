package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

// heartbeatMethod is the cheap browser-level command used as a keepalive
// probe when Config.HeartbeatInterval is set.
const heartbeatMethod = "Target.getTargets"

// command is a Send request handed to the engine by a handle.
type command struct {
	method    string
	params    interface{}
	sessionID string
	reply     chan result // buffered, single handoff
}

// result is the outcome of a command: a value or a typed failure.
type result struct {
	value json.RawMessage
	err   error
}

// pendingRequest tracks a transmitted command awaiting its reply. It is
// resolved exactly once: by a matching reply, by deadline expiry, or by
// connection loss.
type pendingRequest struct {
	method   string
	reply    chan result
	deadline time.Time
}

// subscriber is a registered event consumer. It is removed lazily: when a
// delivery attempt finds its done channel closed, the engine closes the
// events channel and forgets it.
type subscriber struct {
	method    string
	sessionID string
	events    chan Event
	done      chan struct{}
}

// engine is the exclusive owner of the socket, the pending-request table,
// the subscriber registry and the id counter. Handles reach it only through
// the commands/subs/closing channels, so none of the loop-owned state needs
// locking.
type engine struct {
	cfg  Config
	log  zerolog.Logger
	dial dialer
	sup  *supervisor

	commands  chan *command
	subs      chan *subscriber
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	// Owned by the run goroutine.
	nextID      uint64
	pending     map[uint64]*pendingRequest
	subscribers []*subscriber
}

func newEngine(dial dialer, cfg Config) *engine {
	return &engine{
		cfg:      cfg,
		log:      cfg.Logger,
		dial:     dial,
		sup:      newSupervisor(cfg.Reconnect),
		commands: make(chan *command),
		subs:     make(chan *subscriber),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		pending:  make(map[uint64]*pendingRequest),
	}
}

// run drives the engine until the client is closed or the connection is
// permanently lost. The id counter and subscriber registrations survive a
// reconnect; pending requests do not.
func (e *engine) run(conn Conn) {
	defer close(e.done)

	for {
		err := e.serve(conn)
		if err == nil {
			e.shutdown(stateClosed, ErrClientClosed)
			return
		}

		e.sup.transition(stateDisconnected)
		e.log.Warn().Err(err).Msg("connection lost")
		e.failPending(ErrConnectionClosed)

		next, rerr := e.redial()
		if rerr != nil {
			final := stateFailed
			if rerr == ErrClientClosed {
				final = stateClosed
			}
			e.shutdown(final, rerr)
			return
		}
		conn = next
		e.sup.transition(stateConnected)
		e.log.Info().Msg("reconnected")
	}
}

// serve runs the event loop over one physical connection. It returns nil
// when the client is closing, or the connection error that ended the loop.
func (e *engine) serve(conn Conn) error {
	defer conn.Close(websocket.StatusNormalClosure, "client closing")

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go readFrames(conn, frames, readErr, stop)

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	var heartbeatC <-chan time.Time
	if e.cfg.HeartbeatInterval > 0 {
		heartbeat := time.NewTicker(e.cfg.HeartbeatInterval)
		defer heartbeat.Stop()
		heartbeatC = heartbeat.C
	}

	for {
		e.armTimer(timer)
		select {
		case <-e.closing:
			return nil
		case data := <-frames:
			e.route(data)
		case err := <-readErr:
			return err
		case cmd := <-e.commands:
			if err := e.accept(conn, cmd); err != nil {
				return err
			}
		case sub := <-e.subs:
			e.subscribers = append(e.subscribers, sub)
		case now := <-timer.C:
			e.expire(now)
		case <-heartbeatC:
			probe := &command{method: heartbeatMethod, reply: make(chan result, 1)}
			if err := e.accept(conn, probe); err != nil {
				return err
			}
		}
	}
}

// readFrames feeds inbound frames to the loop until the connection errors
// or the loop is done with this connection.
func readFrames(conn Conn, frames chan<- []byte, errc chan<- error, stop <-chan struct{}) {
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			errc <- err
			return
		}
		select {
		case frames <- data:
		case <-stop:
			return
		}
	}
}

// accept registers a pending request for cmd and writes it to the socket.
// A marshal failure resolves the command and keeps the connection; a write
// failure is returned so the loop tears the connection down.
func (e *engine) accept(conn Conn, cmd *command) error {
	e.nextID++
	id := e.nextID

	req := Request{ID: id, Method: cmd.method, Params: cmd.params, SessionID: cmd.sessionID}
	data, err := json.Marshal(req)
	if err != nil {
		cmd.reply <- result{err: fmt.Errorf("cdp: marshal %s request: %w", cmd.method, err)}
		return nil
	}

	e.pending[id] = &pendingRequest{
		method:   cmd.method,
		reply:    cmd.reply,
		deadline: time.Now().Add(e.cfg.CommandTimeout),
	}
	commandsSent.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.CommandTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// route classifies an inbound frame and dispatches it. Malformed frames are
// counted and dropped; they never terminate the connection.
func (e *engine) route(data []byte) {
	resp, evt, err := parseMessage(data)
	if err != nil {
		malformedFrames.Inc()
		e.log.Warn().Err(err).Msg("dropping malformed frame")
		return
	}
	if resp != nil {
		e.routeResponse(resp)
		return
	}
	e.routeEvent(evt)
}

// routeResponse resolves the pending request matching the reply id. A reply
// with no pending match is dropped; a sessionId on the reply is not
// validated, correlation is by id alone.
func (e *engine) routeResponse(resp *Response) {
	p, ok := e.pending[resp.ID]
	if !ok {
		repliesUnmatched.Inc()
		e.log.Debug().Uint64("id", resp.ID).Msg("reply matches no pending command")
		return
	}
	delete(e.pending, resp.ID)
	repliesMatched.Inc()

	if resp.Error != nil {
		p.reply <- result{err: resp.Error}
		return
	}
	p.reply <- result{value: resp.Result}
}

// routeEvent delivers evt to every subscriber whose method and session match
// exactly. Browser-level subscriptions (empty session) receive only
// browser-level events. Delivery never blocks the loop: a gone consumer is
// removed, a full buffer drops this one event.
func (e *engine) routeEvent(evt *Event) {
	kept := e.subscribers[:0]
	for _, s := range e.subscribers {
		if s.method != evt.Method || s.sessionID != evt.SessionID {
			kept = append(kept, s)
			continue
		}

		select {
		case <-s.done:
			close(s.events)
			continue
		default:
		}

		select {
		case s.events <- *evt:
			eventsDispatched.Inc()
		default:
			eventsDropped.Inc()
			e.log.Warn().Str("method", evt.Method).Msg("subscriber buffer full, event dropped")
		}
		kept = append(kept, s)
	}
	e.subscribers = kept
}

// expire resolves every pending request whose deadline has passed. Other
// pending requests are untouched.
func (e *engine) expire(now time.Time) {
	for id, p := range e.pending {
		if p.deadline.After(now) {
			continue
		}
		delete(e.pending, id)
		commandTimeouts.Inc()
		p.reply <- result{err: &TimeoutError{Method: p.method}}
	}
}

// armTimer points the loop timer at the nearest pending deadline.
func (e *engine) armTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}

	next := time.Hour
	for _, p := range e.pending {
		if d := time.Until(p.deadline); d < next {
			next = d
		}
	}
	if next < 0 {
		next = 0
	}
	t.Reset(next)
}

// redial attempts to re-establish the connection under the reconnect policy.
func (e *engine) redial() (Conn, error) {
	if e.dial == nil || e.cfg.Reconnect.MaxAttempts <= 0 {
		return nil, ErrReconnectExhausted
	}
	e.sup.transition(stateReconnecting)

	for attempt := 1; attempt <= e.cfg.Reconnect.MaxAttempts; attempt++ {
		wait := time.NewTimer(e.sup.delay(attempt))
		select {
		case <-wait.C:
		case <-e.closing:
			wait.Stop()
			return nil, ErrClientClosed
		}

		reconnectAttempts.Inc()
		e.log.Info().Int("attempt", attempt).Int("max", e.cfg.Reconnect.MaxAttempts).Msg("reconnecting")

		conn, err := e.dial(context.Background())
		if err != nil {
			e.log.Warn().Err(err).Msg("reconnect attempt failed")
			continue
		}
		return conn, nil
	}
	return nil, ErrReconnectExhausted
}

// shutdown resolves all outstanding work and parks the engine in a terminal
// state. It must run before the done channel closes so handles observing
// done read a settled state.
func (e *engine) shutdown(final connState, err error) {
	e.failPending(err)
	e.closeSubscribers()
	e.sup.transition(final)
	e.log.Info().Str("state", final.String()).Msg("engine stopped")
}

// failPending resolves every pending request with err.
func (e *engine) failPending(err error) {
	for id, p := range e.pending {
		delete(e.pending, id)
		p.reply <- result{err: err}
	}
}

// closeSubscribers ends every event stream.
func (e *engine) closeSubscribers() {
	for _, s := range e.subscribers {
		close(s.events)
	}
	e.subscribers = nil
}

// submit hands a command to the engine and waits for its outcome. The
// engine resolves the pending request regardless of whether the caller is
// still waiting, so abandoning the wait leaks nothing.
func (e *engine) submit(ctx context.Context, method string, params interface{}, sessionID string) (json.RawMessage, error) {
	cmd := &command{
		method:    method,
		params:    params,
		sessionID: sessionID,
		reply:     make(chan result, 1),
	}

	select {
	case e.commands <- cmd:
	case <-e.done:
		return nil, e.terminalErr()
	case <-ctx.Done():
		return nil, fmt.Errorf("cdp: %s: %w", method, ctx.Err())
	}

	select {
	case res := <-cmd.reply:
		return res.value, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("cdp: %s: %w", method, ctx.Err())
	}
}

// subscribe registers an event subscriber and returns its stream. Once the
// channel send succeeds the registration is complete: the engine appends the
// subscriber before it services another wakeup.
func (e *engine) subscribe(method, sessionID string) *EventStream {
	sub := &subscriber{
		method:    method,
		sessionID: sessionID,
		events:    make(chan Event, e.cfg.EventBuffer),
		done:      make(chan struct{}),
	}
	stream := &EventStream{C: sub.events, done: sub.done}

	select {
	case e.subs <- sub:
	case <-e.done:
		close(sub.events)
	}
	return stream
}

// terminalErr maps the engine's final state to the error handed to callers
// who arrive after it stopped.
func (e *engine) terminalErr() error {
	switch e.sup.State() {
	case stateClosed:
		return ErrClientClosed
	case stateFailed:
		return ErrReconnectExhausted
	default:
		return ErrEngineUnavailable
	}
}

// close requests shutdown and waits for the engine to stop.
func (e *engine) close() {
	e.closeOnce.Do(func() { close(e.closing) })
	<-e.done
}
