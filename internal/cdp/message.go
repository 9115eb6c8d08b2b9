package cdp

import (
	"encoding/json"
	"fmt"
)

// Request represents an outgoing CDP command.
type Request struct {
	ID        uint64      `json:"id"`
	Method    string      `json:"method"`
	Params    interface{} `json:"params,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
}

// Response represents a CDP command response, correlated to a Request by ID.
type Response struct {
	ID        uint64          `json:"id"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// Event represents a CDP event notification. Events carry no ID.
type Event struct {
	Method    string          `json:"method"`
	Params    json.RawMessage `json:"params"`
	SessionID string          `json:"sessionId,omitempty"`
}

// message is used internally to classify inbound frames. ID is a pointer
// so that a present-but-zero id still classifies as a response.
type message struct {
	ID        *uint64         `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

// parseMessage parses a raw CDP frame and returns either a Response or an Event.
// The presence of "id" is the sole discriminator: with it the frame is a
// response, without it a non-empty "method" makes it an event. Anything else
// is malformed and the returned error wraps ErrMalformedMessage.
func parseMessage(data []byte) (*Response, *Event, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	if msg.ID != nil {
		return &Response{
			ID:        *msg.ID,
			Result:    msg.Result,
			Error:     msg.Error,
			SessionID: msg.SessionID,
		}, nil, nil
	}

	if msg.Method != "" {
		return nil, &Event{
			Method:    msg.Method,
			Params:    msg.Params,
			SessionID: msg.SessionID,
		}, nil
	}

	return nil, nil, fmt.Errorf("%w: neither response nor event: %s", ErrMalformedMessage, data)
}
