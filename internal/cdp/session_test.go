package cdp

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// attachScript answers Target.attachToTarget with the given session id and
// everything else with an empty success.
func attachScript(conn *scriptConn, sessionID string) {
	conn.onWrite = func(data []byte) {
		var msg message
		if err := json.Unmarshal(data, &msg); err != nil || msg.ID == nil {
			return
		}
		if msg.Method == "Target.attachToTarget" {
			conn.respond(*msg.ID, `{"sessionId":"`+sessionID+`"}`)
			return
		}
		conn.respond(*msg.ID, `{}`)
	}
}

func TestClient_AttachTarget(t *testing.T) {
	t.Parallel()

	conn := newScriptConn()
	attachScript(conn, "S1")

	client := NewClient(conn, testConfig())
	defer client.Close()

	session, err := client.AttachTarget(context.Background(), "T1")
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if session.ID() != "S1" {
		t.Errorf("expected session id S1, got %q", session.ID())
	}

	// The attach request itself carries the target id and flatten flag.
	written := conn.writtenFrames()
	if len(written) != 1 {
		t.Fatalf("expected 1 written frame, got %d", len(written))
	}
	var req struct {
		Method string `json:"method"`
		Params struct {
			TargetID string `json:"targetId"`
			Flatten  bool   `json:"flatten"`
		} `json:"params"`
	}
	if err := json.Unmarshal(written[0], &req); err != nil {
		t.Fatalf("failed to unmarshal request: %v", err)
	}
	if req.Method != "Target.attachToTarget" {
		t.Errorf("expected Target.attachToTarget, got %s", req.Method)
	}
	if req.Params.TargetID != "T1" || !req.Params.Flatten {
		t.Errorf("unexpected attach params: %+v", req.Params)
	}
}

func TestClient_AttachTarget_MissingSessionID(t *testing.T) {
	t.Parallel()

	conn := newScriptConn()
	conn.echo(`{}`)

	client := NewClient(conn, testConfig())
	defer client.Close()

	if _, err := client.AttachTarget(context.Background(), "T1"); err == nil {
		t.Fatal("expected error when peer returns no sessionId")
	}
}

func TestSession_Send_StampsSessionID(t *testing.T) {
	t.Parallel()

	conn := newScriptConn()
	attachScript(conn, "S1")

	client := NewClient(conn, testConfig())
	defer client.Close()

	session, err := client.AttachTarget(context.Background(), "T1")
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	if _, err := session.Send("Runtime.evaluate", map[string]string{"expression": "1+1"}); err != nil {
		t.Fatalf("session send failed: %v", err)
	}

	written := conn.writtenFrames()
	if len(written) != 2 {
		t.Fatalf("expected 2 written frames, got %d", len(written))
	}
	var req message
	if err := json.Unmarshal(written[1], &req); err != nil {
		t.Fatalf("failed to unmarshal request: %v", err)
	}
	if req.Method != "Runtime.evaluate" {
		t.Errorf("expected Runtime.evaluate, got %s", req.Method)
	}
	if req.SessionID != "S1" {
		t.Errorf("expected sessionId S1 on the wire, got %q", req.SessionID)
	}
}

func TestSession_Subscribe_FiltersToOwnSession(t *testing.T) {
	t.Parallel()

	conn := newScriptConn()
	attachScript(conn, "S1")

	client := NewClient(conn, testConfig())
	defer client.Close()

	session, err := client.AttachTarget(context.Background(), "T1")
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	stream := session.Subscribe("Page.loadEventFired")
	defer stream.Close()

	conn.deliverEvent("Page.loadEventFired", `{"other":true}`, "S2")
	conn.deliverEvent("Page.loadEventFired", `{"browser":true}`, "")
	conn.deliverEvent("Page.loadEventFired", `{"mine":true}`, "S1")

	select {
	case evt := <-stream.C:
		if string(evt.Params) != `{"mine":true}` {
			t.Errorf("received event for wrong session: %s (sessionId %q)", evt.Params, evt.SessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for session event")
	}

	select {
	case evt := <-stream.C:
		t.Errorf("unexpected extra event: %s sessionId=%q", evt.Params, evt.SessionID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSession_Detach(t *testing.T) {
	t.Parallel()

	conn := newScriptConn()
	attachScript(conn, "S1")

	client := NewClient(conn, testConfig())
	defer client.Close()

	session, err := client.AttachTarget(context.Background(), "T1")
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if err := session.Detach(context.Background()); err != nil {
		t.Fatalf("detach failed: %v", err)
	}

	written := conn.writtenFrames()
	var req struct {
		Method string `json:"method"`
		Params struct {
			SessionID string `json:"sessionId"`
		} `json:"params"`
	}
	if err := json.Unmarshal(written[len(written)-1], &req); err != nil {
		t.Fatalf("failed to unmarshal request: %v", err)
	}
	if req.Method != "Target.detachFromTarget" {
		t.Errorf("expected Target.detachFromTarget, got %s", req.Method)
	}
	if req.Params.SessionID != "S1" {
		t.Errorf("expected detach of S1, got %q", req.Params.SessionID)
	}
}
