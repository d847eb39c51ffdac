package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pinball/internal/store"
)

type stubSessions struct {
	calls []callData
}

func (s *stubSessions) Snapshot(id string) (*store.Snapshot, error) {
	return &store.Snapshot{SessionID: id}, nil
}

func (s *stubSessions) Call(id, elem, cmd string, args []any) (any, error) {
	s.calls = append(s.calls, callData{Element: elem, Command: cmd, Args: args})
	if elem == "Missing" {
		return nil, errors.New("unknown element")
	}
	return true, nil
}

func newTestClient(id uint64, sessionID string, buf int) *Client {
	return &Client{id: id, sessionID: sessionID, send: make(chan []byte, buf)}
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("bad json %s: %v", data, err)
	}
	return m
}

func TestBroadcastReachesOnlyTheSession(t *testing.T) {
	h := NewHub()
	a, b, other := newTestClient(1, "s1", 4), newTestClient(2, "s1", 4), newTestClient(3, "s2", 4)
	h.add(a)
	h.add(b)
	h.add(other)

	snap := &store.Snapshot{
		SessionID: "s1",
		SimTimeMs: 42,
		States:    map[string]map[string]any{"Ball1": {"radius": 25.0}},
		Events:    []store.Event{{Element: "Table1", Name: "Drain", Args: []any{1}}},
	}
	if err := h.PublishStates(context.Background(), snap); err != nil {
		t.Fatal(err)
	}

	for _, c := range []*Client{a, b} {
		if len(c.send) != 1 {
			t.Fatalf("watcher %d got %d messages, want 1", c.id, len(c.send))
		}
		msg := decode(t, <-c.send)
		if msg["type"] != "states" || msg["sim_time_ms"] != 42.0 {
			t.Errorf("message = %v", msg)
		}
		if _, ok := msg["events"]; !ok {
			t.Error("events missing")
		}
	}
	if len(other.send) != 0 {
		t.Error("watcher of another session got the batch")
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := newTestClient(1, "s1", 1)
	h.add(c)
	h.BroadcastToSession("s1", map[string]any{"n": 1})
	h.BroadcastToSession("s1", map[string]any{"n": 2})
	if len(c.send) != 1 {
		t.Fatalf("buffered = %d, want 1", len(c.send))
	}
	if msg := decode(t, <-c.send); msg["n"] != 1.0 {
		t.Errorf("kept %v, want the first message", msg)
	}
}

func TestRemoveClosesSendOnce(t *testing.T) {
	h := NewHub()
	c := newTestClient(1, "s1", 1)
	h.add(c)
	if h.Watchers("s1") != 1 {
		t.Fatalf("Watchers = %d, want 1", h.Watchers("s1"))
	}
	if !h.remove(c) {
		t.Fatal("remove returned false")
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel still open")
	}
	if h.remove(c) {
		t.Error("second remove returned true")
	}
	if h.Watchers("s1") != 0 {
		t.Error("empty room kept")
	}
}

func TestHandleCall(t *testing.T) {
	sess := &stubSessions{}
	c := newTestClient(1, "s1", 1)

	data, _ := json.Marshal(callData{Element: "LeftFlipper", Command: "RotateToEnd"})
	reply := c.handle(sess, Message{Type: "call", ID: "7", Data: data}).(gin.H)
	if reply["type"] != "result" || reply["id"] != "7" || reply["value"] != true {
		t.Errorf("reply = %v", reply)
	}
	if len(sess.calls) != 1 || sess.calls[0].Command != "RotateToEnd" {
		t.Errorf("calls = %+v", sess.calls)
	}

	data, _ = json.Marshal(callData{Element: "Missing", Command: "Fire"})
	reply = c.handle(sess, Message{Type: "call", Data: data}).(gin.H)
	if reply["type"] != "error" {
		t.Errorf("reply = %v, want error", reply)
	}
}

func TestHandleUnknownType(t *testing.T) {
	c := newTestClient(1, "s1", 1)
	reply := c.handle(&stubSessions{}, Message{Type: "dance"}).(gin.H)
	if reply["type"] != "error" {
		t.Errorf("reply = %v", reply)
	}
	reply = c.handle(&stubSessions{}, Message{Type: "ping", ID: "x"}).(gin.H)
	if reply["type"] != "pong" || reply["id"] != "x" {
		t.Errorf("reply = %v", reply)
	}
}

func TestRunClosesDoneOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	h.register <- newTestClient(1, "s1", 1)
	cancel()
	<-h.done
	if h.Watchers("s1") != 0 {
		t.Error("rooms kept after shutdown")
	}
}
