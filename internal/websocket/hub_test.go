package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(hub *Hub) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, sendBufferSize),
		logger: testLogger(),
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("event", "synced", "gudstjeneste-abc-202609051000", map[string]any{"synced": 5})

	if msg.Type != "event_synced" {
		t.Errorf("Type = %q, want %q", msg.Type, "event_synced")
	}
	if msg.Entity != "event" {
		t.Errorf("Entity = %q, want %q", msg.Entity, "event")
	}
	if msg.Ref != "gudstjeneste-abc-202609051000" {
		t.Errorf("Ref = %q, want %q", msg.Ref, "gudstjeneste-abc-202609051000")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	c := newTestClient(hub)

	hub.Register(c)
	if n := hub.ClientCount(); n != 1 {
		t.Fatalf("ClientCount = %d, want 1", n)
	}

	hub.Unregister(c)
	if n := hub.ClientCount(); n != 0 {
		t.Fatalf("ClientCount = %d, want 0", n)
	}

	// Unregistering twice must not panic on the closed channel.
	hub.Unregister(c)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(testLogger())
	c1 := newTestClient(hub)
	c2 := newTestClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	hub.Broadcast(NewMessage("post", "updated", "42", nil))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("unmarshal broadcast: %v", err)
			}
			if msg.Type != "post_updated" {
				t.Errorf("Type = %q, want %q", msg.Type, "post_updated")
			}
		default:
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHubBroadcastDropsWhenFull(t *testing.T) {
	hub := NewHub(testLogger())
	c := newTestClient(hub)
	hub.Register(c)

	// Fill the buffer, then broadcast once more. The extra message is
	// dropped rather than blocking the hub.
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("event", "updated", "x", nil))
	}
	hub.Broadcast(NewMessage("event", "updated", "overflow", nil))

	if n := len(c.send); n != sendBufferSize {
		t.Fatalf("buffered = %d, want %d", n, sendBufferSize)
	}
}
