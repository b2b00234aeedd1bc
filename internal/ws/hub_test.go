package ws

import (
	"testing"

	"github.com/google/uuid"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	questionID := uuid.New()
	other := uuid.New()

	watching := &Client{send: make(chan []byte, 1)}
	elsewhere := &Client{send: make(chan []byte, 1)}
	hub.register(questionID, watching)
	hub.register(other, elsewhere)

	hub.Broadcast(questionID, []byte("update"))

	select {
	case payload := <-watching.send:
		if string(payload) != "update" {
			t.Errorf("unexpected payload %q", payload)
		}
	default:
		t.Fatal("expected watching client to receive the update")
	}

	select {
	case payload := <-elsewhere.send:
		t.Fatalf("client on another question received %q", payload)
	default:
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub(nil)
	questionID := uuid.New()

	slow := &Client{send: make(chan []byte, 1)}
	hub.register(questionID, slow)

	// Fill the buffer, then broadcast again; the extra update is dropped
	// instead of blocking the hub.
	hub.Broadcast(questionID, []byte("first"))
	hub.Broadcast(questionID, []byte("second"))

	if got := <-slow.send; string(got) != "first" {
		t.Errorf("expected buffered update %q, got %q", "first", got)
	}
	select {
	case payload := <-slow.send:
		t.Fatalf("expected second update to be dropped, got %q", payload)
	default:
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub(nil)
	questionID := uuid.New()

	c := &Client{send: make(chan []byte, 1)}
	hub.register(questionID, c)
	hub.unregister(questionID, c)

	hub.Broadcast(questionID, []byte("update"))

	select {
	case payload := <-c.send:
		t.Fatalf("unregistered client received %q", payload)
	default:
	}

	if len(hub.clients) != 0 {
		t.Errorf("expected empty client map, got %d entries", len(hub.clients))
	}
}
