package websocket

import (
	"strings"
	"testing"
	"time"
)

func TestBroadcastEventNeverBlocksWithoutListeners(t *testing.T) {
	hub := NewHub() // not running

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			hub.BroadcastEvent(EventDealSubmitted, map[string]string{"deal_id": "d"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastEvent blocked on a full buffer")
	}
}

func TestRunDeliversEventsToRegisteredClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Hub: hub, Send: make(chan []byte, 4)}
	hub.register <- client

	hub.BroadcastEvent(EventTicketOpened, map[string]string{"ticket_id": "t1", "region": "NOLA"})

	select {
	case msg := <-client.Send:
		if !strings.Contains(string(msg), EventTicketOpened) || !strings.Contains(string(msg), "NOLA") {
			t.Errorf("unexpected payload: %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the client")
	}

	hub.unregister <- client
	if _, ok := <-client.Send; ok {
		t.Errorf("send channel should be closed after unregister")
	}
}

func TestRunDropsClientsWithFullBuffers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// A client that never reads gets evicted rather than stalling the hub
	stuck := &Client{Hub: hub, Send: make(chan []byte)}
	hub.register <- stuck

	hub.BroadcastEvent(EventDealApproved, map[string]string{"deal_id": "d1"})

	select {
	case _, ok := <-stuck.Send:
		if ok {
			t.Errorf("expected the channel closed, got a message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stuck client was never evicted")
	}
}
