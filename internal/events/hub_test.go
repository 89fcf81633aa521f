package events

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func testSubscriber(orgID string) *subscriber {
	return &subscriber{
		orgID:  orgID,
		send:   make(chan *Event, sendBuffer),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
}

func TestPublishScopedToOrganization(t *testing.T) {
	hub := NewHub(nil)

	acme := testSubscriber("org_acme")
	rival := testSubscriber("org_rival")
	hub.add(acme)
	hub.add(rival)

	hub.Publish("org_acme", "transcript.created", map[string]string{"id": "tr_1"})

	select {
	case e := <-acme.send:
		if e.Type != "transcript.created" {
			t.Errorf("Type = %q", e.Type)
		}
		var payload map[string]string
		if err := json.Unmarshal(e.Payload, &payload); err != nil || payload["id"] != "tr_1" {
			t.Errorf("Payload = %s, err = %v", e.Payload, err)
		}
	default:
		t.Fatal("subscriber in the publishing org received nothing")
	}

	select {
	case e := <-rival.send:
		t.Fatalf("other organization received event %+v", e)
	default:
	}
}

func TestPublishDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub(nil)

	slow := testSubscriber("org_1")
	hub.add(slow)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer+10; i++ {
			hub.Publish("org_1", "metrics.updated", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	if got := len(slow.send); got != sendBuffer {
		t.Errorf("buffered events = %d, want %d", got, sendBuffer)
	}
}

func TestRemoveForgetsSubscriber(t *testing.T) {
	hub := NewHub(nil)

	sub := testSubscriber("org_1")
	hub.add(sub)
	if got := hub.SubscriberCount("org_1"); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}

	hub.remove(sub)
	if got := hub.SubscriberCount("org_1"); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}

	hub.Publish("org_1", "transcript.created", nil)
	select {
	case e := <-sub.send:
		t.Fatalf("removed subscriber received event %+v", e)
	default:
	}
}
