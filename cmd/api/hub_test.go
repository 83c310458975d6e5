package main

import (
	"errors"
	"sync"
	"testing"

	"github.com/PaulBabatuyi/semx/internal/data"
)

// recorder is an EventSender that keeps the ids of what it was sent.
type recorder struct {
	mu     sync.Mutex
	got    []string
	broken bool
}

func (r *recorder) Send(ev chatEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.broken {
		return errors.New("connection reset")
	}
	r.got = append(r.got, ev.Message.ID)
	return nil
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

func msg(id string) chatEvent {
	return chatEvent{Type: "message", Message: data.MessageWithSender{Message: data.Message{ID: id}}}
}

func TestHubFanOutAndUnregister(t *testing.T) {
	hub := NewConnectionHub(nil)
	phone, laptop := &recorder{}, &recorder{}

	phoneID := hub.Register("d1", phone)
	hub.Register("d1", laptop)
	if n := hub.Subscribers("d1"); n != 2 {
		t.Fatalf("subscribers = %d, want 2", n)
	}

	if err := hub.SendToDelivery("d1", msg("m1")); err != nil {
		t.Fatalf("send m1: %v", err)
	}
	hub.Unregister("d1", phoneID)
	if err := hub.SendToDelivery("d1", msg("m2")); err != nil {
		t.Fatalf("send m2: %v", err)
	}

	if got := phone.ids(); len(got) != 1 || got[0] != "m1" {
		t.Fatalf("unregistered connection got %v, want [m1]", got)
	}
	if got := laptop.ids(); len(got) != 2 {
		t.Fatalf("remaining connection got %v, want both messages", got)
	}

	hub.Unregister("d1", phoneID)
	if n := hub.Subscribers("d1"); n != 1 {
		t.Fatalf("double unregister changed subscribers to %d", n)
	}
}

func TestHubScopedToDelivery(t *testing.T) {
	hub := NewConnectionHub(nil)
	mine, theirs := &recorder{}, &recorder{}
	hub.Register("d1", mine)
	hub.Register("d2", theirs)

	hub.Publish("d1", data.MessageWithSender{Message: data.Message{ID: "m1"}})

	if len(mine.ids()) != 1 || len(theirs.ids()) != 0 {
		t.Fatalf("push leaked across deliveries: d1=%v d2=%v", mine.ids(), theirs.ids())
	}
}

func TestHubWithoutSubscribers(t *testing.T) {
	hub := NewConnectionHub(nil)
	if err := hub.SendToDelivery("d9", msg("m")); err == nil {
		t.Fatal("send to an empty room should report an error")
	}
	hub.Publish("d9", data.MessageWithSender{})
}

func TestHubDropsBrokenConnections(t *testing.T) {
	hub := NewConnectionHub(nil)
	healthy, dead := &recorder{}, &recorder{broken: true}
	hub.Register("d1", healthy)
	hub.Register("d1", dead)

	if err := hub.SendToDelivery("d1", msg("m1")); err == nil {
		t.Fatal("a failed write should surface as an error")
	}
	if n := hub.Subscribers("d1"); n != 1 {
		t.Fatalf("broken connection still registered, %d subscribers", n)
	}
	if err := hub.SendToDelivery("d1", msg("m2")); err != nil {
		t.Fatalf("send after cleanup: %v", err)
	}
	if got := healthy.ids(); len(got) != 2 || got[1] != "m2" {
		t.Fatalf("healthy connection got %v", got)
	}
}
