package identity

import "testing"

func TestHubPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()

	var got []Event
	cancel := hub.Subscribe(func(evt Event) {
		got = append(got, evt)
	})
	defer cancel()

	hub.Publish(Event{SessionID: "s1", Identity: &Identity{ID: "u1"}})
	hub.Publish(Event{SessionID: "s1", Identity: nil})

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Identity == nil || got[0].Identity.ID != "u1" {
		t.Fatalf("unexpected first event %+v", got[0])
	}
	if got[1].Identity != nil {
		t.Fatal("expected sign-out event to carry nil identity")
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	hub := NewHub()

	count := 0
	cancel := hub.Subscribe(func(Event) { count++ })

	hub.Publish(Event{SessionID: "s1"})
	cancel()
	hub.Publish(Event{SessionID: "s1"})

	if count != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", count)
	}
}

func TestHubMultipleSubscribers(t *testing.T) {
	hub := NewHub()

	a, b := 0, 0
	hub.Subscribe(func(Event) { a++ })
	hub.Subscribe(func(Event) { b++ })

	hub.Publish(Event{SessionID: "s1"})

	if a != 1 || b != 1 {
		t.Fatalf("expected both subscribers notified, got a=%d b=%d", a, b)
	}
}
