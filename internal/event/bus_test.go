package event

import "testing"

func TestPublishFansOut(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	bus.Publish(Event{Resource: "datasets", Action: "created", ID: "d-1"})

	for _, ch := range []chan Event{a, b} {
		got := <-ch
		if got.Resource != "datasets" || got.Action != "created" || got.ID != "d-1" {
			t.Fatalf("got %+v", got)
		}
	}
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	// Overflow the buffer; Publish must not block.
	for i := 0; i < 32; i++ {
		bus.Publish(Event{Resource: "session", Action: "click", ID: "s"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("len=%d, want full buffer %d", len(ch), cap(ch))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after unsubscribe")
	}
	bus.Publish(Event{Resource: "datasets", Action: "created", ID: "d"})
}
