package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("state.", 10)
	defer unsub()

	b.Publish(Now(KindStateUpdated, "chat-1"))

	select {
	case evt := <-ch:
		if evt.Kind != KindStateUpdated {
			t.Errorf("got kind %q, want %q", evt.Kind, KindStateUpdated)
		}
		if evt.Payload != "chat-1" {
			t.Errorf("payload = %v, want chat-1", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conn.", 10)
	defer unsub()

	b.Publish(Now(KindStateUpdated, nil))
	b.Publish(Now(KindConnOpen, nil))

	select {
	case evt := <-ch:
		if evt.Kind != KindConnOpen {
			t.Errorf("got kind %q, want %q", evt.Kind, KindConnOpen)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected second event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("state.", 10)
	unsub()

	b.Publish(Now(KindStateReset, nil))

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("state.", 1)
	defer unsub()

	b.Publish(Now(KindStateUpdated, 1))
	// Buffer is full; this one is dropped instead of blocking.
	b.Publish(Now(KindStateUpdated, 2))

	evt := <-ch
	if evt.Payload != 1 {
		t.Errorf("payload = %v, want 1", evt.Payload)
	}
}
