package web

import (
	"encoding/json"
	"testing"
)

func receiveEvent(t *testing.T, ch <-chan string) Event {
	t.Helper()
	select {
	case raw := <-ch:
		var evt Event
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			t.Fatalf("unmarshal event %q: %v", raw, err)
		}
		return evt
	default:
		t.Fatal("no event received")
		return Event{}
	}
}

func TestEventBroadcaster_DeliversJSON(t *testing.T) {
	b := NewEventBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Broadcast(Event{Kind: "preview", Payload: map[string]interface{}{"seq": 3}})

	evt := receiveEvent(t, ch)
	if evt.Kind != "preview" {
		t.Errorf("kind = %q, want preview", evt.Kind)
	}
	if evt.Time == "" {
		t.Error("timestamp not set")
	}
}

func TestEventBroadcaster_MultipleClients(t *testing.T) {
	b := NewEventBroadcaster()
	a, unsubA := b.Subscribe()
	defer unsubA()
	c, unsubC := b.Subscribe()
	defer unsubC()

	b.BroadcastLog("info", "hello")

	if evt := receiveEvent(t, a); evt.Msg != "hello" {
		t.Errorf("client a got %+v", evt)
	}
	if evt := receiveEvent(t, c); evt.Msg != "hello" {
		t.Errorf("client c got %+v", evt)
	}
}

func TestEventBroadcaster_SlowClientSkipped(t *testing.T) {
	b := NewEventBroadcaster()
	_, unsub := b.Subscribe()
	defer unsub()

	// Overfill the client buffer; Broadcast must never block.
	for i := 0; i < 200; i++ {
		b.BroadcastLog("info", "flood")
	}
}

func TestEventBroadcaster_UnsubscribedClientGetsNothing(t *testing.T) {
	b := NewEventBroadcaster()
	ch, unsub := b.Subscribe()
	unsub()

	b.BroadcastLog("info", "late")

	if _, ok := <-ch; ok {
		t.Error("unsubscribed channel should be closed and empty")
	}

	// A second cleanup call, as deferred handlers can produce, is a no-op.
	unsub()
	b.BroadcastLog("info", "later")
}

func TestBroadcastLog(t *testing.T) {
	b := NewEventBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.BroadcastLog("error", "capture failed")

	evt := receiveEvent(t, ch)
	if evt.Kind != "log" || evt.Level != "error" || evt.Msg != "capture failed" {
		t.Errorf("event = %+v", evt)
	}
}

func TestBroadcastWriter(t *testing.T) {
	b := NewEventBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	w := BroadcastWriter(b)
	n, err := w.Write([]byte("[TurnGo] something happened\n"))
	if err != nil || n != len("[TurnGo] something happened\n") {
		t.Fatalf("Write = (%d, %v)", n, err)
	}

	evt := receiveEvent(t, ch)
	if evt.Kind != "log" || evt.Msg != "[TurnGo] something happened" {
		t.Errorf("event = %+v", evt)
	}
}

func TestBroadcastWriter_SkipsBlankLines(t *testing.T) {
	b := NewEventBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	w := BroadcastWriter(b)
	if _, err := w.Write([]byte("\n")); err != nil {
		t.Fatal(err)
	}

	select {
	case raw := <-ch:
		t.Errorf("unexpected event for blank line: %q", raw)
	default:
	}
}
