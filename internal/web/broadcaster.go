package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Event is a single message pushed to SSE clients: a state snapshot, a
// preview notification, or a log line.
type Event struct {
	Time    string      `json:"t"`
	Kind    string      `json:"kind"` // "table_state" | "camera_state" | "preview" | "log"
	Level   string      `json:"l,omitempty"`
	Msg     string      `json:"msg,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBroadcaster distributes events to multiple SSE clients.
type EventBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

// NewEventBroadcaster creates a new broadcaster.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast events and a cleanup
// function. The caller must call the returned cleanup when done (e.g. on
// client disconnect).
func (b *EventBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		if _, ok := b.clients[ch]; ok {
			delete(b.clients, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsub
}

// Broadcast sends an event to all subscribed clients as JSON.
// Slow clients may miss events (non-blocking, buffered).
func (b *EventBroadcaster) Broadcast(evt Event) {
	evt.Time = time.Now().Format(time.RFC3339)
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// BroadcastLog is a convenience for log events.
func (b *EventBroadcaster) BroadcastLog(level, msg string) {
	b.Broadcast(Event{Kind: "log", Level: level, Msg: msg})
}

// BroadcastWriter implements io.Writer; each Write broadcasts the content
// as a log event. Used with debug.SetOutput to mirror logs to the UI.
func BroadcastWriter(b *EventBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

type broadcastWriter struct {
	b *EventBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.b.BroadcastLog("info", msg)
	}
	return len(p), nil
}
