package worker

import "sync"

// DefaultBroadcastBuffer is the per-subscriber ring size.
const DefaultBroadcastBuffer = 64

// Broadcaster distributes immutable state snapshots to multiple
// subscribers. Each subscriber has a bounded buffer; when it fills, the
// oldest buffered snapshot is evicted so the newest always fits. Slow
// subscribers therefore observe a coalesced but order-preserving
// subsequence of states, never a stall of the publisher.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[chan T]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster with the given per-subscriber
// buffer size; size <= 0 selects DefaultBroadcastBuffer.
func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	if buffer <= 0 {
		buffer = DefaultBroadcastBuffer
	}
	return &Broadcaster[T]{
		subs:   make(map[chan T]struct{}),
		buffer: buffer,
	}
}

// Subscribe returns a channel that receives published snapshots and a
// cleanup function. The caller must call the cleanup when done.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsub
}

// Publish sends a snapshot to every subscriber, evicting the oldest
// buffered snapshot of any subscriber whose buffer is full.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Ring full: evict the oldest, then retry. If the
			// subscriber raced us and emptied a slot, the eviction
			// no-ops and the retry succeeds.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Drain discards everything currently buffered on a subscription
// channel. Used before a sync-wait to get rid of stale snapshots.
func Drain[T any](ch <-chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
