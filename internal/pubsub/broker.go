// Package pubsub provides a small generic publish/subscribe broker used to
// deliver engine events to the interface loop.
package pubsub

import (
	"context"
	"sync"
	"time"
)

// Event wraps a payload with the time it was published.
type Event[T any] struct {
	Payload     T
	PublishedAt time.Time
}

// Broker fans published events out to all active subscribers. Publishing
// never blocks: a subscriber whose buffer is full misses the event.
type Broker[T any] struct {
	mu     sync.RWMutex
	subs   map[chan Event[T]]struct{}
	closed bool
	bufCap int
}

// NewBroker creates a broker whose subscriber channels buffer bufCap events.
func NewBroker[T any](bufCap int) *Broker[T] {
	if bufCap <= 0 {
		bufCap = 64
	}
	return &Broker[T]{
		subs:   make(map[chan Event[T]]struct{}),
		bufCap: bufCap,
	}
}

// Subscribe returns a channel of events. The subscription is removed and the
// channel closed when ctx is done or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	ch := make(chan Event[T], b.bufCap)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}()

	return ch
}

// Publish delivers payload to every subscriber that has buffer space.
func (b *Broker[T]) Publish(payload T) {
	ev := Event[T]{Payload: payload, PublishedAt: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes all subscriber channels. Publish after Close is a no-op.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
