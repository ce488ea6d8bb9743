// Package eventbus is a small typed fan-out bus used to stream pipeline
// progress to observers such as loggers and the HTTP API.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the subscriber channel capacity used by New.
const DefaultBuffer = 64

// Bus delivers events of type T to every subscriber. Delivery never blocks
// the publisher: events are dropped for subscribers whose buffer is full.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// New creates a Bus with DefaultBuffer sized subscriptions.
func New[T any]() *Bus[T] { return NewBuffered[T](DefaultBuffer) }

// NewBuffered creates a Bus whose subscriber channels hold size events.
func NewBuffered[T any](size int) *Bus[T] {
	if size < 0 {
		size = 0
	}
	return &Bus[T]{buffer: size}
}

// Publish sends e to all subscribers and returns how many received it.
func (b *Bus[T]) Publish(e T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}
	n := 0
	for _, ch := range b.subs {
		select {
		case ch <- e:
			n++
		default:
			b.dropped.Add(1)
		}
	}
	return n
}

// Dropped returns the number of deliveries skipped because a subscriber was full.
func (b *Bus[T]) Dropped() int64 { return b.dropped.Load() }

// Subscribe registers a subscriber and returns its channel. The channel is
// closed by Unsubscribe or Close.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Forward subscribes to b and calls fn for every event until ctx is done or
// the bus is closed. It blocks; run it in its own goroutine.
func Forward[T any](ctx context.Context, b *Bus[T], fn func(T)) {
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			fn(e)
		}
	}
}
