// Package feed provides the daemon's data-distribution primitives: a
// single-producer broadcast of the latest value with per-consumer cursors,
// and a single-value publish-latest slot.
//
// Both are lock-per-operation with no lock held across a wait, so the
// producer never blocks on any consumer.
package feed

import (
	"context"
	"sync"
)

// Feed broadcasts the latest published value to any number of independent
// receivers. Each publish bumps a monotonically increasing sequence number;
// a receiver that falls behind skips straight to the newest value
// (lossy-but-monotonic), it never stalls the producer.
type Feed[T any] struct {
	mu     sync.Mutex
	seq    uint64
	latest T
	wake   chan struct{} // closed and replaced on every publish
}

// New creates an empty feed.
func New[T any]() *Feed[T] {
	return &Feed[T]{wake: make(chan struct{})}
}

// Publish stores v as the latest value and wakes all waiting receivers.
// Never blocks.
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	f.seq++
	f.latest = v
	close(f.wake)
	f.wake = make(chan struct{})
	f.mu.Unlock()
}

// Latest returns the most recent value, its sequence number, and whether
// anything has been published yet. Never blocks.
func (f *Feed[T]) Latest() (T, uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.seq, f.seq > 0
}

// Subscribe creates a receiver whose cursor starts before the oldest
// publication: its first Next returns the current value if one exists.
func (f *Feed[T]) Subscribe() *Receiver[T] {
	return &Receiver[T]{feed: f}
}

// Receiver is one consumer's view of a Feed. Each receiver tracks its own
// cursor; receivers are independent and must not be shared between
// goroutines.
type Receiver[T any] struct {
	feed   *Feed[T]
	cursor uint64
}

// Next returns the newest value with a sequence number strictly greater
// than the receiver's cursor, waiting until one is published. Successive
// calls therefore observe strictly increasing sequence numbers.
func (r *Receiver[T]) Next(ctx context.Context) (T, uint64, error) {
	for {
		r.feed.mu.Lock()
		if r.feed.seq > r.cursor {
			v, seq := r.feed.latest, r.feed.seq
			r.feed.mu.Unlock()
			r.cursor = seq
			return v, seq, nil
		}
		wake := r.feed.wake
		r.feed.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, 0, ctx.Err()
		case <-wake:
		}
	}
}

// Seen returns the sequence number of the last value this receiver
// observed (zero if none yet).
func (r *Receiver[T]) Seen() uint64 {
	return r.cursor
}
