package feed

import (
	"context"
	"sync"
)

// Slot holds at most one pending value. Put overwrites unconditionally
// (last write wins); TryTake drains it. Used for the pending controller
// config (any task may queue an update, the control loop applies at most
// one per tick) and for the latest controller status.
type Slot[T any] struct {
	mu   sync.Mutex
	v    T
	full bool
	wake chan struct{} // closed and replaced on every Put
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{wake: make(chan struct{})}
}

// Put stores v, discarding any previous value. Never blocks.
func (s *Slot[T]) Put(v T) {
	s.mu.Lock()
	s.v = v
	s.full = true
	close(s.wake)
	s.wake = make(chan struct{})
	s.mu.Unlock()
}

// TryTake removes and returns the pending value, if any. Never blocks.
func (s *Slot[T]) TryTake() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		var zero T
		return zero, false
	}
	v := s.v
	var zero T
	s.v = zero
	s.full = false
	return v, true
}

// Peek returns the pending value without removing it.
func (s *Slot[T]) Peek() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v, s.full
}

// Wait blocks until a value is present and returns it without removing it,
// so any number of observers can wait for the first publication and poll
// with Peek thereafter.
func (s *Slot[T]) Wait(ctx context.Context) (T, error) {
	for {
		s.mu.Lock()
		if s.full {
			v := s.v
			s.mu.Unlock()
			return v, nil
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-wake:
		}
	}
}
