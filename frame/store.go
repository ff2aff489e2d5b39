package frame

import (
	"context"
	"sync"
)

// Store publishes the most recent Frame.  Publishing swaps the current frame
// under a lock so readers always receive a complete frame, and the replaced
// frame is only freed after its last reader releases it.
type Store struct {
	mu      sync.Mutex
	current *Frame
	seq     uint64
	// changed is closed and replaced on every publish to wake waiters
	changed chan struct{}
}

// NewStore returns an empty frame store
func NewStore() *Store {
	return &Store{
		changed: make(chan struct{}),
	}
}

// Publish makes f the current frame.  The store takes over the caller's
// reference to f.
func (s *Store) Publish(f *Frame) {
	s.mu.Lock()
	s.seq++
	f.Seq = s.seq
	old := s.current
	s.current = f
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()

	if old != nil {
		old.Release()
	}
}

// Acquire returns the current frame with a reference held for the caller,
// or nil if nothing has been published yet
func (s *Store) Acquire() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}

	return s.current.Retain()
}

// Wait blocks until a frame with a sequence number greater than after is
// available and returns it with a reference held for the caller
func (s *Store) Wait(ctx context.Context, after uint64) (*Frame, error) {
	for {
		s.mu.Lock()

		if s.current != nil && s.current.Seq > after {
			f := s.current.Retain()
			s.mu.Unlock()
			return f, nil
		}

		changed := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

// Seq returns the sequence number of the latest published frame
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close drops the store's reference to the current frame
func (s *Store) Close() {
	s.mu.Lock()
	old := s.current
	s.current = nil
	s.mu.Unlock()

	if old != nil {
		old.Release()
	}
}
