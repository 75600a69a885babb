// Package sequencer serializes work per key: at most one operation per key is in
// flight at a time while different keys proceed concurrently.
//
// Commands key on the delivery ID and provider events on provider:identifier, so the
// two paths for one delivery do not exclude each other here. Correctness between them
// comes from the repository, which locks the delivery row for the rest of the
// transaction on every read; the sequencer only keeps same-path work in order and
// spares the database from lock contention.
package sequencer

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyedSequencer runs functions one at a time per key. Waiters are served in arrival
// order and give up when their context is done. Keys nobody holds or waits on are
// released, so the sequencer does not grow with the number of deliveries seen.
type KeyedSequencer struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  *semaphore.Weighted
	refs int
}

func NewKeyedSequencer() *KeyedSequencer {
	return &KeyedSequencer{slots: make(map[string]*slot)}
}

// Do runs fn once every earlier Do call for key has returned. It returns ctx.Err()
// without running fn when ctx is done first.
func (s *KeyedSequencer) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	sl := s.acquire(key)
	defer s.release(key, sl)

	if err := sl.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer sl.sem.Release(1)

	return fn(ctx)
}

// Len returns the number of keys currently held or waited on.
func (s *KeyedSequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *KeyedSequencer) acquire(key string) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{sem: semaphore.NewWeighted(1)}
		s.slots[key] = sl
	}
	sl.refs++
	return sl
}

func (s *KeyedSequencer) release(key string, sl *slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl.refs--
	if sl.refs == 0 {
		delete(s.slots, key)
	}
}
