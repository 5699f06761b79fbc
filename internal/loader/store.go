package loader

import (
	"sync"

	"creditflow/internal/model"
)

// Store holds the current snapshot behind a read/write mutex. Builds are
// ordered by a generation counter: a build claims a generation before it
// starts, and a commit is dropped when a newer generation has already
// published. Readers always see either the previous complete snapshot or the
// new one, never a partial state.
type Store struct {
	mu        sync.RWMutex
	current   *model.Snapshot
	nextGen   uint64
	published uint64
}

func NewStore() *Store {
	return &Store{}
}

// Begin claims a generation for a build that is about to start.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGen++
	return s.nextGen
}

// Commit publishes a finished snapshot. It reports false when a build from a
// later generation already published, in which case the snapshot is dropped.
func (s *Store) Commit(gen uint64, snap *model.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.published {
		return false
	}
	s.published = gen
	s.current = snap
	return true
}

// Current returns the latest published snapshot, or nil before the first
// successful build.
func (s *Store) Current() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
