package appstate

import (
	"sync"

	"pkt.systems/optimus/schema"
)

// Store owns the process-wide AppState. The state is only reachable
// through WithExclusiveAccess.
type Store struct {
	mu    sync.Mutex
	state schema.AppState
}

// New constructs an empty store.
func New() *Store {
	return &Store{}
}

// WithExclusiveAccess runs fn while holding the store lock. Callers block
// until any other holder returns. The pointer must not escape fn.
func (s *Store) WithExclusiveAccess(fn func(state *schema.AppState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() schema.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
