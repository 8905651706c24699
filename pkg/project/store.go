package project

import "sync/atomic"

// Store holds the current project snapshot behind a single atomic pointer.
//
// Replace publishes a whole new snapshot with one pointer swap; Current
// returns the published snapshot without taking any lock. Readers that
// obtained an older snapshot keep using it unaffected - snapshots are
// immutable once published, so a request always observes one consistent
// view for its whole lifetime.
//
// The store performs no validation; malformed states are accepted as-is
// (validation belongs to the control boundary).
type Store struct {
	state atomic.Pointer[State]
}

// NewStore creates a Store seeded with the given state.
// A nil initial state seeds the store with DefaultState.
func NewStore(initial *State) *Store {
	if initial == nil {
		initial = DefaultState()
	}
	s := &Store{}
	s.state.Store(initial)
	return s
}

// Replace atomically swaps the current snapshot.
// The caller must not modify the state after passing it in.
func (s *Store) Replace(state *State) {
	if state == nil {
		state = DefaultState()
	}
	s.state.Store(state)
}

// Current returns the current snapshot. Callers must treat it as read-only;
// derive changes with Clone and publish them with Replace.
func (s *Store) Current() *State {
	return s.state.Load()
}
