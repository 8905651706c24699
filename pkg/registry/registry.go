// Package registry provides a read-optimized, immutable view over a
// project's route set.
package registry

import (
	"sync/atomic"

	"github.com/mockpit/mockpit/pkg/project"
)

type routeKey struct {
	method string
	path   string
}

// Snapshot is an immutable view of all routes at one instant. It is safe
// for concurrent use and is never mutated after construction; a request
// holds one snapshot for its whole lifetime.
type Snapshot struct {
	state     *project.State
	endpoints []project.Endpoint
	// index maps (method, path) to endpoint positions in insertion order,
	// so lookup is O(1) average while preserving the first-match tie-break.
	index map[routeKey][]int
}

// FromState derives a Snapshot from a project state.
func FromState(state *project.State) *Snapshot {
	if state == nil {
		state = &project.State{}
	}
	s := &Snapshot{
		state:     state,
		endpoints: state.Endpoints,
		index:     make(map[routeKey][]int, len(state.Endpoints)),
	}
	for i, e := range state.Endpoints {
		key := routeKey{method: e.Method, path: e.Path}
		s.index[key] = append(s.index[key], i)
	}
	return s
}

// Lookup returns the first endpoint whose method and path exactly equal the
// request's, in snapshot order. The second return value reports whether a
// match was found.
func (s *Snapshot) Lookup(method, path string) (*project.Endpoint, bool) {
	positions, ok := s.index[routeKey{method: method, path: path}]
	if !ok || len(positions) == 0 {
		return nil, false
	}
	return &s.endpoints[positions[0]], true
}

// Endpoints returns the routes in snapshot order. Callers must not modify
// the returned slice.
func (s *Snapshot) Endpoints() []project.Endpoint {
	return s.endpoints
}

// Len returns the number of routes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.endpoints)
}

// View hands out snapshots derived from a project store. It caches the
// snapshot built for the currently published state and rebuilds only when
// the store pointer changes, so the request hot path stays lock-free.
type View struct {
	store *project.Store
	cur   atomic.Pointer[Snapshot]
}

// NewView creates a View over the given store.
func NewView(store *project.Store) *View {
	return &View{store: store}
}

// Snapshot returns a snapshot consistent with the store's current state.
// Concurrent callers racing a Replace may briefly build duplicate snapshots
// of the same state; each is individually consistent.
func (v *View) Snapshot() *Snapshot {
	state := v.store.Current()
	if s := v.cur.Load(); s != nil && s.state == state {
		return s
	}
	s := FromState(state)
	v.cur.Store(s)
	return s
}
