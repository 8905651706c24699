// Package requestlog records served mock requests for inspection through
// the control API.
package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry captures the details of one dispatched request.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method of the request.
	Method string `json:"method"`

	// Path is the request URL path.
	Path string `json:"path"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr"`

	// MatchedEndpointID is the id of the endpoint that matched (empty on 404).
	MatchedEndpointID string `json:"matchedEndpointId,omitempty"`

	// ResponseStatus is the status code returned.
	ResponseStatus int `json:"responseStatus"`

	// DurationMs is the total request processing time, delay included.
	DurationMs int `json:"durationMs"`
}

// Logger is the minimal sink interface the dispatcher logs through.
type Logger interface {
	Log(entry *Entry)
}

// Filter defines criteria for querying recorded entries.
type Filter struct {
	// Method filters by exact HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// MatchedID filters by matched endpoint id.
	MatchedID string

	// Limit caps the number of entries returned (0 means no cap).
	Limit int
}

// Store is a bounded, thread-safe in-memory request log. When capacity is
// reached the oldest entry is evicted.
type Store struct {
	mu       sync.RWMutex
	entries  []*Entry
	capacity int
}

// NewStore creates a Store holding at most capacity entries.
// A non-positive capacity defaults to 1000.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Store{
		entries:  make([]*Entry, 0, capacity),
		capacity: capacity,
	}
}

// Log records an entry, assigning an id and timestamp when absent.
func (s *Store) Log(entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if len(s.entries) >= s.capacity {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
}

// Get retrieves an entry by id. Returns nil if not found.
func (s *Store) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// List returns entries newest first, optionally filtered.
func (s *Store) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter != nil && !matches(e, filter) {
			continue
		}
		result = append(result, e)
		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result
}

// Count returns the number of recorded entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all recorded entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

func matches(e *Entry, f *Filter) bool {
	if f.Method != "" && e.Method != f.Method {
		return false
	}
	if f.Path != "" && !strings.HasPrefix(e.Path, f.Path) {
		return false
	}
	if f.MatchedID != "" && e.MatchedEndpointID != f.MatchedID {
		return false
	}
	return true
}

var _ Logger = (*Store)(nil)
