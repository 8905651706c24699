package engine

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mockpit/mockpit/pkg/logging"
	"github.com/mockpit/mockpit/pkg/project"
	"github.com/mockpit/mockpit/pkg/registry"
	"github.com/mockpit/mockpit/pkg/requestlog"
)

// notFoundBody is the fixed payload for requests matching no route.
const notFoundBody = `{"error": "Endpoint not found"}`

// Dispatcher matches incoming requests against the endpoint registry and
// serves the configured response. It implements http.Handler.
//
// Each request takes one registry snapshot at request-start and uses it for
// its whole lifetime: a concurrent project replace never yields a response
// mixing routes from two different snapshots.
type Dispatcher struct {
	view      *registry.View
	responder Responder
	reqLog    requestlog.Logger
	log       *slog.Logger
}

// DispatcherOption is a functional option for configuring a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the operational logger for the dispatcher.
func WithLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithRequestLog sets the request history sink.
func WithRequestLog(rl requestlog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.reqLog = rl
	}
}

// NewDispatcher creates a Dispatcher serving routes from the given store.
func NewDispatcher(store *project.Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		view: registry.NewView(store),
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HasMatch reports whether any route matches the request. Used by the CORS
// middleware to let user-defined OPTIONS routes take precedence over
// preflight handling.
func (d *Dispatcher) HasMatch(r *http.Request) bool {
	_, ok := d.view.Snapshot().Lookup(r.Method, r.URL.Path)
	return ok
}

// ServeHTTP implements the http.Handler interface.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	snap := d.view.Snapshot()
	ep, ok := snap.Lookup(r.Method, r.URL.Path)
	// The snapshot reference is released here; the delay below runs without
	// touching any shared state.
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundBody))
		d.record(start, r, "", http.StatusNotFound)
		return
	}

	outcome, err := d.responder.Respond(r.Context(), ep)
	if err != nil {
		// Client disconnected or the server was force-closed mid-delay.
		d.log.Debug("request aborted during delay", "method", r.Method, "path", r.URL.Path, "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(outcome.Status)
	_, _ = w.Write(outcome.Body)

	d.record(start, r, outcome.EndpointID, outcome.Status)
}

func (d *Dispatcher) record(start time.Time, r *http.Request, matchedID string, status int) {
	if d.reqLog == nil {
		return
	}
	d.reqLog.Log(&requestlog.Entry{
		Timestamp:         start,
		Method:            r.Method,
		Path:              r.URL.Path,
		RemoteAddr:        r.RemoteAddr,
		MatchedEndpointID: matchedID,
		ResponseStatus:    status,
		DurationMs:        int(time.Since(start).Milliseconds()),
	})
}
