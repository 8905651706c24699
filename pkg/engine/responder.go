package engine

import (
	"context"
	"time"

	"github.com/mockpit/mockpit/pkg/project"
)

// Outcome is the terminal result of a dispatched request.
type Outcome struct {
	Status       int
	Body         []byte
	AppliedDelay time.Duration
	EndpointID   string
}

// Responder produces the delayed, status-coded response for a matched
// endpoint.
type Responder struct{}

// Respond waits out the endpoint's configured delay and returns its status
// and raw body bytes. The wait parks the goroutine on a timer; no shared
// lock is held, so concurrent delayed requests don't serialize each other.
// The wait is aborted when ctx is done (client disconnect or forced
// shutdown after the stop grace period).
func (Responder) Respond(ctx context.Context, ep *project.Endpoint) (Outcome, error) {
	var applied time.Duration
	if ep.DelayMs > 0 {
		delay := time.Duration(ep.DelayMs) * time.Millisecond
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			applied = delay
		case <-ctx.Done():
			timer.Stop()
			return Outcome{}, ctx.Err()
		}
	}

	return Outcome{
		Status:       ep.Status,
		Body:         []byte(ep.Response),
		AppliedDelay: applied,
		EndpointID:   ep.ID,
	}, nil
}
