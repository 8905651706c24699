package engine

import (
	"errors"
	"fmt"
)

// ErrNotRunning is returned by Stop when no server instance exists.
var ErrNotRunning = errors.New("server is not running")

// BindError indicates the listener could not be bound: port in use,
// permission denied, or an invalid address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// TLSConfigError indicates a missing, unreadable, or invalid certificate
// pair while starting a TLS-enabled server.
type TLSConfigError struct {
	Reason string
	Err    error
}

func (e *TLSConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tls configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("tls configuration: %s", e.Reason)
}

func (e *TLSConfigError) Unwrap() error { return e.Err }
