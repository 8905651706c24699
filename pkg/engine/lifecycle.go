package engine

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mockpit/mockpit/pkg/logging"
	"github.com/mockpit/mockpit/pkg/project"
	"github.com/mockpit/mockpit/pkg/tlsprov"
)

// State names the lifecycle phases of the mock listener.
type State string

// Lifecycle states. The machine is cyclic: Stopped -> Starting -> Running
// -> Stopping -> Stopped.
const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// StopGracePeriod is the fixed window in-flight requests get to finish
// after the listener closes. Remaining connections are forcibly closed
// once it elapses.
const StopGracePeriod = 500 * time.Millisecond

// Status is a point-in-time snapshot of the lifecycle manager.
type Status struct {
	Running   bool   `json:"running"`
	State     State  `json:"state"`
	Port      int    `json:"port,omitempty"`
	IsTLS     bool   `json:"isTls,omitempty"`
	BoundAddr string `json:"boundAddr,omitempty"`
}

// instance is the runtime handle of one bound listener. At most one exists
// process-wide; that is a documented invariant, not an accident.
type instance struct {
	server    *http.Server
	boundAddr string
	port      int
	isTLS     bool
}

// Manager owns the single listener instance and drives its lifecycle. All
// transitions serialize through one exclusive lock; a start or stop issued
// while another transition is in flight queues behind it. Status reads are
// lock-free so they never stall behind a transition.
type Manager struct {
	mu      sync.Mutex // transition lock
	status  atomic.Pointer[Status]
	store   *project.Store
	prov    *tlsprov.Provisioner
	handler http.Handler
	log     *slog.Logger
	inst    *instance
}

// ManagerOption is a functional option for configuring a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the operational logger for the manager.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a Manager in the Stopped state. The handler is what
// bound listeners serve; the store supplies the TLS config consulted when
// starting with TLS enabled.
func NewManager(store *project.Store, prov *tlsprov.Provisioner, handler http.Handler, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		prov:    prov,
		handler: handler,
		log:     logging.Nop(),
	}
	m.status.Store(&Status{State: StateStopped})
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start binds a listener with the given settings and begins serving. If a
// server is already running it is stopped first, so exactly one instance
// exists afterward, bound to the newly requested settings.
//
// With TLS enabled, the certificate pair is resolved from the current
// project state before binding; a missing or invalid pair aborts the
// transition with a TLSConfigError and the state returns to Stopped. Bind
// failures abort with a BindError the same way.
func (m *Manager) Start(settings project.ServerSettings) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inst != nil {
		m.stopLocked()
	}

	m.publish(StateStarting, nil)

	var tlsCfg *tls.Config
	if settings.EnableTLS {
		tc := m.store.Current().TLS
		if tc == nil {
			m.publish(StateStopped, nil)
			return Status{}, &TLSConfigError{Reason: "TLS is enabled but no certificate is configured"}
		}
		cert, err := m.prov.Load(tc.CertPath, tc.KeyPath)
		if err != nil {
			m.publish(StateStopped, nil)
			return Status{}, &TLSConfigError{Reason: "failed to load certificate pair", Err: err}
		}
		tlsCfg = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	addr := net.JoinHostPort(settings.BindAddr, strconv.Itoa(settings.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		m.publish(StateStopped, nil)
		return Status{}, &BindError{Addr: addr, Err: err}
	}

	tcpAddr, _ := ln.Addr().(*net.TCPAddr)
	port := settings.Port
	if tcpAddr != nil {
		port = tcpAddr.Port
	}

	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}

	srv := &http.Server{Handler: m.handler}
	inst := &instance{
		server:    srv,
		boundAddr: ln.Addr().String(),
		port:      port,
		isTLS:     settings.EnableTLS,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			m.log.Error("mock server error", "error", err)
		}
	}()

	m.inst = inst
	m.publish(StateRunning, inst)
	m.log.Info("mock server started", "addr", inst.boundAddr, "tls", inst.isTLS)

	return *m.status.Load(), nil
}

// Stop closes the listener so no new connections are accepted, lets
// requests already dispatched finish within StopGracePeriod, then forcibly
// closes whatever remains. Returns ErrNotRunning when nothing is running.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inst == nil {
		return ErrNotRunning
	}
	m.stopLocked()
	return nil
}

// stopLocked tears down the current instance. Caller holds the transition lock.
func (m *Manager) stopLocked() {
	inst := m.inst
	m.publish(StateStopping, inst)

	ctx, cancel := context.WithTimeout(context.Background(), StopGracePeriod)
	defer cancel()
	if err := inst.server.Shutdown(ctx); err != nil {
		// Grace period elapsed; abort remaining connections.
		_ = inst.server.Close()
	}

	m.inst = nil
	m.publish(StateStopped, nil)
	m.log.Info("mock server stopped", "addr", inst.boundAddr)
}

// Status returns the current lifecycle status without blocking on any
// in-flight transition.
func (m *Manager) Status() Status {
	return *m.status.Load()
}

// IsRunning reports whether a server instance is currently serving.
func (m *Manager) IsRunning() bool {
	return m.status.Load().Running
}

func (m *Manager) publish(state State, inst *instance) {
	st := &Status{State: state, Running: state == StateRunning}
	if inst != nil {
		st.Port = inst.port
		st.IsTLS = inst.isTLS
		st.BoundAddr = inst.boundAddr
	}
	m.status.Store(st)
}
