// Package control exposes the management REST API for the mock server:
// lifecycle commands, project state, endpoint CRUD, TLS provisioning,
// interface enumeration, and the request log.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mockpit/mockpit/pkg/engine"
	"github.com/mockpit/mockpit/pkg/logging"
	"github.com/mockpit/mockpit/pkg/project"
	"github.com/mockpit/mockpit/pkg/requestlog"
	"github.com/mockpit/mockpit/pkg/tlsprov"
)

// Server is the control API server. It owns no mock-serving state of its
// own; every command reads or mutates the shared project store and the
// lifecycle manager.
type Server struct {
	store      *project.Store
	manager    *engine.Manager
	prov       *tlsprov.Provisioner
	reqLog     *requestlog.Store
	httpServer *http.Server
	port       int
	startTime  time.Time
	log        *slog.Logger

	// mu serializes clone-mutate-replace sequences on the store so two
	// concurrent partial updates cannot lose each other's writes. The
	// store's own swap stays lock-free for the serving hot path.
	mu sync.Mutex
}

// Option configures the control server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates a control API server on the given port.
func NewServer(port int, store *project.Store, manager *engine.Manager, prov *tlsprov.Provisioner, reqLog *requestlog.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		manager: manager,
		prov:    prov,
		reqLog:  reqLog,
		port:    port,
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// registerRoutes sets up all control API routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("POST /server/start", s.handleStartServer)
	mux.HandleFunc("POST /server/stop", s.handleStopServer)

	mux.HandleFunc("GET /interfaces", s.handleListInterfaces)

	mux.HandleFunc("GET /state", s.handleGetState)
	mux.HandleFunc("PUT /state", s.handleReplaceState)

	mux.HandleFunc("GET /endpoints", s.handleListEndpoints)
	mux.HandleFunc("POST /endpoints", s.handleCreateEndpoint)
	mux.HandleFunc("DELETE /endpoints/{id}", s.handleDeleteEndpoint)

	mux.HandleFunc("GET /tls", s.handleGetTLS)
	mux.HandleFunc("PUT /tls", s.handleSetTLS)
	mux.HandleFunc("DELETE /tls", s.handleClearTLS)
	mux.HandleFunc("POST /tls/generate", s.handleGenerateTLS)
	mux.HandleFunc("POST /tls/cleanup", s.handleCleanupTLS)

	mux.HandleFunc("GET /requests", s.handleListRequests)
	mux.HandleFunc("DELETE /requests", s.handleClearRequests)

	mux.HandleFunc("POST /project/save", s.handleSaveProject)
	mux.HandleFunc("POST /project/load", s.handleLoadProject)
}

// Handler returns the control API handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving the control API in the background.
func (s *Server) Start() error {
	s.startTime = time.Now()
	s.log.Info("starting control API", "port", s.port)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("control API error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the control API server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the API uptime in seconds.
func (s *Server) Uptime() int {
	return int(time.Since(s.startTime).Seconds())
}
