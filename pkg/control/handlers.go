package control

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mockpit/mockpit/pkg/engine"
	"github.com/mockpit/mockpit/pkg/httputil"
	"github.com/mockpit/mockpit/pkg/netinfo"
	"github.com/mockpit/mockpit/pkg/project"
	"github.com/mockpit/mockpit/pkg/requestlog"
)

// decodeJSONBody decodes a JSON request body into dst. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

// normalizeMethods upper-cases endpoint methods so dispatch, which compares
// against the canonical request method, matches case-insensitively.
func normalizeMethods(endpoints []project.Endpoint) {
	for i := range endpoints {
		endpoints[i].Method = strings.ToUpper(endpoints[i].Method)
	}
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: s.Uptime(),
	})
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.manager.Status())
}

// handleStartServer handles POST /server/start. Settings omitted from the
// request body fall back to the stored project settings.
func (s *Server) handleStartServer(w http.ResponseWriter, r *http.Request) {
	var req StartServerRequest
	if r.ContentLength != 0 {
		if !decodeJSONBody(w, r, &req) {
			return
		}
	}

	settings := s.store.Current().Settings
	if req.Port != nil {
		settings.Port = *req.Port
	}
	if req.BindAddr != nil {
		settings.BindAddr = *req.BindAddr
	}
	if req.EnableTLS != nil {
		settings.EnableTLS = *req.EnableTLS
	}

	if err := project.ValidateSettings(&settings); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if !netinfo.IsBindable(settings.BindAddr) {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error",
			"bind address "+settings.BindAddr+" is not a local interface")
		return
	}

	status, err := s.manager.Start(settings)
	if err != nil {
		var bindErr *engine.BindError
		var tlsErr *engine.TLSConfigError
		switch {
		case errors.As(err, &bindErr):
			httputil.WriteError(w, http.StatusConflict, "bind_error", err.Error())
		case errors.As(err, &tlsErr):
			httputil.WriteError(w, http.StatusBadRequest, "tls_config_error", err.Error())
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "start_failed", err.Error())
		}
		return
	}

	// Persist the effective settings so a subsequent save reflects them.
	s.mu.Lock()
	st := s.store.Current().Clone()
	st.Settings = settings
	s.store.Replace(st)
	s.mu.Unlock()

	httputil.WriteJSON(w, http.StatusOK, status)
}

// handleStopServer handles POST /server/stop.
func (s *Server) handleStopServer(w http.ResponseWriter, _ *http.Request) {
	if err := s.manager.Stop(); err != nil {
		if errors.Is(err, engine.ErrNotRunning) {
			httputil.WriteError(w, http.StatusConflict, "not_running", "Server is not running")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, "stop_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Server stopped"})
}

// handleListInterfaces handles GET /interfaces.
func (s *Server) handleListInterfaces(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, netinfo.List())
}

// handleGetState handles GET /state.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.store.Current())
}

// handleReplaceState handles PUT /state. The whole snapshot is replaced
// atomically; partial updates are not supported.
func (s *Server) handleReplaceState(w http.ResponseWriter, r *http.Request) {
	var st project.State
	if !decodeJSONBody(w, r, &st) {
		return
	}
	normalizeMethods(st.Endpoints)
	if err := project.ValidateState(&st); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	s.store.Replace(&st)
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "State updated"})
}

// handleListEndpoints handles GET /endpoints.
func (s *Server) handleListEndpoints(w http.ResponseWriter, _ *http.Request) {
	endpoints := s.store.Current().Endpoints
	if endpoints == nil {
		endpoints = []project.Endpoint{}
	}
	httputil.WriteJSON(w, http.StatusOK, endpoints)
}

// handleCreateEndpoint handles POST /endpoints. An id is generated when the
// request omits one.
func (s *Server) handleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep project.Endpoint
	if !decodeJSONBody(w, r, &ep) {
		return
	}
	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	ep.Method = strings.ToUpper(ep.Method)
	if err := project.ValidateEndpoint(&ep); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Current().Clone()
	for _, existing := range st.Endpoints {
		if existing.ID == ep.ID {
			httputil.WriteError(w, http.StatusConflict, "duplicate_id",
				"endpoint with id "+ep.ID+" already exists")
			return
		}
	}
	st.Endpoints = append(st.Endpoints, ep)
	s.store.Replace(st)

	httputil.WriteJSON(w, http.StatusCreated, ep)
}

// handleDeleteEndpoint handles DELETE /endpoints/{id}.
func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Current().Clone()
	for i, ep := range st.Endpoints {
		if ep.ID == id {
			st.Endpoints = append(st.Endpoints[:i], st.Endpoints[i+1:]...)
			s.store.Replace(st)
			httputil.WriteNoContent(w)
			return
		}
	}
	httputil.WriteError(w, http.StatusNotFound, "not_found", "endpoint "+id+" not found")
}

// handleGetTLS handles GET /tls. Responds with null when no pair is set.
func (s *Server) handleGetTLS(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.store.Current().TLS)
}

// handleSetTLS handles PUT /tls.
func (s *Server) handleSetTLS(w http.ResponseWriter, r *http.Request) {
	var req TLSConfigRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	cfg := &project.TLSConfig{CertPath: req.CertPath, KeyPath: req.KeyPath}
	if err := project.ValidateTLS(cfg); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	s.mu.Lock()
	st := s.store.Current().Clone()
	st.TLS = cfg
	s.store.Replace(st)
	s.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "TLS configuration set"})
}

// handleClearTLS handles DELETE /tls.
func (s *Server) handleClearTLS(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := s.store.Current().Clone()
	st.TLS = nil
	s.store.Replace(st)
	s.mu.Unlock()
	httputil.WriteNoContent(w)
}

// handleGenerateTLS handles POST /tls/generate. The generated pair is
// ephemeral; it is returned to the caller without touching the stored
// configuration.
func (s *Server) handleGenerateTLS(w http.ResponseWriter, _ *http.Request) {
	certPath, keyPath, err := s.prov.GenerateEphemeral()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "generation_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TLSPathsResponse{CertPath: certPath, KeyPath: keyPath})
}

// handleCleanupTLS handles POST /tls/cleanup.
func (s *Server) handleCleanupTLS(w http.ResponseWriter, _ *http.Request) {
	if err := s.prov.CleanupEphemeral(); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "cleanup_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Temporary certificates removed"})
}

// handleListRequests handles GET /requests with optional method, path,
// matchedId, and limit query filters.
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter := &requestlog.Filter{
		Method:    r.URL.Query().Get("method"),
		Path:      r.URL.Query().Get("path"),
		MatchedID: r.URL.Query().Get("matchedId"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}
	httputil.WriteJSON(w, http.StatusOK, s.reqLog.List(filter))
}

// handleClearRequests handles DELETE /requests.
func (s *Server) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	s.reqLog.Clear()
	httputil.WriteNoContent(w)
}

// handleSaveProject handles POST /project/save.
func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectPathRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", "path is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.store.Current().Clone()
	st.LastSaved = time.Now().UTC().Format(time.RFC3339)
	if err := project.SaveToFile(req.Path, st); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}
	s.store.Replace(st)

	s.log.Info("project saved", "path", req.Path)
	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Project saved"})
}

// handleLoadProject handles POST /project/load. Returns the loaded state on
// success so callers do not need a second round trip.
func (s *Server) handleLoadProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectPathRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", "path is required")
		return
	}

	st, err := project.LoadFromFile(req.Path)
	if err != nil {
		switch {
		case errors.Is(err, project.ErrFileNotFound):
			httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
		case errors.Is(err, project.ErrPermissionDenied):
			httputil.WriteError(w, http.StatusForbidden, "permission_denied", err.Error())
		case errors.Is(err, project.ErrInvalidJSON),
			errors.Is(err, project.ErrInvalidYAML),
			errors.Is(err, project.ErrEmptyFile):
			httputil.WriteError(w, http.StatusBadRequest, "invalid_project", err.Error())
		default:
			httputil.WriteError(w, http.StatusInternalServerError, "load_failed", err.Error())
		}
		return
	}
	normalizeMethods(st.Endpoints)
	if err := project.ValidateState(st); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	s.store.Replace(st)

	s.log.Info("project loaded", "path", req.Path, "endpoints", len(st.Endpoints))
	httputil.WriteJSON(w, http.StatusOK, st)
}
