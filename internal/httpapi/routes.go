// Package httpapi serves health probes and the JSON session API.
package httpapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"pieza-web/internal/logging"
	"pieza-web/internal/session"
)

const maxBodyBytes = 64 << 10

// HealthChecker probes the search backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Service exposes the session manager over JSON.
type Service struct {
	manager      *session.Manager
	health       HealthChecker
	logger       *slog.Logger
	secureCookie bool
}

// NewService wires the API. health may be nil when the demo catalog is in use.
func NewService(manager *session.Manager, health HealthChecker, logger *slog.Logger, secureCookie bool) *Service {
	return &Service{
		manager:      manager,
		health:       health,
		logger:       logging.OrDiscard(logger),
		secureCookie: secureCookie,
	}
}

// RegisterRoutes wires health and session routes.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/health/search", s.searchHealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/session", s.viewHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/session", s.dropHandler).Methods(http.MethodDelete)
	r.HandleFunc("/api/session/query", s.queryHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/session/reset", s.resetHandler).Methods(http.MethodPost)
}

// QueryRequest is the body of POST /api/session/query. An empty mode lets the
// session pick refine when it already has results.
type QueryRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode,omitempty"`
}

// QueryResponse reports the outcome and the view after the call.
type QueryResponse struct {
	Outcome session.Outcome `json:"outcome"`
	View    session.View    `json:"view"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) searchHealthHandler(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": "demo"})
		return
	}
	if err := s.health.HealthCheck(r.Context()); err != nil {
		s.logger.Warn("search backend unhealthy", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": "remote"})
}

func (s *Service) sessionID(w http.ResponseWriter, r *http.Request) string {
	id := EnsureSession(w, r, s.secureCookie)
	w.Header().Set(SessionHeader, id)
	return id
}

func (s *Service) viewHandler(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	v, err := s.manager.View(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load session", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	writeData(w, v)
}

// decodeBody reads a JSON body, accepting gzip-encoded requests.
func decodeBody(r *http.Request, dst any) error {
	reader := io.Reader(r.Body)
	if enc := r.Header.Get("Content-Encoding"); strings.EqualFold(enc, "gzip") {
		gr, err := gzip.NewReader(r.Body)
		if err != nil {
			return err
		}
		defer gr.Close()
		reader = gr
	}
	return json.NewDecoder(io.LimitReader(reader, maxBodyBytes)).Decode(dst)
}

func (s *Service) queryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var mode session.Mode
	if req.Mode != "" {
		m, ok := session.ParseMode(req.Mode)
		if !ok {
			writeError(w, http.StatusBadRequest, "mode must be search or refine")
			return
		}
		mode = m
	}

	id := s.sessionID(w, r)
	outcome, err := s.manager.Submit(r.Context(), id, req.Query, mode)
	if err != nil && outcome == "" {
		s.logger.Error("failed to load session", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if err != nil {
		// The live session is updated even when persisting fails.
		s.logger.Warn("query not persisted", "session", id, "error", err)
	}

	v, verr := s.manager.View(r.Context(), id)
	if verr != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	writeData(w, QueryResponse{Outcome: outcome, View: v})
}

func (s *Service) resetHandler(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	if err := s.manager.StartOver(r.Context(), id); err != nil {
		s.logger.Warn("start over not persisted", "session", id, "error", err)
	}
	v, err := s.manager.View(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	writeData(w, v)
}

func (s *Service) dropHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := SessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "no session")
		return
	}
	if err := s.manager.Drop(r.Context(), id); err != nil {
		s.logger.Error("failed to drop session", "session", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, map[string]string{"session": id})
}
