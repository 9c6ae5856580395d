package searchlog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pieza-web/internal/httpapi"
	"pieza-web/internal/logging"
	"pieza-web/internal/model"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 1000
)

// RegisterRoutes mounts GET /api/searches and GET /api/stats.
func RegisterRoutes(r *mux.Router, service *QueryService, logger *slog.Logger) {
	h := &handlers{service: service, logger: logging.OrDiscard(logger)}
	r.HandleFunc("/api/searches", h.recent).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", h.stats).Methods(http.MethodGet)
}

type handlers struct {
	service *QueryService
	logger  *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Search is a search log record as shown to its own session.
type Search struct {
	Query          string              `json:"query"`
	Mode           string              `json:"mode"`
	Results        int                 `json:"results"`
	Outcome        model.SearchOutcome `json:"outcome"`
	Error          string              `json:"error,omitempty"`
	DurationMillis int64               `json:"duration_ms"`
	Timestamp      string              `json:"timestamp"`
}

// recent handles GET /api/searches?limit= for the caller's own session.
func (h *handlers) recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxRecentLimit {
			limit = parsed
		}
	}

	searches := []Search{}
	id, ok := httpapi.SessionID(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": searches})
		return
	}
	events, err := h.service.Recent(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("error reading search log", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "search log unavailable"})
		return
	}
	for _, evt := range events {
		searches = append(searches, Search{
			Query:          evt.Query,
			Mode:           evt.Mode,
			Results:        evt.Results,
			Outcome:        evt.Outcome,
			Error:          evt.Error,
			DurationMillis: evt.DurationMillis,
			Timestamp:      evt.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": searches})
}

// stats handles GET /api/stats
func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.logger.Error("error getting stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}
