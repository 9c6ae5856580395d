package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pieza-web/internal/config"
	"pieza-web/internal/httpapi"
	"pieza-web/internal/logging"
)

func demoConfig(t *testing.T) *config.Config {
	return &config.Config{
		HTTPAddr:        ":0",
		SearchTimeout:   time.Second,
		SessionTTL:      time.Hour,
		SessionCapacity: 100,
		DataDir:         t.TempDir(),
	}
}

func TestDemoAppEndToEnd(t *testing.T) {
	a, err := newApp(demoConfig(t), logging.Discard())
	require.NoError(t, err)
	defer a.Close()
	h := a.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/session/query", strings.NewReader(`{"query":"velvet sofa"}`))
	req.Header.Set(httpapi.SessionHeader, "e2e")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data httpapi.QueryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "succeeded", string(body.Data.Outcome))
	assert.True(t, body.Data.View.HasResults)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_searches":1`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pieza_searches_total{mode="search",outcome="succeeded"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/session/query"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/search", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRemoteAppReportsBackendHealth(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	cfg := demoConfig(t)
	cfg.SearchURL = backend.URL
	a, err := newApp(cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/search", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
