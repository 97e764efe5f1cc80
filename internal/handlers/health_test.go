package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stwalsh4118/schoolter/internal/models"
)

// stubStore reports fixed ping and snapshot results.
type stubStore struct {
	pingErr error
	snap    *models.Snapshot
	snapErr error
}

func (s stubStore) Ping(ctx context.Context) error {
	return s.pingErr
}

func (s stubStore) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	return s.snap, s.snapErr
}

func setupHealthRouter(handler *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", handler.Health)
	router.GET("/health/ready", handler.Ready)
	router.GET("/api/v1/info", handler.Info)
	return router
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	router := setupHealthRouter(NewHealthHandler(stubStore{pingErr: errors.New("down")}, "test", "sqlite"))

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, HealthResponse{Status: "healthy"}, response)
}

func TestHealthHandler_Ready(t *testing.T) {
	generated := time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC)
	runID := uuid.MustParse("5f0c1a52-8d7e-4c1b-9b1e-3f2a6c7d8e90")

	tests := []struct {
		name           string
		store          stubStore
		expectedStatus int
		expectedBody   ReadyResponse
	}{
		{
			name:           "reports the published snapshot",
			store:          stubStore{snap: &models.Snapshot{RunID: runID, Mode: "enrich", Records: 412, GeneratedAt: generated}},
			expectedStatus: http.StatusOK,
			expectedBody: ReadyResponse{Status: "ready", Database: "connected", Snapshot: &SnapshotStatus{
				Published: true, RunID: runID.String(), Mode: "enrich", Records: 412, GeneratedAt: &generated,
			}},
		},
		{
			name:           "is ready before the first publish",
			expectedStatus: http.StatusOK,
			expectedBody:   ReadyResponse{Status: "ready", Database: "connected", Snapshot: &SnapshotStatus{}},
		},
		{
			name:           "returns 503 when the store is down",
			store:          stubStore{pingErr: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   ReadyResponse{Status: "not_ready", Database: "disconnected"},
		},
		{
			name:           "returns 503 when the snapshot cannot be read",
			store:          stubStore{snapErr: errors.New("no such table: snapshots")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   ReadyResponse{Status: "not_ready", Database: "disconnected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupHealthRouter(NewHealthHandler(tt.store, "test", "postgres"))

			w := get(router, "/health/ready")
			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ReadyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedBody, response)
		})
	}
}

func TestHealthHandler_Info(t *testing.T) {
	handler := NewHealthHandler(stubStore{}, "production", "sqlite")
	handler.startTime = time.Now().Add(-26 * time.Hour)
	router := setupHealthRouter(handler)

	w := get(router, "/api/v1/info")
	assert.Equal(t, http.StatusOK, w.Code)

	var response InfoResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, APIVersion, response.Version)
	assert.Equal(t, "production", response.Environment)
	assert.Equal(t, "sqlite", response.Database)
	assert.Contains(t, response.Uptime, "1d 2h")
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"formats seconds only", 45 * time.Second, "0h 0m 45s"},
		{"formats minutes and seconds", 5*time.Minute + 30*time.Second, "0h 5m 30s"},
		{"formats hours, minutes and seconds", 2*time.Hour + 15*time.Minute + 45*time.Second, "2h 15m 45s"},
		{"formats days", 3*24*time.Hour + 5*time.Hour + 30*time.Minute + 15*time.Second, "3d 5h 30m 15s"},
		{"formats exactly one day", 24 * time.Hour, "1d 0h 0m 0s"},
		{"formats zero duration", 0, "0h 0m 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatUptime(tt.duration))
		})
	}
}
