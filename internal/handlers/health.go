package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/schoolter/internal/middleware"
	"github.com/stwalsh4118/schoolter/internal/models"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for store health checks
	HealthCheckTimeout = 2 * time.Second
)

// SnapshotStore is the part of the school store the health endpoints read.
type SnapshotStore interface {
	Ping(ctx context.Context) error
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	store     SnapshotStore
	startTime time.Time
	env       string
	driver    string
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(store SnapshotStore, env, driver string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		startTime: time.Now(),
		env:       env,
		driver:    driver,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Snapshot *SnapshotStatus `json:"snapshot,omitempty"`
}

// SnapshotStatus says whether school data has been published, and which run.
type SnapshotStatus struct {
	Published   bool       `json:"published"`
	RunID       string     `json:"runId,omitempty"`
	Mode        string     `json:"mode,omitempty"`
	Records     int        `json:"records"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Database    string `json:"database"`
	Uptime      string `json:"uptime"`
}

// Health handles GET /health. It checks no dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready. The store must answer; an empty store is
// still ready, with the snapshot reported as unpublished.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	snap, err := h.check(ctx)
	if err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Readiness check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
				"driver":  h.driver,
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:   "not_ready",
			Database: "disconnected",
		})
		return
	}

	status := &SnapshotStatus{}
	if snap != nil {
		generated := snap.GeneratedAt
		status = &SnapshotStatus{
			Published:   true,
			RunID:       snap.RunID.String(),
			Mode:        snap.Mode,
			Records:     snap.Records,
			GeneratedAt: &generated,
		}
	}
	c.JSON(http.StatusOK, ReadyResponse{
		Status:   "ready",
		Database: "connected",
		Snapshot: status,
	})
}

func (h *HealthHandler) check(ctx context.Context) (*models.Snapshot, error) {
	if err := h.store.Ping(ctx); err != nil {
		return nil, err
	}
	return h.store.LatestSnapshot(ctx)
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Database:    h.driver,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
