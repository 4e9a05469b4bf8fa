package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/rbac-admin/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	*transport.BaseHandler
	db         Pinger
	aiEnabled  bool
	aiModel    string
	checkLimit time.Duration
}

func NewHealthHandler(base *transport.BaseHandler, db Pinger, aiEnabled bool, aiModel string) *HealthHandler {
	return &HealthHandler{
		BaseHandler: base,
		db:          db,
		aiEnabled:   aiEnabled,
		aiModel:     aiModel,
		checkLimit:  2 * time.Second,
	}
}

// Ping just says the process is up.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Health checks the database. A missing interpreter backend only degrades the service since
// the CRUD endpoints keep working without it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.checkLimit)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)

	db := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		db.Status = HealthUnhealthy
		db.Message = "database unreachable"
		h.Logger.ErrorContext(r.Context(), "health check failed", "component", "postgres", "error", err)
	}

	ai := CheckEntry{
		Status:    HealthHealthy,
		CheckedAt: time.Now(),
		Details:   map[string]any{"model": h.aiModel},
	}
	if !h.aiEnabled {
		ai.Status = HealthDegraded
		ai.Message = "no API key configured; natural-language commands are disabled"
		ai.Details = nil
	}

	resp := HealthResponse{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		Components: map[string]CheckEntry{"postgres": db, "ai": ai},
	}

	statusCode := http.StatusOK
	switch {
	case db.Status == HealthUnhealthy:
		resp.Status = HealthUnhealthy
		statusCode = http.StatusServiceUnavailable
	case ai.Status == HealthDegraded:
		resp.Status = HealthDegraded
	}

	h.WriteJSON(w, statusCode, resp)
}
