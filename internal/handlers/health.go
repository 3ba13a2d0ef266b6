package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/ca-practice/httpx"
	"go.uber.org/zap"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	started time.Time
	log     *zap.Logger
}

func NewHealthHandler(db Pinger, started time.Time, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, started: started, log: log}
}

type HealthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	httpx.Message(w, "CA Practice Automation API")
}

// Health: GET /api/health. Liveness only.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Millisecond).Seconds(),
	})
}

// Healthz: GET /api/healthz. Readiness, pings the store.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("healthz failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
