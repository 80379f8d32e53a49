package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"medpulse/internal/infrastructure"
)

// HealthHandler serves liveness and version endpoints.
type HealthHandler struct {
	startedAt time.Time
	driver    string
}

// NewHealthHandler records the process start time and the active
// store driver.
func NewHealthHandler(driver string) *HealthHandler {
	return &HealthHandler{startedAt: time.Now(), driver: driver}
}

// Routes returns the /api/health router.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.HealthCheck)
	r.Get("/live", h.HealthCheck)
	return r
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"store_driver":   h.driver,
	})
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"service": infrastructure.ServiceName,
		"version": infrastructure.ServiceVersion,
	})
}
