package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"medpulse/internal/booking"
	apierrors "medpulse/internal/errors"
	"medpulse/internal/exporter"
	"medpulse/internal/infrastructure"
)

// AdminHandler serves the admin dashboard endpoints.
type AdminHandler struct {
	service *booking.Service
	logger  *slog.Logger
	metrics *infrastructure.Metrics
}

// NewAdminHandler wires the handler. metrics may be nil.
func NewAdminHandler(service *booking.Service, logger *slog.Logger, metrics *infrastructure.Metrics) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "admin")),
		metrics: metrics,
	}
}

// Routes returns the /api/admin router. Callers must mount it behind
// auth plus the admin guard.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/overview", h.Overview)
	r.Get("/appointments", h.Appointments)
	r.Get("/appointments/export", h.ExportAppointments)
	r.Get("/performance", h.Performance)
	r.Get("/users", h.Users)
	return r
}

func (h *AdminHandler) record(r *http.Request, view string) {
	if h.metrics != nil {
		h.metrics.RecordAnalyticsQuery(r.Context(), view)
	}
}

// Overview handles GET /api/admin/overview.
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.record(r, "admin_overview")
	o, err := h.service.AdminOverview(r.Context())
	if err != nil {
		render.Render(w, r, apierrors.StoreError("admin overview", err))
		return
	}
	render.JSON(w, r, o)
}

// Appointments handles GET /api/admin/appointments with optional
// specialty and status filters.
func (h *AdminHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	h.record(r, "admin_appointments")
	appts, err := h.service.AllAppointments(r.Context(),
		r.URL.Query().Get("specialty"),
		r.URL.Query().Get("status"))
	if err != nil {
		render.Render(w, r, apierrors.StoreError("list appointments", err))
		return
	}
	render.JSON(w, r, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

// ExportAppointments handles GET /api/admin/appointments/export,
// honoring the same filters as the JSON listing.
func (h *AdminHandler) ExportAppointments(w http.ResponseWriter, r *http.Request) {
	h.record(r, "admin_appointments_export")
	appts, err := h.service.AllAppointments(r.Context(),
		r.URL.Query().Get("specialty"),
		r.URL.Query().Get("status"))
	if err != nil {
		render.Render(w, r, apierrors.StoreError("export appointments", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointments.csv"`)
	if err := exporter.Appointments(w, appts); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("error", err.Error()))
	}
}

// Performance handles GET /api/admin/performance.
func (h *AdminHandler) Performance(w http.ResponseWriter, r *http.Request) {
	h.record(r, "specialist_performance")
	stats, err := h.service.SpecialistPerformance(r.Context())
	if err != nil {
		render.Render(w, r, apierrors.StoreError("specialist performance", err))
		return
	}
	render.JSON(w, r, map[string]any{"specialties": stats})
}

// Users handles GET /api/admin/users.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	h.record(r, "admin_users")
	users, err := h.service.Users(r.Context())
	if err != nil {
		render.Render(w, r, apierrors.StoreError("list users", err))
		return
	}
	render.JSON(w, r, map[string]any{"users": users, "count": len(users)})
}
