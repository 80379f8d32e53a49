package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "medpulse/internal/errors"
	"medpulse/internal/infrastructure"
	"medpulse/internal/medical"
)

// AnalyticsHandler serves the hospital analytics views.
type AnalyticsHandler struct {
	analytics medical.Analytics
	logger    *slog.Logger
	metrics   *infrastructure.Metrics
}

// NewAnalyticsHandler wires the handler. metrics may be nil.
func NewAnalyticsHandler(analytics medical.Analytics, logger *slog.Logger, metrics *infrastructure.Metrics) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger.With(slog.String("handler", "analytics")),
		metrics:   metrics,
	}
}

// Routes returns the /api/analytics router.
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/overview", h.Overview)
	r.Get("/departments", h.Departments)
	r.Get("/doctors", h.Doctors)
	r.Get("/demographics", h.Demographics)
	r.Get("/treatments", h.Treatments)
	r.Get("/trends", h.Trends)
	r.Get("/age-groups", h.AgeGroups)
	return r
}

func (h *AnalyticsHandler) serve(w http.ResponseWriter, r *http.Request, view string, load func() (any, error)) {
	if h.metrics != nil {
		h.metrics.RecordAnalyticsQuery(r.Context(), view)
	}
	data, err := load()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "analytics query failed",
			slog.String("view", view),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.StoreError(view, err))
		return
	}
	render.JSON(w, r, data)
}

// Overview handles GET /api/analytics/overview.
func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "overview", func() (any, error) {
		return h.analytics.Overview(r.Context())
	})
}

// Departments handles GET /api/analytics/departments.
func (h *AnalyticsHandler) Departments(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "departments", func() (any, error) {
		return h.analytics.DepartmentPerformance(r.Context())
	})
}

// Doctors handles GET /api/analytics/doctors?limit=20.
func (h *AnalyticsHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			render.Render(w, r, apierrors.ErrValidation("limit", "limit must be 1-100"))
			return
		}
		limit = n
	}
	h.serve(w, r, "doctors", func() (any, error) {
		return h.analytics.DoctorPerformance(r.Context(), limit)
	})
}

// Demographics handles GET /api/analytics/demographics.
func (h *AnalyticsHandler) Demographics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "demographics", func() (any, error) {
		return h.analytics.Demographics(r.Context())
	})
}

// Treatments handles GET /api/analytics/treatments.
func (h *AnalyticsHandler) Treatments(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "treatments", func() (any, error) {
		return h.analytics.TreatmentAnalysis(r.Context())
	})
}

// Trends handles GET /api/analytics/trends.
func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "trends", func() (any, error) {
		return h.analytics.MonthlyTrends(r.Context())
	})
}

// AgeGroups handles GET /api/analytics/age-groups.
func (h *AnalyticsHandler) AgeGroups(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "age_groups", func() (any, error) {
		return h.analytics.AgeGroups(r.Context())
	})
}
