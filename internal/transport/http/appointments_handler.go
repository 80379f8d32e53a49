package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"medpulse/internal/booking"
	apierrors "medpulse/internal/errors"
	"medpulse/internal/infrastructure"
	"medpulse/internal/middleware"
)

// AppointmentsHandler serves the patient-facing booking endpoints.
type AppointmentsHandler struct {
	service *booking.Service
	logger  *slog.Logger
	metrics *infrastructure.Metrics
}

// NewAppointmentsHandler wires the handler. metrics may be nil.
func NewAppointmentsHandler(service *booking.Service, logger *slog.Logger, metrics *infrastructure.Metrics) *AppointmentsHandler {
	return &AppointmentsHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "appointments")),
		metrics: metrics,
	}
}

// Routes returns the /api/appointments router. Callers must mount it
// behind the auth middleware.
func (h *AppointmentsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.List)
	r.Post("/", h.Book)
	r.Delete("/{id}", h.Cancel)
	r.Get("/specialties", h.Specialties)
	return r
}

type bookBinder struct {
	booking.BookRequest
}

func (b *bookBinder) Bind(r *http.Request) error {
	return validate.Struct(b.BookRequest)
}

type myAppointmentsResponse struct {
	Appointments []*booking.Appointment `json:"appointments"`
	Summary      booking.Summary        `json:"summary"`
}

// List handles GET /api/appointments.
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		render.Render(w, r, apierrors.ErrUnauthorized)
		return
	}

	appts, summary, err := h.service.MyAppointments(r.Context(), session.Username)
	if err != nil {
		render.Render(w, r, apierrors.StoreError("list appointments", err))
		return
	}
	render.JSON(w, r, myAppointmentsResponse{Appointments: appts, Summary: summary})
}

// Book handles POST /api/appointments.
func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := middleware.GetSession(ctx)
	if session == nil {
		render.Render(w, r, apierrors.ErrUnauthorized)
		return
	}

	var req bookBinder
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	appt, err := h.service.Book(ctx, session.Username, req.BookRequest)
	if err != nil {
		render.Render(w, r, bookError(err))
		return
	}

	if h.metrics != nil {
		h.metrics.RecordBooking(ctx, appt.Specialty)
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, appt)
}

// Cancel handles DELETE /api/appointments/{id}.
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := middleware.GetSession(ctx)
	if session == nil {
		render.Render(w, r, apierrors.ErrUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	err := h.service.Cancel(ctx, session.Username, session.IsAdmin(), id)
	switch {
	case err == nil:
		render.JSON(w, r, map[string]string{"id": id, "status": booking.StatusCancelled})
	case errors.Is(err, booking.ErrNotOwner):
		render.Render(w, r, apierrors.ErrForbidden)
	case errors.Is(err, booking.ErrAppointmentNotFound):
		render.Render(w, r, apierrors.NotFoundError("appointment"))
	default:
		render.Render(w, r, apierrors.StoreError("cancel appointment", err))
	}
}

// Specialties handles GET /api/appointments/specialties.
func (h *AppointmentsHandler) Specialties(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string][]string{"specialties": booking.Specialties})
}

func bookError(err error) *apierrors.APIError {
	switch {
	case errors.Is(err, booking.ErrInvalidSpecialty):
		return apierrors.ErrValidation("specialty", "unknown specialty")
	case errors.Is(err, booking.ErrInvalidDate):
		return apierrors.ErrValidation("date", "date must be YYYY-MM-DD")
	case errors.Is(err, booking.ErrPastDate):
		return apierrors.ErrValidation("date", "date must not be in the past")
	case errors.Is(err, booking.ErrUserNotFound):
		return apierrors.NotFoundError("user")
	default:
		return apierrors.StoreError("book appointment", err)
	}
}
