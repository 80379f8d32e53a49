// Package http holds the chi handlers behind /api.
package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"medpulse/internal/booking"
	"medpulse/internal/config"
	apierrors "medpulse/internal/errors"
	"medpulse/internal/infrastructure"
	"medpulse/internal/middleware"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	service *booking.Service
	auth    config.AuthConfig
	logger  *slog.Logger
	metrics *infrastructure.Metrics
}

// NewAuthHandler wires the handler. metrics may be nil.
func NewAuthHandler(service *booking.Service, auth config.AuthConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *AuthHandler {
	return &AuthHandler{
		service: service,
		auth:    auth,
		logger:  logger.With(slog.String("handler", "auth")),
		metrics: metrics,
	}
}

// Routes returns the /api/auth router.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	return r
}

// validate checks request payloads before they reach the services.
var validate = validator.New()

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (req *registerRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (req *loginRequest) Bind(r *http.Request) error {
	return validate.Struct(req)
}

type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		render.Render(w, r, registerError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	user, err := h.service.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLogin(ctx, false)
		}
		if errors.Is(err, booking.ErrBadCredentials) {
			h.logger.WarnContext(ctx, "login rejected", slog.String("username", req.Username))
			render.Render(w, r, apierrors.ErrBadCredentials)
			return
		}
		render.Render(w, r, apierrors.StoreError("login", err))
		return
	}

	token, err := middleware.IssueToken(h.auth.JWTSecret, user.ID, user.Username, user.Role, h.auth.TokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue token", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.ErrInternalServer)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLogin(ctx, true)
	}
	h.logger.InfoContext(ctx, "login succeeded",
		slog.String("username", user.Username),
		slog.String("role", user.Role))
	render.JSON(w, r, authResponse{Token: token, Username: user.Username, Role: user.Role})
}

func registerError(err error) *apierrors.APIError {
	switch {
	case errors.Is(err, booking.ErrUsernameTaken):
		return apierrors.ConflictError("username already taken")
	case errors.Is(err, booking.ErrEmailTaken):
		return apierrors.ConflictError("email already registered")
	case errors.Is(err, booking.ErrInvalidUsername),
		errors.Is(err, booking.ErrInvalidEmail),
		errors.Is(err, booking.ErrWeakPassword):
		return apierrors.InvalidRequestWithError(err)
	default:
		return apierrors.StoreError("register", err)
	}
}
