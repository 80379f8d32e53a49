package http

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "medpulse/internal/errors"
	"medpulse/internal/infrastructure"
	"medpulse/internal/pipeline"
)

// PipelineHandler triggers analysis runs over the HTTP API.
type PipelineHandler struct {
	dataDir string
	outDir  string
	logger  *slog.Logger
	metrics *infrastructure.Metrics
}

// NewPipelineHandler wires the handler. metrics may be nil.
func NewPipelineHandler(dataDir, outDir string, logger *slog.Logger, metrics *infrastructure.Metrics) *PipelineHandler {
	return &PipelineHandler{
		dataDir: dataDir,
		outDir:  outDir,
		logger:  logger.With(slog.String("handler", "pipeline")),
		metrics: metrics,
	}
}

// Routes returns the /api/pipeline router. Admin only.
func (h *PipelineHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/run", h.Run)
	return r
}

type runRequest struct {
	Profile string `json:"profile"`
	Input   string `json:"input"`
}

func (req *runRequest) Bind(r *http.Request) error {
	if req.Profile == "" {
		return errors.New("profile is required")
	}
	if req.Input == "" {
		return errors.New("input is required")
	}
	return nil
}

// Run handles POST /api/pipeline/run. The input is a file name inside
// the configured data directory; path separators are rejected so the
// API cannot read outside it.
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req runRequest
	if err := render.Bind(r, &req); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if strings.ContainsAny(req.Input, `/\`) || req.Input != filepath.Base(req.Input) {
		render.Render(w, r, apierrors.ErrValidation("input", "input must be a bare file name"))
		return
	}

	input := filepath.Join(h.dataDir, req.Input)
	if _, err := os.Stat(input); err != nil {
		render.Render(w, r, apierrors.NotFoundError("input file"))
		return
	}

	outcome, err := pipeline.Run(ctx, h.logger, pipeline.Options{
		Profile: req.Profile,
		Input:   input,
		OutDir:  h.outDir,
	})
	if h.metrics != nil {
		h.metrics.RecordPipelineRun(ctx, req.Profile, err == nil)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("profile", req.Profile),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewWithDetails(http.StatusUnprocessableEntity,
			"PIPELINE_FAILED", "analysis pipeline failed", err.Error()))
		return
	}

	render.JSON(w, r, outcome)
}
