// Package report is the final stage of the batch pipeline. It renders
// an analysis result into the three artifacts the downstream consumers
// expect: a multi-sheet Excel workbook, a PlantUML summary diagram and
// a PNG chart grid.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"medpulse/internal/analysis"
)

// Artifacts holds the paths of the files one report run produced.
type Artifacts struct {
	Excel  string `json:"excel"`
	Puml   string `json:"puml"`
	Charts string `json:"charts"`
}

// Reporter writes analysis results to an output directory.
type Reporter struct {
	outDir string
	logger *slog.Logger
}

// New returns a Reporter writing into outDir, creating it if needed.
func New(outDir string, logger *slog.Logger) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Reporter{outDir: outDir, logger: logger}, nil
}

// Write renders all three artifacts for the result. The artifacts are
// independent of each other, so they render concurrently; the first
// failure cancels the run and is returned.
func (r *Reporter) Write(ctx context.Context, res *analysis.Result) (Artifacts, error) {
	base := res.Profile.Artifact
	artifacts := Artifacts{
		Excel:  filepath.Join(r.outDir, base+".xlsx"),
		Puml:   filepath.Join(r.outDir, base+"_summary.puml"),
		Charts: filepath.Join(r.outDir, base+"_charts.png"),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := writeExcel(res, artifacts.Excel); err != nil {
			return fmt.Errorf("excel workbook: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := writePuml(res, artifacts.Puml); err != nil {
			return fmt.Errorf("puml summary: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := writeCharts(res, artifacts.Charts); err != nil {
			return fmt.Errorf("chart grid: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Artifacts{}, err
	}

	r.logger.InfoContext(ctx, "report written",
		slog.String("profile", res.Profile.Name),
		slog.String("excel", artifacts.Excel),
		slog.String("puml", artifacts.Puml),
		slog.String("charts", artifacts.Charts))

	return artifacts, nil
}
