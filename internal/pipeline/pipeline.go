// Package pipeline runs the three-stage batch analysis: load a
// dataset, aggregate it under a profile, write the report artifacts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"medpulse/internal/analysis"
	"medpulse/internal/dataset"
	"medpulse/internal/report"
)

// Options configures one pipeline run.
type Options struct {
	Profile string
	Input   string
	OutDir  string
}

// Outcome summarizes a completed run for callers and logs.
type Outcome struct {
	Profile   string           `json:"profile"`
	Rows      int              `json:"rows"`
	Artifacts report.Artifacts `json:"artifacts"`
	Elapsed   time.Duration    `json:"elapsed"`
}

// Run executes the full pipeline. Each stage fails fast; a schema
// mismatch in the loader never reaches the aggregation or report
// stages.
func Run(ctx context.Context, logger *slog.Logger, opts Options) (*Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	profile, err := analysis.Lookup(opts.Profile)
	if err != nil {
		return nil, err
	}

	frame, err := dataset.Load(opts.Input, profile.Schema, logger)
	if err != nil {
		return nil, fmt.Errorf("load stage: %w", err)
	}

	result, err := analysis.Run(ctx, logger, frame, profile)
	if err != nil {
		return nil, fmt.Errorf("aggregate stage: %w", err)
	}

	reporter, err := report.New(opts.OutDir, logger)
	if err != nil {
		return nil, err
	}
	artifacts, err := reporter.Write(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("report stage: %w", err)
	}

	outcome := &Outcome{
		Profile:   profile.Name,
		Rows:      frame.Len(),
		Artifacts: artifacts,
		Elapsed:   time.Since(start),
	}
	logger.InfoContext(ctx, "pipeline complete",
		slog.String("profile", outcome.Profile),
		slog.Int("rows", outcome.Rows),
		slog.Duration("elapsed", outcome.Elapsed))
	return outcome, nil
}
