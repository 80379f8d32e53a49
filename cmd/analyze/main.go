package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"medpulse/internal/analysis"
	"medpulse/internal/config"
	"medpulse/internal/infrastructure"
	"medpulse/internal/pipeline"
)

func main() {
	profile := flag.String("profile", "", "analysis profile (one of: "+profileNames()+")")
	input := flag.String("input", "", "input CSV file")
	out := flag.String("out", "", "output directory (defaults to the configured report dir)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if *profile == "" || *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *out == "" {
		*out = cfg.Report.OutDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	outcome, err := pipeline.Run(ctx, logger, pipeline.Options{
		Profile: *profile,
		Input:   *input,
		OutDir:  *out,
	})
	if err != nil {
		logger.Error("analysis failed",
			slog.String("profile", *profile),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("analyzed %d rows in %s\n", outcome.Rows, outcome.Elapsed)
	fmt.Printf("  excel:  %s\n", outcome.Artifacts.Excel)
	fmt.Printf("  puml:   %s\n", outcome.Artifacts.Puml)
	fmt.Printf("  charts: %s\n", outcome.Artifacts.Charts)
}

func profileNames() string {
	names := make([]string, 0, len(analysis.Profiles()))
	for name := range analysis.Profiles() {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
