package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"medpulse/internal/config"
	"medpulse/internal/medical"
)

func main() {
	out := flag.String("out", "data/medical.json", "output dataset path")
	seed := flag.Int64("seed", medical.DefaultSeed, "random seed")
	project := flag.String("project", "", "BigQuery project id; when set, upload instead of writing a file")
	dataset := flag.String("dataset", "medical_data", "BigQuery dataset name")
	credentials := flag.String("credentials", "", "BigQuery service account key file")
	flag.Parse()

	data := medical.GenerateDataset(*seed)

	if *project != "" {
		if err := upload(*project, *dataset, *credentials, data); err != nil {
			slog.Error("failed to upload dataset",
				slog.String("project", *project),
				slog.String("dataset", *dataset),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("uploaded to %s.%s: %d patients, %d doctors, %d departments, %d treatments, %d visits\n",
			*project, *dataset, len(data.Patients), len(data.Doctors),
			len(data.Departments), len(data.Treatments), len(data.Visits))
		return
	}

	if err := medical.SaveDataset(*out, data); err != nil {
		slog.Error("failed to write dataset",
			slog.String("path", *out),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("wrote %s: %d patients, %d doctors, %d departments, %d treatments, %d visits\n",
		*out, len(data.Patients), len(data.Doctors), len(data.Departments),
		len(data.Treatments), len(data.Visits))
}

func upload(project, dataset, credentials string, data *medical.Dataset) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	analytics, err := medical.NewBigQueryAnalytics(ctx, config.BigQueryConfig{
		ProjectID:       project,
		Dataset:         dataset,
		CredentialsFile: credentials,
		QueryTimeout:    time.Minute,
	})
	if err != nil {
		return err
	}
	defer analytics.Close()

	return analytics.Upload(ctx, data)
}
