package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/enerdoc/docingest/internal/classifier"
	"github.com/enerdoc/docingest/internal/common"
	"github.com/enerdoc/docingest/internal/enhance"
	"github.com/enerdoc/docingest/internal/export"
	"github.com/enerdoc/docingest/internal/pipeline"
	"github.com/enerdoc/docingest/internal/preprocess"
	"github.com/enerdoc/docingest/internal/progress"
	"github.com/enerdoc/docingest/internal/recognize"
	repo "github.com/enerdoc/docingest/internal/repository"
	"github.com/enerdoc/docingest/internal/tables"
)

// runextract runs the pipeline once over a single file and prints the final
// status payload and result. Persistence is optional: set DB_URL to store
// the outcome, leave it empty for an ephemeral run.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	xlsxOut := flag.String("xlsx", "", "write extracted tables to this .xlsx file")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall job deadline")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: runextract [-xlsx out.xlsx] [-timeout 10m] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var files repo.DocumentFileRepository
	var jobs repo.ExtractJobRepository
	if cfg.Database.DSN != "" {
		entc, pool, err := repo.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("open db", "error", err)
			os.Exit(1)
		}
		defer repo.Close(entc, pool, logger)
		files = repo.NewDocumentFileRepository(entc, logger)
		jobs = repo.NewExtractJobRepository(entc, logger)
	}

	var recognizer recognize.Recognizer
	if tess, err := recognize.NewTesseract(cfg.Recognize, logger); err != nil {
		logger.Warn("recognition engine unavailable", "error", err)
	} else {
		defer tess.Close()
		recognizer = tess
	}

	var enhancer enhance.Enhancer
	if cfg.Enhance.APIKey != "" {
		enhancer = enhance.NewClient(cfg.Enhance, logger)
	}

	orch := pipeline.NewOrchestrator(
		classifier.New(cfg.Classifier, logger),
		tables.DefaultRegistry(),
		preprocess.New(cfg.Preprocess, logger),
		recognizer,
		enhancer,
		cfg.Recognize,
		logger,
	)
	tracker := progress.NewTracker(logger)
	svc := pipeline.NewService(orch, tracker, files, jobs, logger)

	jobID, res, runErr := svc.Process(ctx, path)

	status, statusErr := svc.GetStatus(jobID)
	if statusErr == nil {
		payload, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(payload))
	}
	if runErr != nil {
		logger.Error("extraction failed", "job_id", jobID, "error", runErr)
		os.Exit(1)
	}

	logger.Info("extraction finished",
		"job_id", jobID,
		"strategy", res.StrategyUsed,
		"used_recognition", res.UsedRecognition,
		"enhancement_applied", res.EnhancementApplied,
		"tables", len(res.Tables),
		"text_len", len(res.Text),
	)

	if *xlsxOut != "" {
		data, err := export.NewService(logger).ExportTablesXLSX(res)
		if err != nil {
			logger.Error("xlsx export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, data, 0o644); err != nil {
			logger.Error("write xlsx", "path", *xlsxOut, "error", err)
			os.Exit(1)
		}
		logger.Info("xlsx written", "path", *xlsxOut, "bytes", len(data))
	}
}
