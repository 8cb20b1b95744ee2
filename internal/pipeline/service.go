package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/enerdoc/docingest/constants"
	"github.com/enerdoc/docingest/internal/common"
	"github.com/enerdoc/docingest/internal/document"
	"github.com/enerdoc/docingest/internal/progress"
	"github.com/enerdoc/docingest/internal/repository"
)

// Service wraps the orchestrator with file intake, progress bookkeeping and
// persistence. Repositories may be nil for ephemeral (non-persisted) runs.
type Service struct {
	orch    *Orchestrator
	tracker *progress.Tracker
	files   repository.DocumentFileRepository
	jobs    repository.ExtractJobRepository
	logger  *slog.Logger
}

func NewService(
	orch *Orchestrator,
	tracker *progress.Tracker,
	files repository.DocumentFileRepository,
	jobs repository.ExtractJobRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orch:    orch,
		tracker: tracker,
		files:   files,
		jobs:    jobs,
		logger:  logger,
	}
}

// Process ingests one file and runs the full pipeline synchronously.
// The returned job ID is valid for GetStatus/Cancel for as long as the
// caller keeps the job registered.
func (s *Service) Process(ctx context.Context, path string) (string, *ExtractionResult, error) {
	jobID, job, src, fileID, format, err := s.intake(ctx, path)
	if err != nil {
		return jobID, nil, err
	}
	defer src.Close()

	res, err := s.run(ctx, jobID, job, src, fileID, format)
	return jobID, res, err
}

// SubmitAsync starts the pipeline in the background and returns the job ID
// immediately for polling. The callback, if any, observes the outcome.
func (s *Service) SubmitAsync(ctx context.Context, path string, done func(*ExtractionResult, error)) (string, error) {
	jobID, job, src, fileID, format, err := s.intake(ctx, path)
	if err != nil {
		return jobID, err
	}

	// The caller's context usually dies as soon as its handler returns;
	// the background run must outlive it. Cancellation goes through the
	// job's cooperative flag instead.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer src.Close()
		res, runErr := s.run(runCtx, jobID, job, src, fileID, format)
		if done != nil {
			done(res, runErr)
		}
	}()
	return jobID, nil
}

// GetStatus returns the status payload for a tracked job.
func (s *Service) GetStatus(jobID string) (progress.Status, error) {
	return s.tracker.GetStatus(jobID)
}

// Cancel flags a tracked job for cooperative cancellation.
func (s *Service) Cancel(jobID string) error {
	return s.tracker.Cancel(jobID)
}

// Release discards a finished job's progress state.
func (s *Service) Release(jobID string) {
	s.tracker.Remove(jobID)
}

// intake covers the upload and validation stages: hash and register the
// file, check the extension, open a page source.
func (s *Service) intake(ctx context.Context, path string) (string, *progress.Job, document.Source, uuid.UUID, string, error) {
	jobID := uuid.New().String()
	job := s.tracker.Start(jobID, constants.CategoryUnknown)

	job.UpdateStage(constants.StageUpload, 10, "registering file")
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		err := common.NewAppError("INVALID_INPUT", "unsupported file extension "+ext, common.ErrInvalidInput)
		s.fail(jobID, job, err)
		return jobID, nil, nil, uuid.Nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		appErr := common.NewAppError("DOCUMENT_UNREADABLE", "cannot open source file", common.ErrDocumentUnreadable)
		s.fail(jobID, job, appErr)
		return jobID, nil, nil, uuid.Nil, "", appErr
	}
	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	f.Close()
	if err != nil {
		appErr := common.NewAppError("DOCUMENT_UNREADABLE", "cannot read source file", common.ErrDocumentUnreadable)
		s.fail(jobID, job, appErr)
		return jobID, nil, nil, uuid.Nil, "", appErr
	}

	fileID := uuid.New()
	if s.files != nil {
		row, known, repoErr := s.files.UpsertByHash(ctx, path, filepath.Base(path), ext, int(size), hasher.Sum(nil), time.Now())
		if repoErr != nil {
			s.fail(jobID, job, repoErr)
			return jobID, nil, nil, uuid.Nil, "", repoErr
		}
		fileID = row.ID
		if known {
			s.logger.Info("pipeline.file.known", "job_id", jobID, "file_id", fileID)
		}
	}
	job.UpdateStage(constants.StageUpload, 100, "file registered")

	job.UpdateStage(constants.StageValidation, 50, "opening document")
	var src document.Source
	var openErr error
	if format == constants.PDF {
		src, openErr = document.OpenPDF(path, s.logger)
	} else {
		src, openErr = document.OpenImage(path)
	}
	if openErr != nil {
		s.fail(jobID, job, openErr)
		return jobID, nil, nil, uuid.Nil, "", openErr
	}
	job.UpdateStage(constants.StageValidation, 100, "document opened")

	return jobID, job, src, fileID, format, nil
}

// run drives the orchestrator and owns the terminal transitions: saving,
// completion, failure and cancellation bookkeeping.
func (s *Service) run(ctx context.Context, jobID string, job *progress.Job, src document.Source, fileID uuid.UUID, format string) (*ExtractionResult, error) {
	var repoJobID uuid.UUID
	if s.jobs != nil {
		row, err := s.jobs.Start(ctx, fileID, format)
		if err != nil {
			s.fail(jobID, job, err)
			return nil, err
		}
		repoJobID = row.ID
	}

	ctx = common.WithJobID(ctx, jobID)
	res, err := s.orch.Run(ctx, jobID, src, job)
	if err != nil {
		if errors.Is(err, common.ErrCancelled) {
			if s.jobs != nil && repoJobID != uuid.Nil {
				if repoErr := s.jobs.FinishCancelled(ctx, repoJobID); repoErr != nil {
					s.logger.Error("pipeline.cancel.persist_failed", "job_id", jobID, "error", repoErr)
				}
			}
			return nil, err
		}
		job.Fail(err)
		if s.jobs != nil && repoJobID != uuid.Nil {
			if repoErr := s.jobs.FinishFailure(ctx, repoJobID, err.Error()); repoErr != nil {
				s.logger.Error("pipeline.fail.persist_failed", "job_id", jobID, "error", repoErr)
			}
		}
		return nil, err
	}

	job.UpdateStage(constants.StageSaving, 10, "storing result")
	if s.jobs != nil && repoJobID != uuid.Nil {
		stored, buildErr := buildStoredResult(res)
		if buildErr == nil {
			buildErr = s.jobs.FinishSuccess(ctx, repoJobID, stored)
		}
		if buildErr != nil {
			job.Fail(buildErr)
			if repoErr := s.jobs.FinishFailure(ctx, repoJobID, buildErr.Error()); repoErr != nil {
				s.logger.Error("pipeline.save.persist_failed", "job_id", jobID, "error", repoErr)
			}
			return nil, buildErr
		}
	}
	job.UpdateStage(constants.StageSaving, 100, "result stored")

	job.Complete()
	return res, nil
}

func (s *Service) fail(jobID string, job *progress.Job, err error) {
	job.Fail(err)
	s.logger.Error("pipeline.job.failed", "job_id", jobID, "error", err)
}

func buildStoredResult(res *ExtractionResult) (repository.StoredResult, error) {
	tablesJSON, err := json.Marshal(res.Tables)
	if err != nil {
		return repository.StoredResult{}, err
	}
	clsJSON, err := json.Marshal(res.Classification)
	if err != nil {
		return repository.StoredResult{}, err
	}
	return repository.StoredResult{
		Text:               res.Text,
		Tables:             tablesJSON,
		Classification:     clsJSON,
		StrategyUsed:       res.StrategyUsed,
		UsedRecognition:    res.UsedRecognition,
		EnhancementApplied: res.EnhancementApplied,
	}, nil
}
