package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/enerdoc/docingest/constants"
	"github.com/enerdoc/docingest/gen/ent"
	entjob "github.com/enerdoc/docingest/gen/ent/extractjob"
)

// StoredResult is the persisted slice of an extraction outcome. The
// repository treats it as an opaque value keyed by file; interpreting the
// tables payload is the caller's business.
type StoredResult struct {
	Text               string
	Tables             []byte
	Classification     []byte
	StrategyUsed       string
	UsedRecognition    bool
	EnhancementApplied bool
}

type ExtractJobRepository interface {
	Start(ctx context.Context, fileID uuid.UUID, format string) (*ent.ExtractJob, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, res StoredResult) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	FinishCancelled(ctx context.Context, jobID uuid.UUID) error
	LatestByFileID(ctx context.Context, fileID uuid.UUID) (*ent.ExtractJob, error)
}

type extractJobRepo struct {
	ent *ent.Client
	log *slog.Logger
}

func NewExtractJobRepository(entc *ent.Client, log *slog.Logger) ExtractJobRepository {
	return &extractJobRepo{ent: entc, log: log}
}

func (r *extractJobRepo) Start(ctx context.Context, fileID uuid.UUID, format string) (*ent.ExtractJob, error) {
	job, err := r.ent.ExtractJob.
		Create().
		SetFileID(fileID).
		SetFormat(format).
		SetStatus(string(constants.JobStatusRunning)).
		Save(ctx)
	if err != nil {
		r.log.Error("extract_job start failed", "file_id", fileID, "err", err)
		return nil, err
	}
	r.log.Info("extract_job started", "job_id", job.ID, "file_id", fileID, "format", format)
	return job, nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, res StoredResult) error {
	_, err := r.ent.ExtractJob.
		UpdateOneID(jobID).
		SetExtractedText(res.Text).
		SetTables(res.Tables).
		SetClassification(res.Classification).
		SetStrategyUsed(res.StrategyUsed).
		SetUsedRecognition(res.UsedRecognition).
		SetEnhancementApplied(res.EnhancementApplied).
		SetFinishedAt(time.Now()).
		SetStatus(string(constants.JobStatusDone)).
		Save(ctx)
	if err != nil {
		r.log.Error("extract_job finish(DONE) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished", "job_id", jobID, "strategy", res.StrategyUsed)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	_, err := r.ent.ExtractJob.
		UpdateOneID(jobID).
		SetFinishedAt(time.Now()).
		SetStatus(string(constants.JobStatusFailed)).
		SetErrorMessage(message).
		Save(ctx)
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) FinishCancelled(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.ent.ExtractJob.
		UpdateOneID(jobID).
		SetFinishedAt(time.Now()).
		SetStatus(string(constants.JobStatusCancelled)).
		Save(ctx)
	if err != nil {
		r.log.Error("extract_job finish(CANCELLED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (CANCELLED)", "job_id", jobID)
	return nil
}

// LatestByFileID returns the most recent job for a file, which is how
// previously stored results are looked up.
func (r *extractJobRepo) LatestByFileID(ctx context.Context, fileID uuid.UUID) (*ent.ExtractJob, error) {
	return r.ent.ExtractJob.Query().
		Where(entjob.FileID(fileID)).
		Order(ent.Desc(entjob.FieldStartedAt)).
		First(ctx)
}
