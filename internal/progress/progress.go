// Package progress tracks per-job pipeline progress and exposes cooperative
// cancellation. Each job carries its own state object; there is no global
// mutable map beyond the registry that hands jobs out.
package progress

import (
	"log/slog"
	"sync"

	"github.com/enerdoc/docingest/constants"
	"github.com/enerdoc/docingest/internal/common"
)

// stageWeights maps each document category to its stage weight table. Every
// table sums to 100 so the weighted stage percentages add up to a whole job.
var stageWeights = map[constants.DocCategory]map[constants.Stage]int{
	constants.CategoryImageHeavy: {
		constants.StageUpload:      5,
		constants.StageValidation:  2,
		constants.StageParsing:     10,
		constants.StageRecognition: 60,
		constants.StageAIAnalysis:  8,
		constants.StageAggregation: 5,
		constants.StageSaving:      5,
		constants.StageCompleted:   5,
	},
	constants.CategoryTextHeavy: {
		constants.StageUpload:             5,
		constants.StageValidation:         2,
		constants.StageParsing:            40,
		constants.StageRecognition:        15,
		constants.StageAIAnalysis:         10,
		constants.StageSpecializedParsing: 10,
		constants.StageAggregation:        5,
		constants.StageSaving:             8,
		constants.StageCompleted:          5,
	},
	constants.CategoryMixed: {
		constants.StageUpload:      5,
		constants.StageValidation:  2,
		constants.StageParsing:     25,
		constants.StageRecognition: 40,
		constants.StageAIAnalysis:  10,
		constants.StageAggregation: 5,
		constants.StageSaving:      8,
		constants.StageCompleted:   5,
	},
	constants.CategoryUnknown: {
		constants.StageUpload:      10,
		constants.StageValidation:  10,
		constants.StageParsing:     50,
		constants.StageRecognition: 20,
		constants.StageSaving:      10,
	},
}

// StageStatus is the per-stage slice of the status payload.
type StageStatus struct {
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// Status is the job status payload. Field names are part of the polling
// contract; error is null (not omitted) while the job is healthy.
type Status struct {
	JobID           string                 `json:"jobId"`
	OverallProgress int                    `json:"overallProgress"`
	CurrentStage    string                 `json:"currentStage"`
	Stages          map[string]StageStatus `json:"stages"`
	IsCompleted     bool                   `json:"isCompleted"`
	IsCancelled     bool                   `json:"isCancelled"`
	Error           *string                `json:"error"`
}

// Job is one in-flight extraction's progress state. The owning pipeline
// goroutine writes; status pollers read. All access goes through the mutex.
type Job struct {
	mu        sync.RWMutex
	id        string
	weights   map[constants.Stage]int
	stages    map[constants.Stage]StageStatus
	current   constants.Stage
	overall   int
	completed bool
	cancelled bool
	errText   string
}

// UpdateStage records a stage percentage in [0,100]. A stage's recorded
// progress never moves backwards, which keeps the weighted overall value
// monotonic. Overall stays below 100 until Complete.
func (j *Job) UpdateStage(stage constants.Stage, percent int, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.completed || j.cancelled {
		return
	}

	prev := j.stages[stage]
	if percent < prev.Progress {
		percent = prev.Progress
	}
	j.stages[stage] = StageStatus{Progress: percent, Message: message}
	j.current = stage

	total := 0
	for s, st := range j.stages {
		total += j.weights[s] * st.Progress / 100
	}
	if total > 99 {
		total = 99
	}
	if total > j.overall {
		j.overall = total
	}
}

// SetCategory swaps the weight table once classification is known. A job
// starts under the unknown table; already-recorded stage progress keeps the
// overall value monotonic across the swap.
func (j *Job) SetCategory(category constants.DocCategory) {
	weights, ok := stageWeights[category]
	if !ok {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.weights = weights
}

// Cancel flips the cooperative cancellation flag. It never interrupts work
// directly; long-running stages poll Cancelled between iterations.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.completed {
		return
	}
	j.cancelled = true
}

// Cancelled reports whether a caller asked this job to stop.
func (j *Job) Cancelled() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.cancelled
}

// Complete moves the job to its terminal successful state. Only here does
// overall progress reach 100.
func (j *Job) Complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancelled {
		return
	}
	j.completed = true
	j.current = constants.StageCompleted
	j.stages[constants.StageCompleted] = StageStatus{Progress: 100, Message: "done"}
	j.overall = 100
}

// Fail records a terminal error. The stored text is the stable machine code
// followed by a human-readable message.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.current = constants.StageError
	j.errText = common.ErrorCode(err) + ": " + err.Error()
}

// Status returns an immutable snapshot of the job.
func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()

	stages := make(map[string]StageStatus, len(j.stages))
	for s, st := range j.stages {
		stages[string(s)] = st
	}
	var errPtr *string
	if j.errText != "" {
		e := j.errText
		errPtr = &e
	}
	return Status{
		JobID:           j.id,
		OverallProgress: j.overall,
		CurrentStage:    string(j.current),
		Stages:          stages,
		IsCompleted:     j.completed,
		IsCancelled:     j.cancelled,
		Error:           errPtr,
	}
}

// Tracker hands out and looks up per-job progress state.
type Tracker struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	logger *slog.Logger
}

func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{jobs: make(map[string]*Job), logger: logger}
}

// Start registers a new job under the given category's weight table.
// Starting an already-tracked job returns the existing state.
func (t *Tracker) Start(jobID string, category constants.DocCategory) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.jobs[jobID]; ok {
		return existing
	}

	weights, ok := stageWeights[category]
	if !ok {
		weights = stageWeights[constants.CategoryUnknown]
	}
	job := &Job{
		id:      jobID,
		weights: weights,
		stages:  make(map[constants.Stage]StageStatus),
		current: constants.StageUpload,
	}
	t.jobs[jobID] = job
	t.logger.Debug("progress.job.start", "job_id", jobID, "category", string(category))
	return job
}

// Get returns the job or nil when unknown.
func (t *Tracker) Get(jobID string) *Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.jobs[jobID]
}

// Cancel flags the job for cooperative cancellation.
func (t *Tracker) Cancel(jobID string) error {
	job := t.Get(jobID)
	if job == nil {
		return common.NewAppError("NOT_FOUND", "unknown job "+jobID, common.ErrNotFound)
	}
	job.Cancel()
	t.logger.Info("progress.job.cancel", "job_id", jobID)
	return nil
}

// GetStatus returns the current status snapshot for a job.
func (t *Tracker) GetStatus(jobID string) (Status, error) {
	job := t.Get(jobID)
	if job == nil {
		return Status{}, common.NewAppError("NOT_FOUND", "unknown job "+jobID, common.ErrNotFound)
	}
	return job.Status(), nil
}

// Remove discards a finished job's state after its result is consumed.
func (t *Tracker) Remove(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, jobID)
}
