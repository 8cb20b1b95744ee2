package progress

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/enerdoc/docingest/constants"
	"github.com/enerdoc/docingest/internal/common"
)

func TestOverallProgressIsMonotonic(t *testing.T) {
	tr := NewTracker(nil)
	job := tr.Start("job-1", constants.CategoryImageHeavy)

	updates := []struct {
		stage   constants.Stage
		percent int
	}{
		{constants.StageUpload, 100},
		{constants.StageValidation, 100},
		{constants.StageParsing, 50},
		{constants.StageParsing, 30}, // regression must not move overall back
		{constants.StageParsing, 100},
		{constants.StageRecognition, 20},
		{constants.StageRecognition, 80},
		{constants.StageRecognition, 100},
		{constants.StageAggregation, 100},
		{constants.StageSaving, 100},
	}

	prev := -1
	for _, u := range updates {
		job.UpdateStage(u.stage, u.percent, "")
		cur := job.Status().OverallProgress
		if cur < prev {
			t.Fatalf("overall went backwards: %d -> %d after %s=%d", prev, cur, u.stage, u.percent)
		}
		prev = cur
	}
}

func TestOverallReaches100OnlyWhenComplete(t *testing.T) {
	tr := NewTracker(nil)
	job := tr.Start("job-1", constants.CategoryImageHeavy)

	for _, stage := range []constants.Stage{
		constants.StageUpload, constants.StageValidation, constants.StageParsing,
		constants.StageRecognition, constants.StageAIAnalysis,
		constants.StageAggregation, constants.StageSaving, constants.StageCompleted,
	} {
		job.UpdateStage(stage, 100, "")
	}
	if got := job.Status().OverallProgress; got >= 100 {
		t.Fatalf("overall = %d before Complete, want < 100", got)
	}

	job.Complete()
	st := job.Status()
	if st.OverallProgress != 100 {
		t.Errorf("overall = %d after Complete, want 100", st.OverallProgress)
	}
	if !st.IsCompleted {
		t.Error("IsCompleted = false after Complete")
	}
	if st.CurrentStage != string(constants.StageCompleted) {
		t.Errorf("currentStage = %s, want completed", st.CurrentStage)
	}
}

func TestCancelIsDistinctFromFailure(t *testing.T) {
	tr := NewTracker(nil)
	job := tr.Start("job-c", constants.CategoryMixed)
	job.UpdateStage(constants.StageParsing, 40, "")

	if err := tr.Cancel("job-c"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !job.Cancelled() {
		t.Fatal("Cancelled() = false after Cancel")
	}

	st := job.Status()
	if !st.IsCancelled {
		t.Error("IsCancelled = false")
	}
	if st.IsCompleted {
		t.Error("IsCompleted = true on a cancelled job")
	}
	if st.Error != nil {
		t.Errorf("error = %v on a cancelled job, want null", *st.Error)
	}

	// Completing after cancellation is a no-op.
	job.Complete()
	if job.Status().IsCompleted {
		t.Error("Complete overrode cancellation")
	}
}

func TestFailRecordsStableErrorCode(t *testing.T) {
	tr := NewTracker(nil)
	job := tr.Start("job-f", constants.CategoryTextHeavy)

	job.Fail(common.NewAppError("TIMEOUT", "stage deadline exceeded", common.ErrTimeout))

	st := job.Status()
	if st.Error == nil {
		t.Fatal("error = null after Fail")
	}
	if got := *st.Error; got[:7] != "TIMEOUT" {
		t.Errorf("error = %q, want TIMEOUT prefix", got)
	}
	if st.IsCancelled {
		t.Error("IsCancelled = true on a failed job")
	}
	if st.CurrentStage != string(constants.StageError) {
		t.Errorf("currentStage = %s, want error", st.CurrentStage)
	}
}

func TestStatusPayloadFieldNames(t *testing.T) {
	tr := NewTracker(nil)
	job := tr.Start("job-json", constants.CategoryImageHeavy)
	job.UpdateStage(constants.StageRecognition, 40, "recognized page 2/5")

	raw, err := json.Marshal(job.Status())
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"jobId", "overallProgress", "currentStage", "stages", "isCompleted", "isCancelled", "error"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("payload missing %q: %s", key, raw)
		}
	}
	if payload["error"] != nil {
		t.Errorf("error = %v, want null", payload["error"])
	}
	stages, ok := payload["stages"].(map[string]any)
	if !ok {
		t.Fatalf("stages is %T", payload["stages"])
	}
	rec, ok := stages["recognition"].(map[string]any)
	if !ok {
		t.Fatalf("stages.recognition missing: %s", raw)
	}
	if rec["progress"] != float64(40) || rec["message"] != "recognized page 2/5" {
		t.Errorf("stages.recognition = %v", rec)
	}
}

func TestWeightTablesSumTo100(t *testing.T) {
	for category, weights := range stageWeights {
		sum := 0
		for _, w := range weights {
			sum += w
		}
		if sum != 100 {
			t.Errorf("weights for %s sum to %d, want 100", category, sum)
		}
	}
}

func TestTrackerUnknownJob(t *testing.T) {
	tr := NewTracker(nil)
	if _, err := tr.GetStatus("nope"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetStatus(unknown) = %v, want ErrNotFound", err)
	}
	if err := tr.Cancel("nope"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Cancel(unknown) = %v, want ErrNotFound", err)
	}
}

func TestTrackerRemove(t *testing.T) {
	tr := NewTracker(nil)
	tr.Start("gone", constants.CategoryUnknown)
	tr.Remove("gone")
	if job := tr.Get("gone"); job != nil {
		t.Error("job still tracked after Remove")
	}
}
