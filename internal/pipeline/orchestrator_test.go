package pipeline

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/enerdoc/docingest/constants"
	"github.com/enerdoc/docingest/internal/classifier"
	"github.com/enerdoc/docingest/internal/common"
	"github.com/enerdoc/docingest/internal/progress"
	"github.com/enerdoc/docingest/internal/tables"
)

// fakeSource encodes the page index in the rendered image width so the fake
// recognizer can tell pages apart.
type fakeSource struct {
	pages []string
}

func (f *fakeSource) NumPages() int { return len(f.pages) }

func (f *fakeSource) PageText(i int) (string, error) { return f.pages[i], nil }

func (f *fakeSource) PageImage(ctx context.Context, i int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return image.NewGray(image.Rect(0, 0, i+1, 1)), nil
}

func (f *fakeSource) PageInkRatio(i int) (float64, error) { return 0.5, nil }

func (f *fakeSource) Close() error { return nil }

// fakeRecognizer maps the encoded page index back to canned text.
type fakeRecognizer struct {
	perPage func(page int) (string, error)
}

func (r *fakeRecognizer) Recognize(ctx context.Context, img image.Image, langHints []string) (string, error) {
	return r.perPage(img.Bounds().Dx() - 1)
}

func (r *fakeRecognizer) Close() error { return nil }

type fakeEnhancer struct {
	out string
	err error
}

func (e *fakeEnhancer) Enhance(ctx context.Context, text string) (string, error) {
	return e.out, e.err
}

const alignedTable = "Name      Qty   Price\nNails     40    1.20\nScrews    12    0.80"

func textPage() string {
	return alignedTable + "\n" + strings.Repeat("filler text line about energy consumption\n", 5)
}

func newTestOrchestrator(rec *fakeRecognizer, enh *fakeEnhancer, concurrency int) *Orchestrator {
	cfg := common.RecognizeConfig{Concurrency: concurrency}
	o := NewOrchestrator(
		classifier.New(common.ClassifierConfig{}, nil),
		tables.DefaultRegistry(),
		nil, // preprocessing is exercised in its own package
		nil,
		nil,
		cfg,
		nil,
	)
	if rec != nil {
		o.recognizer = rec
	}
	if enh != nil {
		o.enhancer = enh
	}
	return o
}

func startJob(t *testing.T, id string) (*progress.Tracker, *progress.Job) {
	t.Helper()
	tr := progress.NewTracker(nil)
	return tr, tr.Start(id, constants.CategoryUnknown)
}

func TestRunTextFirst(t *testing.T) {
	src := &fakeSource{pages: []string{textPage(), textPage(), textPage()}}
	o := newTestOrchestrator(nil, nil, 1)
	_, job := startJob(t, "job-text")

	res, err := o.Run(context.Background(), "job-text", src, job)
	if err != nil {
		t.Fatal(err)
	}
	if res.StrategyUsed != string(classifier.TextFirst) {
		t.Errorf("strategy = %s, want text_first", res.StrategyUsed)
	}
	if res.UsedRecognition {
		t.Error("usedRecognition = true for a text-native document")
	}
	if len(res.Tables) == 0 {
		t.Fatal("no tables extracted from aligned text")
	}
	if !strings.Contains(res.Text, "--- Page 2 ---") {
		t.Errorf("text missing page marker: %q", res.Text[:80])
	}
}

func TestRunRecognitionFirst(t *testing.T) {
	src := &fakeSource{pages: []string{"", "", "", "", ""}}
	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		return alignedTable, nil
	}}
	o := newTestOrchestrator(rec, nil, 1)
	_, job := startJob(t, "job-scan")

	res, err := o.Run(context.Background(), "job-scan", src, job)
	if err != nil {
		t.Fatal(err)
	}
	if res.StrategyUsed != string(classifier.RecognitionFirst) {
		t.Errorf("strategy = %s, want recognition_first", res.StrategyUsed)
	}
	if !res.UsedRecognition {
		t.Error("usedRecognition = false on the recognition path")
	}
	pages := map[int]bool{}
	for _, tab := range res.Tables {
		pages[tab.PageNumber] = true
	}
	if len(pages) != 5 {
		t.Errorf("tables found on %d pages, want all 5", len(pages))
	}
}

func TestRunRecognitionFirstWithoutEngine(t *testing.T) {
	src := &fakeSource{pages: []string{"", "", ""}}
	o := newTestOrchestrator(nil, nil, 1)
	_, job := startJob(t, "job-noeng")

	_, err := o.Run(context.Background(), "job-noeng", src, job)
	if !errors.Is(err, common.ErrEngineUnavailable) {
		t.Errorf("err = %v, want ErrEngineUnavailable", err)
	}
}

func TestRunCancelledDuringRecognition(t *testing.T) {
	src := &fakeSource{pages: []string{"", "", "", ""}}
	tr := progress.NewTracker(nil)
	job := tr.Start("job-cancel", constants.CategoryUnknown)

	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		if page == 0 {
			// First page completes, then the caller asks to stop.
			job.Cancel()
			return alignedTable, nil
		}
		return alignedTable, nil
	}}
	o := newTestOrchestrator(rec, nil, 1)

	res, err := o.Run(context.Background(), "job-cancel", src, job)
	if !errors.Is(err, common.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if res != nil {
		t.Error("cancelled run returned a partial result")
	}
	if !job.Cancelled() {
		t.Error("job not flagged cancelled")
	}
}

func TestRunPageTimeoutFailsJob(t *testing.T) {
	src := &fakeSource{pages: []string{"", ""}}
	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		if page == 1 {
			return "", common.NewAppError("TIMEOUT", "page deadline exceeded", common.ErrTimeout)
		}
		return "some text", nil
	}}
	o := newTestOrchestrator(rec, nil, 1)
	_, job := startJob(t, "job-timeout")

	_, err := o.Run(context.Background(), "job-timeout", src, job)
	if !errors.Is(err, common.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if errors.Is(err, common.ErrCancelled) {
		t.Error("timeout classified as cancellation")
	}
}

func TestRunPageFailureIsRecoverable(t *testing.T) {
	src := &fakeSource{pages: []string{"", "", ""}}
	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		if page == 1 {
			return "", common.NewAppError("RECOGNITION_FAILED", "glyphs unreadable", common.ErrRecognitionFailed)
		}
		return "recognized words on page", nil
	}}
	o := newTestOrchestrator(rec, nil, 1)
	_, job := startJob(t, "job-partial")

	res, err := o.Run(context.Background(), "job-partial", src, job)
	if err != nil {
		t.Fatalf("page-level failure escalated: %v", err)
	}
	if !strings.Contains(res.Text, "--- Page 2 ---") {
		t.Error("failed page missing from output; it should contribute empty text")
	}
}

func TestRunEnhancementFailureKeepsText(t *testing.T) {
	src := &fakeSource{pages: []string{""}}
	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		return "raw recognized content", nil
	}}
	enh := &fakeEnhancer{err: common.NewAppError("ENHANCEMENT_FAILED", "bad output", common.ErrEnhancementFailed)}
	o := newTestOrchestrator(rec, enh, 1)
	_, job := startJob(t, "job-enh-fail")

	res, err := o.Run(context.Background(), "job-enh-fail", src, job)
	if err != nil {
		t.Fatalf("enhancement failure escalated: %v", err)
	}
	if res.EnhancementApplied {
		t.Error("enhancementApplied = true after a failed enhancement")
	}
	if !strings.Contains(res.Text, "raw recognized content") {
		t.Error("unenhanced text was not kept")
	}
}

func TestRunEnhancementReplacesText(t *testing.T) {
	src := &fakeSource{pages: []string{""}}
	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		return "raw recognized content", nil
	}}
	enh := &fakeEnhancer{out: "polished content"}
	o := newTestOrchestrator(rec, enh, 1)
	_, job := startJob(t, "job-enh-ok")

	res, err := o.Run(context.Background(), "job-enh-ok", src, job)
	if err != nil {
		t.Fatal(err)
	}
	if !res.EnhancementApplied {
		t.Error("enhancementApplied = false after successful enhancement")
	}
	if res.Text != "polished content" {
		t.Errorf("text = %q, want the enhanced text", res.Text)
	}
}

func TestRunEnhancementSkippedWithoutRecognition(t *testing.T) {
	src := &fakeSource{pages: []string{textPage(), textPage(), textPage()}}
	enh := &fakeEnhancer{out: "should never appear"}
	o := newTestOrchestrator(nil, enh, 1)
	_, job := startJob(t, "job-enh-skip")

	res, err := o.Run(context.Background(), "job-enh-skip", src, job)
	if err != nil {
		t.Fatal(err)
	}
	if res.EnhancementApplied {
		t.Error("enhancement ran on a purely text-native extraction")
	}
	if strings.Contains(res.Text, "should never appear") {
		t.Error("enhanced text leaked into a non-recognition run")
	}
}

func TestRunThinTextLayerFallsBackToRecognition(t *testing.T) {
	// Native layer exists but is sparse; recognition produces far more
	// text, so the longer output wins. The mid-chars threshold is lowered
	// so the sparse pages still classify as text-native.
	src := &fakeSource{pages: []string{"stub words here that exceed ten", "more stub words beyond the low bar", "third page stub text over ten"}}
	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		return strings.Repeat("dense recognized line\n", 20), nil
	}}
	o := NewOrchestrator(
		classifier.New(common.ClassifierConfig{MidChars: 25}, nil),
		tables.DefaultRegistry(),
		nil,
		rec,
		nil,
		common.RecognizeConfig{Concurrency: 1},
		nil,
	)
	_, job := startJob(t, "job-thin")

	res, err := o.Run(context.Background(), "job-thin", src, job)
	if err != nil {
		t.Fatal(err)
	}
	if res.StrategyUsed != string(classifier.TextFirst) {
		t.Fatalf("strategy = %s, want text_first", res.StrategyUsed)
	}
	if !res.UsedRecognition {
		t.Error("usedRecognition = false; the longer recognized output should win")
	}
	if !strings.Contains(res.Text, "dense recognized line") {
		t.Error("recognized text not kept")
	}
}

func TestRunHybridExtractsTablesAfterRecognition(t *testing.T) {
	// Text on two of five pages classifies as hybrid in both passes. Table
	// extraction must not start until recognition has finished, so the
	// specialized_parsing stage is still untouched when the first page hits
	// the recognizer.
	src := &fakeSource{pages: []string{textPage(), "", "", textPage(), ""}}
	tr := progress.NewTracker(nil)
	job := tr.Start("job-hybrid", constants.CategoryUnknown)

	var once sync.Once
	tablesProgressAtRecognize := -1
	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		once.Do(func() {
			st := job.Status().Stages[string(constants.StageSpecializedParsing)]
			tablesProgressAtRecognize = st.Progress
		})
		return alignedTable, nil
	}}
	o := newTestOrchestrator(rec, nil, 1)

	res, err := o.Run(context.Background(), "job-hybrid", src, job)
	if err != nil {
		t.Fatal(err)
	}
	if res.StrategyUsed != string(classifier.HybridStrategy) {
		t.Fatalf("strategy = %s, want hybrid", res.StrategyUsed)
	}
	if !res.UsedRecognition {
		t.Error("usedRecognition = false on the hybrid path")
	}
	if tablesProgressAtRecognize != 0 {
		t.Errorf("specialized_parsing = %d before recognition finished, want 0", tablesProgressAtRecognize)
	}
	if len(res.Tables) == 0 {
		t.Error("no tables pooled from the hybrid path")
	}
}

// cannedBackend emits one fixed table per page with a fixed accuracy.
type cannedBackend struct {
	name     string
	accuracy float64
}

func (b *cannedBackend) Name() string    { return b.name }
func (b *cannedBackend) Available() bool { return true }

func (b *cannedBackend) ExtractFromText(pageNum int, text string) []tables.Table {
	return []tables.Table{{
		PageNumber:  pageNum,
		BackendName: b.name,
		Rows:        [][]string{{"a", "b", "c"}, {"d", "e", "f"}},
		RowCount:    2,
		ColCount:    3,
		Accuracy:    b.accuracy,
	}}
}

func TestRunMergeKeepsBestTablePerIdentity(t *testing.T) {
	// Two backends recover the same (page, rows, cols) identity with
	// different accuracy; the merged result keeps only the better one.
	reg := tables.NewRegistry()
	reg.Register(&cannedBackend{name: "weak", accuracy: 0.6})
	reg.Register(&cannedBackend{name: "strong", accuracy: 0.8})

	src := &fakeSource{pages: []string{textPage(), textPage(), textPage()}}
	o := NewOrchestrator(
		classifier.New(common.ClassifierConfig{}, nil),
		reg,
		nil,
		nil,
		nil,
		common.RecognizeConfig{Concurrency: 1},
		nil,
	)
	_, job := startJob(t, "job-merge")

	res, err := o.Run(context.Background(), "job-merge", src, job)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Tables) != 3 {
		t.Fatalf("tables = %d, want one merged table per page", len(res.Tables))
	}
	for _, tab := range res.Tables {
		if tab.BackendName != "strong" || tab.Accuracy != 0.8 {
			t.Errorf("page %d kept %s/%v, want strong/0.8", tab.PageNumber, tab.BackendName, tab.Accuracy)
		}
	}
}
