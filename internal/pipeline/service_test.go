package pipeline

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/enerdoc/docingest/internal/progress"
)

func writeScanPNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubmitAsyncOutlivesCallerContext(t *testing.T) {
	rec := &fakeRecognizer{perPage: func(page int) (string, error) {
		return "recognized words on the scan", nil
	}}
	o := newTestOrchestrator(rec, nil, 1)
	svc := NewService(o, progress.NewTracker(nil), nil, nil, nil)

	// HTTP handlers cancel their request context as soon as they return;
	// the background run must not inherit that cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	type outcome struct {
		res *ExtractionResult
		err error
	}
	done := make(chan outcome, 1)
	jobID, err := svc.SubmitAsync(ctx, writeScanPNG(t), func(res *ExtractionResult, runErr error) {
		done <- outcome{res: res, err: runErr}
	})
	if err != nil {
		t.Fatal(err)
	}

	select {
	case out := <-done:
		if out.err != nil {
			t.Fatalf("background run failed: %v", out.err)
		}
		if out.res == nil || !strings.Contains(out.res.Text, "recognized words") {
			t.Fatalf("result text missing recognized content: %+v", out.res)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("background run never finished")
	}

	st, err := svc.GetStatus(jobID)
	if err != nil {
		t.Fatal(err)
	}
	if !st.IsCompleted {
		t.Error("job not marked completed")
	}
	if st.IsCancelled {
		t.Error("job reported cancelled though no caller cancelled it")
	}
}

func TestProcessRejectsUnknownExtension(t *testing.T) {
	o := newTestOrchestrator(nil, nil, 1)
	svc := NewService(o, progress.NewTracker(nil), nil, nil, nil)

	jobID, _, err := svc.Process(context.Background(), "notes.docx")
	if err == nil {
		t.Fatal("unsupported extension accepted")
	}
	st, stErr := svc.GetStatus(jobID)
	if stErr != nil {
		t.Fatal(stErr)
	}
	if st.Error == nil || !strings.HasPrefix(*st.Error, "INVALID_INPUT") {
		t.Errorf("status error = %v, want INVALID_INPUT prefix", st.Error)
	}
}
