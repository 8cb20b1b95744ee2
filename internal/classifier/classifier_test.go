package classifier

import (
	"context"
	"image"
	"strings"
	"testing"

	"github.com/enerdoc/docingest/internal/common"
)

// fakeSource serves canned page text and counts render requests so tests
// can observe the layout-pass short-circuit.
type fakeSource struct {
	pages     []string
	inkRatios []float64
	inkCalls  int
}

func (f *fakeSource) NumPages() int { return len(f.pages) }

func (f *fakeSource) PageText(i int) (string, error) { return f.pages[i], nil }

func (f *fakeSource) PageImage(ctx context.Context, i int) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (f *fakeSource) PageInkRatio(i int) (float64, error) {
	f.inkCalls++
	if i < len(f.inkRatios) {
		return f.inkRatios[i], nil
	}
	return 0, nil
}

func (f *fakeSource) Close() error { return nil }

func textOfLen(n int) string { return strings.Repeat("a", n) }

func TestClassifyTextNativeHighConfidence(t *testing.T) {
	src := &fakeSource{pages: []string{textOfLen(400), textOfLen(450), textOfLen(420)}}
	c := New(common.ClassifierConfig{}, nil)

	res := c.Classify(src)

	if res.DocumentType != TextNative {
		t.Fatalf("document type = %s, want %s", res.DocumentType, TextNative)
	}
	if res.Confidence != High {
		t.Fatalf("confidence = %s, want %s", res.Confidence, High)
	}
	if res.TextDensityRatio != 1.0 {
		t.Errorf("coverage = %v, want 1.0", res.TextDensityRatio)
	}
	if res.AvgCharsPerPage < 420 || res.AvgCharsPerPage > 430 {
		t.Errorf("avg chars = %v, want about 423", res.AvgCharsPerPage)
	}
	if got := SelectStrategy(res); got != TextFirst {
		t.Errorf("strategy = %s, want %s", got, TextFirst)
	}
}

func TestClassifyImageNativeHighConfidence(t *testing.T) {
	src := &fakeSource{
		pages:     []string{"", "", "", "", ""},
		inkRatios: []float64{0.5, 0.5, 0.5, 0.5, 0.5},
	}
	c := New(common.ClassifierConfig{}, nil)

	res := c.Classify(src)

	if res.DocumentType != ImageNative || res.Confidence != High {
		t.Fatalf("got %s/%s, want %s/%s", res.DocumentType, res.Confidence, ImageNative, High)
	}
	if got := SelectStrategy(res); got != RecognitionFirst {
		t.Errorf("strategy = %s, want %s", got, RecognitionFirst)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	src := &fakeSource{pages: []string{textOfLen(400), textOfLen(450), textOfLen(420)}}
	c := New(common.ClassifierConfig{}, nil)

	first := c.Classify(src)
	for i := 0; i < 5; i++ {
		if got := c.Classify(src); got != first {
			t.Fatalf("run %d: result %+v differs from first %+v", i, got, first)
		}
	}
}

func TestClassifyHighConfidenceSkipsLayoutPass(t *testing.T) {
	src := &fakeSource{pages: []string{textOfLen(400), textOfLen(450), textOfLen(420), "", ""}}
	c := New(common.ClassifierConfig{}, nil)

	res := c.Classify(src)

	if res.Confidence != High {
		t.Fatalf("confidence = %s, want %s", res.Confidence, High)
	}
	if res.SampledPageCount != 3 {
		t.Errorf("sampled = %d, want the 3-page quick sample only", res.SampledPageCount)
	}
	if src.inkCalls != 0 {
		t.Errorf("layout pass rendered %d pages despite high-confidence quick pass", src.inkCalls)
	}
}

func TestClassifyLayoutPassDetectsScans(t *testing.T) {
	// Inconclusive char metrics, but every page renders with heavy ink.
	src := &fakeSource{
		pages:     []string{textOfLen(30), textOfLen(30), textOfLen(30), textOfLen(30), textOfLen(30)},
		inkRatios: []float64{0.4, 0.4, 0.4, 0.4, 0.4},
	}
	c := New(common.ClassifierConfig{}, nil)

	res := c.Classify(src)

	if res.DocumentType != ImageNative {
		t.Fatalf("document type = %s, want %s", res.DocumentType, ImageNative)
	}
	if src.inkCalls == 0 {
		t.Error("layout pass never rendered a page")
	}
}

func TestClassifyEmptyDocument(t *testing.T) {
	src := &fakeSource{}
	c := New(common.ClassifierConfig{}, nil)

	res := c.Classify(src)
	if res.DocumentType != Unknown {
		t.Fatalf("document type = %s, want %s", res.DocumentType, Unknown)
	}
}

func TestSelectStrategyFallsBackToHybrid(t *testing.T) {
	cases := []struct {
		name string
		res  Result
		want Strategy
	}{
		{"hybrid medium", Result{DocumentType: Hybrid, Confidence: Medium}, HybridStrategy},
		{"unknown", Result{DocumentType: Unknown, Confidence: High}, HybridStrategy},
		{"image medium", Result{DocumentType: ImageNative, Confidence: Medium}, RecognitionFirst},
		{"text medium", Result{DocumentType: TextNative, Confidence: Medium}, TextFirst},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectStrategy(tc.res); got != tc.want {
				t.Errorf("SelectStrategy(%+v) = %s, want %s", tc.res, got, tc.want)
			}
		})
	}
}
