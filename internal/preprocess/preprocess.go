// Package preprocess normalizes raster page images before recognition.
// The chain is best-effort: every step is wrapped so a failure degrades to
// "return the input unchanged" instead of aborting the run.
package preprocess

import (
	"image"
	"log/slog"

	"github.com/enerdoc/docingest/internal/common"
)

// Step transforms an image. Steps are pure: they never modify their input.
type Step func(image.Image) (image.Image, error)

// Preprocessor runs the enhancement chain. Safe for concurrent use; it
// carries no mutable state.
type Preprocessor struct {
	cfg    common.PreprocessConfig
	logger *slog.Logger
	steps  []namedStep
}

type namedStep struct {
	name string
	step Step
}

func New(cfg common.PreprocessConfig, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxSkewDegrees == 0 {
		cfg.MaxSkewDegrees = 5.0
	}
	p := &Preprocessor{cfg: cfg, logger: logger}
	p.steps = []namedStep{
		{"deskew", p.deskew},
		{"normalize_illumination", normalizeIllumination},
		{"denoise", medianDenoise},
		{"binarize", p.binarize},
		{"sharpen", sharpenContrast},
	}
	return p
}

// Enhance runs the full chain: deskew, illumination normalization, median
// denoise, binarization, then a fixed sharpness/contrast boost (+30%
// sharpness, +50% contrast). Each step that fails leaves the image as the
// previous step produced it.
func (p *Preprocessor) Enhance(img image.Image) image.Image {
	out := img
	for _, s := range p.steps {
		next, err := s.step(out)
		if err != nil {
			p.logger.Debug("preprocess.step.skipped", "step", s.name, "error", err)
			continue
		}
		out = next
	}
	return out
}

// Steps returns the chain in execution order, each wrapped with the
// degrade-to-input behavior, for callers that want to run a subset.
func (p *Preprocessor) Steps() []Step {
	out := make([]Step, 0, len(p.steps))
	for _, s := range p.steps {
		out = append(out, DegradeToInput(s.step))
	}
	return out
}

// DegradeToInput wraps a step so that a failure yields the unmodified input
// with a nil error. This is the only fallback the chain allows.
func DegradeToInput(step Step) Step {
	return func(img image.Image) (image.Image, error) {
		out, err := step(img)
		if err != nil {
			return img, nil
		}
		return out, nil
	}
}
