// Package recognize extracts text from raster page images.
//
// The default implementation wraps the Tesseract engine via gosseract and
// requires Tesseract to be installed on the system (apt-get install
// tesseract-ocr, or brew install tesseract on macOS).
package recognize

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/enerdoc/docingest/internal/common"
)

// Recognizer turns a page image into text. Implementations must be safe for
// concurrent use.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, langHints []string) (string, error)
	Close() error
}

// TesseractRecognizer serializes access to a single gosseract client. The
// underlying engine is not reentrant, so callers queue on the mutex.
type TesseractRecognizer struct {
	mu       sync.Mutex
	client   *gosseract.Client
	defaults []string
	logger   *slog.Logger
	closed   bool
}

// NewTesseract probes the engine once so a missing Tesseract install is
// reported at startup instead of on the first page.
func NewTesseract(cfg common.RecognizeConfig, logger *slog.Logger) (*TesseractRecognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := gosseract.NewClient()
	langs := strings.Split(cfg.Languages, "+")
	if cfg.Languages == "" {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, common.NewAppError("ENGINE_UNAVAILABLE", "engine rejected language config", common.ErrEngineUnavailable)
	}
	return &TesseractRecognizer{
		client:   client,
		defaults: langs,
		logger:   logger,
	}, nil
}

func (r *TesseractRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}

// Recognize runs the engine on one page image. Language hints override the
// configured defaults for this call only.
func (r *TesseractRecognizer) Recognize(ctx context.Context, img image.Image, langHints []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", common.ClassifyContext(err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", common.NewAppError("RECOGNITION_FAILED", "failed to encode page image", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", common.NewAppError("ENGINE_UNAVAILABLE", "recognizer is closed", common.ErrEngineUnavailable)
	}

	if len(langHints) > 0 {
		if err := r.client.SetLanguage(langHints...); err != nil {
			return "", common.NewAppError("ENGINE_UNAVAILABLE", "engine rejected language hints", common.ErrEngineUnavailable)
		}
		defer r.client.SetLanguage(r.defaults...)
	}

	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", common.NewAppError("RECOGNITION_FAILED", "engine rejected page image", common.ErrRecognitionFailed)
	}
	text, err := r.client.Text()
	if err != nil {
		r.logger.Warn("recognize.page.failed", "error", err)
		return "", common.NewAppError("RECOGNITION_FAILED", "text recognition failed", common.ErrRecognitionFailed)
	}
	return strings.TrimSpace(text), nil
}
