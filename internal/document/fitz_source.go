package document

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/enerdoc/docingest/internal/common"
)

// FitzSource reads PDF pages through go-fitz (MuPDF).
type FitzSource struct {
	doc    *fitz.Document
	path   string
	logger *slog.Logger
}

// OpenPDF opens a PDF file for page access. An unreadable file maps to
// ErrDocumentUnreadable so callers can fall back to a default strategy.
func OpenPDF(path string, logger *slog.Logger) (*FitzSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := fitz.New(path)
	if err != nil {
		logger.Error("document.open.failed", "path", path, "error", err)
		return nil, fmt.Errorf("open %q: %w", path, common.ErrDocumentUnreadable)
	}
	return &FitzSource{doc: doc, path: path, logger: logger}, nil
}

func (s *FitzSource) NumPages() int {
	return s.doc.NumPage()
}

func (s *FitzSource) PageText(i int) (string, error) {
	text, err := s.doc.Text(i)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", i+1, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *FitzSource) PageImage(ctx context.Context, i int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := s.doc.Image(i)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", i+1, err)
	}
	return img, nil
}

// PageInkRatio renders the page and samples a pixel grid. Sampling keeps the
// cost flat regardless of render size.
func (s *FitzSource) PageInkRatio(i int) (float64, error) {
	img, err := s.doc.Image(i)
	if err != nil {
		return 0, fmt.Errorf("render page %d: %w", i+1, err)
	}
	return InkRatio(img), nil
}

func (s *FitzSource) Close() error {
	return s.doc.Close()
}

// InkRatio reports the fraction of sampled pixels darker than a fixed
// luminance cutoff. A blank rendered page scores near zero.
func InkRatio(img image.Image) float64 {
	const cutoff = 0xB000 // of 0xFFFF
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	stepX := b.Dx() / 200
	if stepX < 1 {
		stepX = 1
	}
	stepY := b.Dy() / 200
	if stepY < 1 {
		stepY = 1
	}
	var dark, total int
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			r, g, bl, _ := img.At(x, y).RGBA()
			lum := (299*r + 587*g + 114*bl) / 1000
			if lum < cutoff {
				dark++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dark) / float64(total)
}
