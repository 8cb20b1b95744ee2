package document

import (
	"context"
	"image"
)

// Source gives the pipeline page-level access to an opened document.
// Implementations own the underlying file handle; a Source is used by a
// single job at a time and must not be shared across jobs.
type Source interface {
	// NumPages returns the page count.
	NumPages() int

	// PageText returns the native (embedded) text of page i, 0-based.
	// Image-only pages return "".
	PageText(i int) (string, error)

	// PageImage renders page i as a raster image for recognition.
	PageImage(ctx context.Context, i int) (image.Image, error)

	// PageInkRatio reports the fraction of non-background pixels on a
	// low-resolution render of page i. Used to detect pages that carry
	// raster content but no extractable text.
	PageInkRatio(i int) (float64, error)

	Close() error
}
