package document

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"

	"github.com/enerdoc/docingest/internal/common"
)

// ImageSource adapts a standalone raster file (jpg, png, tiff) to the
// Source interface as a one-page document with no native text layer.
type ImageSource struct {
	path string
	img  image.Image
}

// OpenImage decodes the file eagerly so unreadable input fails at open time
// like an unreadable PDF does.
func OpenImage(path string) (*ImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewAppError("DOCUMENT_UNREADABLE", "cannot open image file", common.ErrDocumentUnreadable)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, common.NewAppError("DOCUMENT_UNREADABLE", "cannot decode image file", common.ErrDocumentUnreadable)
	}
	return &ImageSource{path: path, img: img}, nil
}

func (s *ImageSource) NumPages() int { return 1 }

func (s *ImageSource) PageText(i int) (string, error) {
	if i != 0 {
		return "", common.NewAppError("INVALID_INPUT", "page out of range", common.ErrInvalidInput)
	}
	return "", nil
}

func (s *ImageSource) PageImage(ctx context.Context, i int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.ClassifyContext(err)
	}
	if i != 0 {
		return nil, common.NewAppError("INVALID_INPUT", "page out of range", common.ErrInvalidInput)
	}
	return s.img, nil
}

func (s *ImageSource) PageInkRatio(i int) (float64, error) {
	if i != 0 {
		return 0, common.NewAppError("INVALID_INPUT", "page out of range", common.ErrInvalidInput)
	}
	return InkRatio(s.img), nil
}

func (s *ImageSource) Close() error { return nil }
