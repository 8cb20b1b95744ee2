package preprocess

import (
	"errors"
	"image"
	"testing"

	"github.com/enerdoc/docingest/internal/common"
)

func TestDegradeToInputReturnsInputOnFailure(t *testing.T) {
	in := image.NewGray(image.Rect(0, 0, 4, 4))
	failing := DegradeToInput(func(img image.Image) (image.Image, error) {
		return nil, errors.New("boom")
	})

	out, err := failing(in)
	if err != nil {
		t.Fatalf("wrapped step returned error: %v", err)
	}
	if out != image.Image(in) {
		t.Error("wrapped step did not return the unmodified input")
	}
}

func TestDegradeToInputPassesThroughSuccess(t *testing.T) {
	in := image.NewGray(image.Rect(0, 0, 4, 4))
	want := image.NewGray(image.Rect(0, 0, 2, 2))
	step := DegradeToInput(func(img image.Image) (image.Image, error) {
		return want, nil
	})

	out, err := step(in)
	if err != nil {
		t.Fatal(err)
	}
	if out != image.Image(want) {
		t.Error("successful step output was replaced")
	}
}

func TestBinarizeGlobalProducesTwoLevels(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				img.Pix[y*img.Stride+x] = 40
			} else {
				img.Pix[y*img.Stride+x] = 200
			}
		}
	}

	p := New(common.PreprocessConfig{}, nil)
	out, err := p.binarize(img)
	if err != nil {
		t.Fatal(err)
	}
	assertTwoLevel(t, out)

	g := out.(*image.Gray)
	if g.GrayAt(0, 0).Y != 0 {
		t.Error("dark half not mapped to foreground (0)")
	}
	if g.GrayAt(31, 0).Y != 255 {
		t.Error("light half not mapped to background (255)")
	}
}

func TestBinarizeAdaptiveProducesTwoLevels(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	// Gradient background with a dark stripe, the case global thresholds
	// handle poorly.
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(100 + 4*x)
			if y == 16 {
				v = 10
			}
			img.Pix[y*img.Stride+x] = v
		}
	}

	p := New(common.PreprocessConfig{AdaptiveBinarization: true}, nil)
	out, err := p.binarize(img)
	if err != nil {
		t.Fatal(err)
	}
	assertTwoLevel(t, out)
}

func assertTwoLevel(t *testing.T, img image.Image) {
	t.Helper()
	g, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("binarize returned %T, want *image.Gray", img)
	}
	for i, v := range g.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d = %d, want 0 or 255", i, v)
		}
	}
}

func TestOtsuThresholdSeparatesBimodal(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		if i%2 == 0 {
			img.Pix[i] = 30
		} else {
			img.Pix[i] = 220
		}
	}
	th := otsuThreshold(img)
	if th < 30 || th >= 220 {
		t.Errorf("otsu threshold = %d, want between the two modes", th)
	}
}

func TestDeskewSmallAngleIsNoOp(t *testing.T) {
	// Horizontal text-like bands: estimated skew is ~0, so the step must
	// return the input untouched.
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for _, row := range []int{10, 20, 30, 40, 50} {
		for y := row; y < row+3; y++ {
			for x := 8; x < 56; x++ {
				img.Pix[y*img.Stride+x] = 0
			}
		}
	}

	p := New(common.PreprocessConfig{}, nil)
	out, err := p.deskew(img)
	if err != nil {
		t.Fatal(err)
	}
	if out != image.Image(img) {
		t.Error("deskew modified an unskewed image")
	}
}

func TestEnhanceChainNeverFails(t *testing.T) {
	p := New(common.PreprocessConfig{}, nil)

	// A degenerate 1x1 image fails several steps; the chain must still
	// return a usable image.
	tiny := image.NewGray(image.Rect(0, 0, 1, 1))
	out := p.Enhance(tiny)
	if out == nil {
		t.Fatal("Enhance returned nil")
	}

	normal := image.NewGray(image.Rect(0, 0, 48, 48))
	for i := range normal.Pix {
		normal.Pix[i] = uint8(i % 256)
	}
	if out := p.Enhance(normal); out == nil {
		t.Fatal("Enhance returned nil for a normal image")
	}
}

func TestMedianDenoiseRemovesSpeckle(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 9, 9))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Pix[4*img.Stride+4] = 0 // lone dark pixel

	out, err := medianDenoise(img)
	if err != nil {
		t.Fatal(err)
	}
	g := out.(*image.Gray)
	if g.GrayAt(4, 4).Y != 255 {
		t.Errorf("speckle survived: center = %d, want 255", g.GrayAt(4, 4).Y)
	}
}
