package preprocess

import (
	"errors"
	"image"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

var errEmptyImage = errors.New("preprocess: empty image")

// toGray copies any image into an 8-bit grayscale buffer.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(g.Bounds())
		copy(out.Pix, g.Pix)
		return out
	}
	b := img.Bounds()
	out := image.NewGray(b)
	xdraw.Draw(out, b, img, b.Min, xdraw.Src)
	return out
}

// deskew estimates the dominant skew angle from the second moments of dark
// pixels and rotates only when the angle exceeds the configured limit. Small
// angles are left alone since rotation blurs glyph edges.
func (p *Preprocessor) deskew(img image.Image) (image.Image, error) {
	g := toGray(img)
	b := g.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errEmptyImage
	}

	angle := estimateSkew(g)
	if math.Abs(angle) <= p.cfg.MaxSkewDegrees || math.Abs(angle) > 45 {
		return img, nil
	}
	return rotate(g, -angle), nil
}

// estimateSkew returns the orientation of the dark-pixel covariance in
// degrees. Sampling every other pixel keeps this cheap on large renders.
func estimateSkew(g *image.Gray) float64 {
	b := g.Bounds()
	var n, sumX, sumY float64
	var sumXX, sumYY, sumXY float64

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x += 2 {
			if g.GrayAt(x, y).Y < 128 {
				fx, fy := float64(x), float64(y)
				n++
				sumX += fx
				sumY += fy
				sumXX += fx * fx
				sumYY += fy * fy
				sumXY += fx * fy
			}
		}
	}
	if n < 64 {
		return 0
	}

	meanX, meanY := sumX/n, sumY/n
	covXX := sumXX/n - meanX*meanX
	covYY := sumYY/n - meanY*meanY
	covXY := sumXY/n - meanX*meanY
	if covXX == covYY && covXY == 0 {
		return 0
	}

	theta := 0.5 * math.Atan2(2*covXY, covXX-covYY)
	deg := theta * 180 / math.Pi
	// Text lines dominate the covariance, so the principal axis tracks the
	// baseline direction. Fold into [-45, 45].
	for deg > 45 {
		deg -= 90
	}
	for deg < -45 {
		deg += 90
	}
	return deg
}

// rotate spins the image around its center, filling exposed corners white.
func rotate(g *image.Gray, degrees float64) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for i := range out.Pix {
		out.Pix[i] = 0xFF
	}

	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2

	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	xdraw.BiLinear.Transform(out, m, g, b, xdraw.Src, nil)
	return out
}

// normalizeIllumination flattens uneven lighting by dividing out a heavily
// blurred copy of the page, then rescales to the full 0..255 range.
func normalizeIllumination(img image.Image) (image.Image, error) {
	g := toGray(img)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errEmptyImage
	}

	radius := max(w, h) / 16
	if radius < 4 {
		return img, nil
	}
	background := boxBlur(g, radius)

	out := image.NewGray(b)
	lo, hi := 255, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := int(g.Pix[y*g.Stride+x])
			bg := int(background.Pix[y*background.Stride+x])
			if bg < 1 {
				bg = 1
			}
			v := src * 255 / bg
			if v > 255 {
				v = 255
			}
			out.Pix[y*out.Stride+x] = uint8(v)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo {
		return out, nil
	}
	for i, v := range out.Pix {
		out.Pix[i] = uint8((int(v) - lo) * 255 / (hi - lo))
	}
	return out, nil
}

// boxBlur is a two-pass moving average, cheap enough for the large radius
// the background estimate needs.
func boxBlur(g *image.Gray, radius int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := image.NewGray(b)
	out := image.NewGray(b)

	for y := 0; y < h; y++ {
		sum, count := 0, 0
		for x := -radius; x < w; x++ {
			if x+radius < w {
				sum += int(g.Pix[y*g.Stride+x+radius])
				count++
			}
			if x-radius-1 >= 0 {
				sum -= int(g.Pix[y*g.Stride+x-radius-1])
				count--
			}
			if x >= 0 {
				tmp.Pix[y*tmp.Stride+x] = uint8(sum / count)
			}
		}
	}
	for x := 0; x < w; x++ {
		sum, count := 0, 0
		for y := -radius; y < h; y++ {
			if y+radius < h {
				sum += int(tmp.Pix[(y+radius)*tmp.Stride+x])
				count++
			}
			if y-radius-1 >= 0 {
				sum -= int(tmp.Pix[(y-radius-1)*tmp.Stride+x])
				count--
			}
			if y >= 0 {
				out.Pix[y*out.Stride+x] = uint8(sum / count)
			}
		}
	}
	return out
}

// medianDenoise applies a 3x3 median filter, which drops salt-and-pepper
// speckle without softening strokes the way a mean filter would.
func medianDenoise(img image.Image) (image.Image, error) {
	g := toGray(img)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return nil, errEmptyImage
	}

	out := image.NewGray(b)
	copy(out.Pix, g.Pix)
	window := make([]uint8, 0, 9)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window = append(window, g.Pix[(y+dy)*g.Stride+x+dx])
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.Pix[y*out.Stride+x] = window[4]
		}
	}
	return out, nil
}

// binarize thresholds the page to two levels. The global Otsu threshold is
// the default; adaptive mean thresholding handles pages where shadows
// survive the illumination pass.
func (p *Preprocessor) binarize(img image.Image) (image.Image, error) {
	g := toGray(img)
	b := g.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errEmptyImage
	}
	if p.cfg.AdaptiveBinarization {
		return adaptiveThreshold(g, 15, 2), nil
	}
	return globalThreshold(g, otsuThreshold(g)), nil
}

func globalThreshold(g *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		if v > threshold {
			out.Pix[i] = 0xFF
		}
	}
	return out
}

// otsuThreshold picks the cut that maximizes between-class variance.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}
	total := len(g.Pix)

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	bestVar, best := -1.0, 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return uint8(best)
}

// adaptiveThreshold compares each pixel against the mean of its window
// minus a small constant, using a summed-area table for the means.
func adaptiveThreshold(g *image.Gray, window, c int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	half := window / 2

	integral := make([]int, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			rowSum += int(g.Pix[y*g.Stride+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(x-half, 0), max(y-half, 0)
			x1, y1 := min(x+half+1, w), min(y+half+1, h)
			area := (x1 - x0) * (y1 - y0)
			sum := integral[y1*stride+x1] - integral[y0*stride+x1] -
				integral[y1*stride+x0] + integral[y0*stride+x0]
			if int(g.Pix[y*g.Stride+x])*area > sum-c*area {
				out.Pix[y*out.Stride+x] = 0xFF
			}
		}
	}
	return out
}

// sharpenContrast applies the fixed post-binarization boost: unsharp
// masking at 30% strength followed by a 1.5x contrast stretch around
// mid-gray.
func sharpenContrast(img image.Image) (image.Image, error) {
	g := toGray(img)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return nil, errEmptyImage
	}

	blurred := boxBlur(g, 1)
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*g.Stride + x
			src := float64(g.Pix[i])
			sharp := src + 0.3*(src-float64(blurred.Pix[i]))
			v := (sharp-128)*1.5 + 128
			out.Pix[y*out.Stride+x] = clampByte(v)
		}
	}
	return out, nil
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
