// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package visual

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/models"
)

// pixelThreshold is the per-pixel YIQ color distance cutoff, as a fraction
// of the maximum possible distance. Matches the pixelmatch default.
const pixelThreshold = 0.1

// maxYIQDelta is the largest possible squared YIQ distance between two pixels
const maxYIQDelta = 35215.0

// DiffResult is the raw outcome of one pixel comparison. Significance
// against a configured threshold is decided by the caller.
type DiffResult struct {
	PixelsDifferent     int
	TotalPixels         int
	PercentageDifferent float64 // 0-100
	Width               int
	Height              int
	DiffImage           *image.NRGBA
}

// Comparator diffs two screenshots pixel by pixel. Images of different
// dimensions are compared on a shared canvas sized to the element-wise
// maximum, with the uncovered remainder padded white so missing area counts
// as difference.
type Comparator struct {
	includeAA bool
	logger    arbor.ILogger
}

// NewComparator creates a pixel comparator
func NewComparator(config *common.RegressionConfig, logger arbor.ILogger) *Comparator {
	return &Comparator{
		includeAA: config.IncludeAntialiasing,
		logger:    logger,
	}
}

// Compare diffs baseline against current. Ignore regions are masked to a
// uniform gray in both images before comparison so masked pixels can never
// differ. Never fails on dimension mismatch.
func (c *Comparator) Compare(baseline, current image.Image, regions []models.IgnoreRegion) (*DiffResult, error) {
	if baseline == nil || current == nil {
		return nil, fmt.Errorf("both images are required for comparison")
	}

	width := max(baseline.Bounds().Dx(), current.Bounds().Dx())
	height := max(baseline.Bounds().Dy(), current.Bounds().Dy())
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("cannot compare empty images")
	}

	base := normalize(baseline, width, height)
	curr := normalize(current, width, height)
	maskRegions(base, regions)
	maskRegions(curr, regions)

	diff := imaging.New(width, height, color.NRGBA{255, 255, 255, 255})
	maxDelta := maxYIQDelta * pixelThreshold * pixelThreshold
	different := 0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pos := (y*width + x) * 4
			delta := colorDelta(base.Pix, curr.Pix, pos, pos, false)

			if abs(delta) > maxDelta {
				if !c.includeAA && (antialiased(base.Pix, x, y, width, height, curr.Pix) ||
					antialiased(curr.Pix, x, y, width, height, base.Pix)) {
					// Antialiasing artifact, rendered but not counted
					setPixel(diff, pos, color.NRGBA{255, 235, 59, 255})
					continue
				}
				setPixel(diff, pos, color.NRGBA{255, 0, 0, 255})
				different++
			} else {
				drawGrayPixel(base.Pix, pos, diff)
			}
		}
	}

	total := width * height
	result := &DiffResult{
		PixelsDifferent:     different,
		TotalPixels:         total,
		PercentageDifferent: float64(different) / float64(total) * 100,
		Width:               width,
		Height:              height,
		DiffImage:           diff,
	}

	c.logger.Debug().
		Int("width", width).
		Int("height", height).
		Int("pixels_different", different).
		Float64("percentage", result.PercentageDifferent).
		Msg("Compared screenshot pair")

	return result, nil
}

// DecodeImage decodes screenshot bytes in any registered format
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

// EncodePNG encodes the diff image for storage
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode diff image: %w", err)
	}
	return buf.Bytes(), nil
}

// normalize pastes the image onto a white canvas of the target size
func normalize(img image.Image, width, height int) *image.NRGBA {
	canvas := imaging.New(width, height, color.NRGBA{255, 255, 255, 255})
	return imaging.Paste(canvas, img, image.Pt(0, 0))
}

// maskRegions paints each ignore region mid-gray, clamped to the image bounds
func maskRegions(img *image.NRGBA, regions []models.IgnoreRegion) {
	gray := image.NewUniform(color.NRGBA{128, 128, 128, 255})
	for _, region := range regions {
		rect := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
		rect = rect.Intersect(img.Bounds())
		if rect.Empty() {
			continue
		}
		draw.Draw(img, rect, gray, image.Point{}, draw.Src)
	}
}

func setPixel(img *image.NRGBA, pos int, c color.NRGBA) {
	img.Pix[pos] = c.R
	img.Pix[pos+1] = c.G
	img.Pix[pos+2] = c.B
	img.Pix[pos+3] = c.A
}

// drawGrayPixel renders an unchanged pixel as faded grayscale baseline
func drawGrayPixel(pix []uint8, pos int, diff *image.NRGBA) {
	r := float64(pix[pos])
	g := float64(pix[pos+1])
	b := float64(pix[pos+2])
	a := float64(pix[pos+3])
	val := blend(rgb2y(r, g, b), 0.1*a/255)
	v := uint8(val)
	setPixel(diff, pos, color.NRGBA{v, v, v, 255})
}

// colorDelta returns the squared YIQ color distance between two pixels,
// negative when the first pixel is lighter. With yOnly it returns the
// brightness delta alone, used by antialiasing detection.
func colorDelta(img1, img2 []uint8, k, m int, yOnly bool) float64 {
	r1, g1, b1, a1 := float64(img1[k]), float64(img1[k+1]), float64(img1[k+2]), float64(img1[k+3])
	r2, g2, b2, a2 := float64(img2[m]), float64(img2[m+1]), float64(img2[m+2]), float64(img2[m+3])

	if r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2 {
		return 0
	}

	if a1 < 255 {
		a1 /= 255
		r1 = blend(r1, a1)
		g1 = blend(g1, a1)
		b1 = blend(b1, a1)
	}
	if a2 < 255 {
		a2 /= 255
		r2 = blend(r2, a2)
		g2 = blend(g2, a2)
		b2 = blend(b2, a2)
	}

	y1 := rgb2y(r1, g1, b1)
	y2 := rgb2y(r2, g2, b2)
	y := y1 - y2
	if yOnly {
		return y
	}

	i := rgb2i(r1, g1, b1) - rgb2i(r2, g2, b2)
	q := rgb2q(r1, g1, b1) - rgb2q(r2, g2, b2)
	delta := 0.5053*y*y + 0.299*i*i + 0.1957*q*q

	if y1 > y2 {
		return -delta
	}
	return delta
}

// antialiased reports whether the pixel at (x1,y1) looks like an
// antialiasing artifact: one darkest and one brightest neighbor, each with
// many equal siblings in both images.
func antialiased(img []uint8, x1, y1, width, height int, other []uint8) bool {
	x0, y0 := max(x1-1, 0), max(y1-1, 0)
	x2, y2 := min(x1+1, width-1), min(y1+1, height-1)
	pos := (y1*width + x1) * 4

	zeroes := 0
	if x1 == x0 || x1 == x2 || y1 == y0 || y1 == y2 {
		zeroes = 1
	}

	var minDelta, maxDelta float64
	var minX, minY, maxX, maxY int

	for x := x0; x <= x2; x++ {
		for y := y0; y <= y2; y++ {
			if x == x1 && y == y1 {
				continue
			}

			delta := colorDelta(img, img, pos, (y*width+x)*4, true)
			switch {
			case delta == 0:
				zeroes++
				if zeroes > 2 {
					return false
				}
			case delta < minDelta:
				minDelta = delta
				minX, minY = x, y
			case delta > maxDelta:
				maxDelta = delta
				maxX, maxY = x, y
			}
		}
	}

	if minDelta == 0 || maxDelta == 0 {
		return false
	}

	return (hasManySiblings(img, minX, minY, width, height) && hasManySiblings(other, minX, minY, width, height)) ||
		(hasManySiblings(img, maxX, maxY, width, height) && hasManySiblings(other, maxX, maxY, width, height))
}

// hasManySiblings reports whether more than two neighbors share the pixel's
// exact color
func hasManySiblings(img []uint8, x1, y1, width, height int) bool {
	x0, y0 := max(x1-1, 0), max(y1-1, 0)
	x2, y2 := min(x1+1, width-1), min(y1+1, height-1)
	pos := (y1*width + x1) * 4

	zeroes := 0
	if x1 == x0 || x1 == x2 || y1 == y0 || y1 == y2 {
		zeroes = 1
	}

	for x := x0; x <= x2; x++ {
		for y := y0; y <= y2; y++ {
			if x == x1 && y == y1 {
				continue
			}
			pos2 := (y*width + x) * 4
			if img[pos] == img[pos2] && img[pos+1] == img[pos2+1] &&
				img[pos+2] == img[pos2+2] && img[pos+3] == img[pos2+3] {
				zeroes++
			}
			if zeroes > 2 {
				return true
			}
		}
	}
	return false
}

func blend(c, a float64) float64 {
	return 255 + (c-255)*a
}

func rgb2y(r, g, b float64) float64 {
	return r*0.29889531 + g*0.58662247 + b*0.11448223
}

func rgb2i(r, g, b float64) float64 {
	return r*0.59597799 - g*0.27417610 - b*0.32180189
}

func rgb2q(r, g, b float64) float64 {
	return r*0.21147017 - g*0.52261711 + b*0.31114694
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
