package visual

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/models"
)

func newTestComparator(includeAA bool) *Comparator {
	return NewComparator(&common.RegressionConfig{
		DefaultThreshold:    0.1,
		IncludeAntialiasing: includeAA,
	}, arbor.NewLogger())
}

func solidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.NRGBA, x, y, w, h int, c color.NRGBA) {
	draw.Draw(img, image.Rect(x, y, x+w, y+h), image.NewUniform(c), image.Point{}, draw.Src)
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
)

func TestCompare_IdenticalImages(t *testing.T) {
	comparator := newTestComparator(false)

	img := solidImage(100, 80, white)
	fillRect(img, 10, 10, 30, 20, black)

	result, err := comparator.Compare(img, img, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.PixelsDifferent != 0 {
		t.Errorf("identical images reported %d different pixels", result.PixelsDifferent)
	}
	if result.PercentageDifferent != 0 {
		t.Errorf("identical images reported %.4f%% difference", result.PercentageDifferent)
	}
	if result.Width != 100 || result.Height != 80 {
		t.Errorf("unexpected dimensions %dx%d", result.Width, result.Height)
	}
}

func TestCompare_DetectsChangedRegion(t *testing.T) {
	comparator := newTestComparator(false)

	baseline := solidImage(100, 100, white)
	current := solidImage(100, 100, white)
	fillRect(current, 0, 0, 20, 20, black)

	result, err := comparator.Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.PixelsDifferent == 0 {
		t.Fatal("changed region not detected")
	}
	// 400 of 10000 pixels changed; antialiasing detection may trim the edge
	if result.PercentageDifferent < 3 || result.PercentageDifferent > 5 {
		t.Errorf("expected roughly 4%% difference, got %.2f%%", result.PercentageDifferent)
	}
	if result.DiffImage == nil {
		t.Fatal("diff image missing")
	}
}

func TestCompare_IgnoreRegionMasksChange(t *testing.T) {
	comparator := newTestComparator(false)

	baseline := solidImage(100, 100, white)
	current := solidImage(100, 100, white)
	fillRect(current, 10, 10, 20, 20, black)

	result, err := comparator.Compare(baseline, current, []models.IgnoreRegion{
		{X: 10, Y: 10, Width: 20, Height: 20},
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.PixelsDifferent != 0 {
		t.Errorf("fully masked change reported %d different pixels", result.PixelsDifferent)
	}
}

func TestCompare_FullMaskZeroesAnyDifference(t *testing.T) {
	comparator := newTestComparator(false)

	baseline := solidImage(50, 50, white)
	current := solidImage(50, 50, blue)

	result, err := comparator.Compare(baseline, current, []models.IgnoreRegion{
		{X: 0, Y: 0, Width: 50, Height: 50},
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.PixelsDifferent != 0 {
		t.Errorf("fully masked images reported %d different pixels", result.PixelsDifferent)
	}
}

func TestCompare_DimensionMismatch(t *testing.T) {
	comparator := newTestComparator(false)

	baseline := solidImage(100, 60, white)
	current := solidImage(80, 90, white)

	result, err := comparator.Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Width != 100 || result.Height != 90 {
		t.Fatalf("expected element-wise max canvas 100x90, got %dx%d", result.Width, result.Height)
	}
	// Both images are white, and padding is white: nothing should differ
	if result.PixelsDifferent != 0 {
		t.Errorf("white images with white padding reported %d different pixels", result.PixelsDifferent)
	}
}

func TestCompare_DimensionMismatchCountsMissingArea(t *testing.T) {
	comparator := newTestComparator(false)

	baseline := solidImage(100, 100, black)
	current := solidImage(100, 60, black)

	result, err := comparator.Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Width != 100 || result.Height != 100 {
		t.Fatalf("unexpected canvas %dx%d", result.Width, result.Height)
	}
	// The bottom 40 rows exist only in the baseline: black vs white padding
	if result.PixelsDifferent == 0 {
		t.Fatal("missing area not counted as difference")
	}
	if result.PercentageDifferent < 35 || result.PercentageDifferent > 40 {
		t.Errorf("expected roughly 40%% difference, got %.2f%%", result.PercentageDifferent)
	}
}

func TestCompare_OutOfBoundsIgnoreRegionClamped(t *testing.T) {
	comparator := newTestComparator(false)

	baseline := solidImage(50, 50, white)
	current := solidImage(50, 50, white)
	fillRect(current, 40, 40, 10, 10, black)

	result, err := comparator.Compare(baseline, current, []models.IgnoreRegion{
		{X: 40, Y: 40, Width: 500, Height: 500},
		{X: -10, Y: -10, Width: 5, Height: 5},
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.PixelsDifferent != 0 {
		t.Errorf("clamped ignore region missed pixels: %d different", result.PixelsDifferent)
	}
}

func TestCompare_NilImage(t *testing.T) {
	comparator := newTestComparator(false)

	if _, err := comparator.Compare(nil, solidImage(10, 10, white), nil); err == nil {
		t.Error("expected error for nil baseline")
	}
	if _, err := comparator.Compare(solidImage(10, 10, white), nil, nil); err == nil {
		t.Error("expected error for nil current")
	}
}

func TestCompare_PercentageBounds(t *testing.T) {
	comparator := newTestComparator(true)

	baseline := solidImage(40, 40, white)
	current := solidImage(40, 40, black)

	result, err := comparator.Compare(baseline, current, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.PercentageDifferent != 100 {
		t.Errorf("fully different images should report 100%%, got %.2f%%", result.PercentageDifferent)
	}
	if result.PixelsDifferent != result.TotalPixels {
		t.Errorf("pixel count mismatch: %d of %d", result.PixelsDifferent, result.TotalPixels)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	img := solidImage(20, 20, blue)

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeImage(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 20 || decoded.Bounds().Dy() != 20 {
		t.Errorf("unexpected decoded bounds %v", decoded.Bounds())
	}
}

func TestDecodeImage_Garbage(t *testing.T) {
	if _, err := DecodeImage([]byte("not a png")); err == nil {
		t.Error("expected decode error")
	}
}
