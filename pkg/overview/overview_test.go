package overview

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"wsipatch/pkg/slide"
)

// openTestSlide decodes a synthetic 1024x768 slide, which exposes levels
// of 1024, 512 and 256 pixels on the long side.
func openTestSlide(t *testing.T) slide.Reader {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 1024, 768))
	for y := 0; y < 768; y++ {
		for x := 0; x < 1024; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 180, G: 90, B: 120, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "slide.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test slide: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("Failed to encode test slide: %v", err)
	}
	f.Close()

	reader, err := slide.Open(path)
	if err != nil {
		t.Fatalf("Failed to open test slide: %v", err)
	}
	t.Cleanup(func() { reader.Close() })
	return reader
}

// TestLoadPicksCoarsestSufficientLevel verifies that the overview comes
// from the coarsest level still larger than the target, then is scaled
// down to the target with the aspect ratio preserved.
func TestLoadPicksCoarsestSufficientLevel(t *testing.T) {
	reader := openTestSlide(t)

	ov, err := Load(reader, 300)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Level 1 (512x384) is the coarsest level with a long side >= 300;
	// scaling its long side to 300 gives 300x225.
	if ov.Bounds().Dx() != 300 || ov.Bounds().Dy() != 225 {
		t.Errorf("Expected 300x225 overview, got %v", ov.Bounds())
	}
}

// TestLoadExactLevelMatchSkipsScaling verifies that a level whose long
// side equals the target is returned without resampling.
func TestLoadExactLevelMatchSkipsScaling(t *testing.T) {
	reader := openTestSlide(t)

	ov, err := Load(reader, 512)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ov.Bounds().Dx() != 512 || ov.Bounds().Dy() != 384 {
		t.Errorf("Expected the 512x384 level as-is, got %v", ov.Bounds())
	}
}

// TestLoadNeverUpsamples verifies that a target larger than every level
// falls back to the finest level unchanged.
func TestLoadNeverUpsamples(t *testing.T) {
	reader := openTestSlide(t)

	ov, err := Load(reader, 2000)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if ov.Bounds().Dx() != 1024 || ov.Bounds().Dy() != 768 {
		t.Errorf("Expected the finest 1024x768 level, got %v", ov.Bounds())
	}
}

// TestLoadPreservesColor verifies that scaling does not shift the pixel
// values of a uniform slide.
func TestLoadPreservesColor(t *testing.T) {
	reader := openTestSlide(t)

	ov, err := Load(reader, 300)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := ov.RGBAAt(150, 112)
	if got.R != 180 || got.G != 90 || got.B != 120 {
		t.Errorf("Expected RGB(180,90,120) after scaling a uniform slide, got RGB(%d,%d,%d)",
			got.R, got.G, got.B)
	}
}

// TestLoadRejectsBadTarget verifies parameter validation.
func TestLoadRejectsBadTarget(t *testing.T) {
	reader := openTestSlide(t)

	if _, err := Load(reader, 0); err == nil {
		t.Error("Expected an error for a zero target size")
	}
	if _, err := Load(reader, -5); err == nil {
		t.Error("Expected an error for a negative target size")
	}
}
