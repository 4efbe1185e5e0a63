package slide

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writeTestSlide saves a synthetic gradient image and returns its path.
func writeTestSlide(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x % 256),
				G: uint8(y % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}

	path := filepath.Join(t.TempDir(), "slide.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test slide: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode test slide: %v", err)
	}
	return path
}

// TestOpenAndDimensions verifies basic decoding and the level-zero
// dimensions.
func TestOpenAndDimensions(t *testing.T) {
	path := writeTestSlide(t, 600, 400)

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open slide: %v", err)
	}
	defer reader.Close()

	w, h := reader.Dimensions()
	if w != 600 || h != 400 {
		t.Errorf("Expected dimensions 600x400, got %dx%d", w, h)
	}
}

// TestLevelPyramid verifies the synthesized downsample table: factors
// double until the longest side would drop under the minimum level size.
func TestLevelPyramid(t *testing.T) {
	path := writeTestSlide(t, 1024, 768)

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open slide: %v", err)
	}
	defer reader.Close()

	levels := reader.Levels()
	expected := []Level{
		{Index: 0, Width: 1024, Height: 768, Downsample: 1},
		{Index: 1, Width: 512, Height: 384, Downsample: 2},
		{Index: 2, Width: 256, Height: 192, Downsample: 4},
	}
	if len(levels) != len(expected) {
		t.Fatalf("Expected %d levels, got %d: %+v", len(expected), len(levels), levels)
	}
	for i, level := range levels {
		if level != expected[i] {
			t.Errorf("Level %d: expected %+v, got %+v", i, expected[i], level)
		}
	}
}

// TestReadRegionFullResolution verifies pixel-exact reads at level zero.
func TestReadRegionFullResolution(t *testing.T) {
	path := writeTestSlide(t, 300, 300)

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open slide: %v", err)
	}
	defer reader.Close()

	region, err := reader.ReadRegion(0, image.Pt(100, 50), image.Pt(64, 32))
	if err != nil {
		t.Fatalf("ReadRegion failed: %v", err)
	}

	if region.Bounds().Dx() != 64 || region.Bounds().Dy() != 32 {
		t.Fatalf("Expected 64x32 region, got %v", region.Bounds())
	}

	// Spot-check against the gradient pattern.
	got := region.RGBAAt(0, 0)
	if got.R != 100 || got.G != 50 || got.B != 150 {
		t.Errorf("Pixel (0,0): expected RGB(100,50,150), got RGB(%d,%d,%d)",
			got.R, got.G, got.B)
	}
	got = region.RGBAAt(63, 31)
	if got.R != 163 || got.G != 81 || got.B != 244 {
		t.Errorf("Pixel (63,31): expected RGB(163,81,244), got RGB(%d,%d,%d)",
			got.R, got.G, got.B)
	}
}

// TestReadRegionClamped verifies that regions overlapping the boundary
// keep the requested size with the overhang left blank.
func TestReadRegionClamped(t *testing.T) {
	path := writeTestSlide(t, 300, 300)

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open slide: %v", err)
	}
	defer reader.Close()

	region, err := reader.ReadRegion(0, image.Pt(280, 280), image.Pt(50, 50))
	if err != nil {
		t.Fatalf("ReadRegion failed: %v", err)
	}

	if region.Bounds().Dx() != 50 || region.Bounds().Dy() != 50 {
		t.Fatalf("Clamped region should keep requested size, got %v", region.Bounds())
	}

	inside := region.RGBAAt(10, 10) // slide pixel (290, 290)
	if inside.A == 0 {
		t.Error("In-bounds part of the region should be populated")
	}
	outside := region.RGBAAt(30, 30) // past the slide edge
	if outside != (color.RGBA{}) {
		t.Errorf("Out-of-bounds part should be blank, got %+v", outside)
	}
}

// TestReadRegionBadLevel verifies the error for an unavailable level.
func TestReadRegionBadLevel(t *testing.T) {
	path := writeTestSlide(t, 300, 300)

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open slide: %v", err)
	}
	defer reader.Close()

	_, err = reader.ReadRegion(99, image.Point{}, image.Pt(10, 10))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("Expected *DecodeError for a bad level, got %v", err)
	}
}

// TestOpenErrors verifies the decode-error taxonomy for missing and
// corrupt files.
func TestOpenErrors(t *testing.T) {
	var decodeErr *DecodeError

	if _, err := Open(filepath.Join(t.TempDir(), "missing.png")); !errors.As(err, &decodeErr) {
		t.Errorf("Expected *DecodeError for a missing file, got %v", err)
	}

	garbage := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image at all"), 0644); err != nil {
		t.Fatalf("Failed to write garbage file: %v", err)
	}
	if _, err := Open(garbage); !errors.As(err, &decodeErr) {
		t.Errorf("Expected *DecodeError for a corrupt file, got %v", err)
	}
}

// TestReadAfterClose verifies that a closed reader fails cleanly.
func TestReadAfterClose(t *testing.T) {
	path := writeTestSlide(t, 300, 300)

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open slide: %v", err)
	}
	reader.Close()

	if _, err := reader.ReadRegion(0, image.Point{}, image.Pt(10, 10)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
}
