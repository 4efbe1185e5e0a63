package tiling

import (
	"image"
	"testing"

	"wsipatch/internal/models"
	"wsipatch/pkg/masking"
)

// fillMask sets every pixel of the rectangle to v.
func fillMask(m *masking.Mask, r image.Rectangle, v bool) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, v)
		}
	}
}

// countAccepted enumerates the grid through the filter.
func countAccepted(g Grid, f CoverageFilter) (considered, accepted int) {
	for tile := range g.Tiles() {
		considered++
		if _, ok := f.Accept(tile); ok {
			accepted++
		}
	}
	return considered, accepted
}

// TestFilterQuadrantScenario runs the reference scenario: a synthetic
// 10000x10000 slide with a 100x100 mask, non-overlapping 1000-pixel
// tiles and a 0.5 threshold. With only the first tile's footprint masked
// out, exactly that tile is rejected and the remaining 99 are accepted.
func TestFilterQuadrantScenario(t *testing.T) {
	grid := Grid{
		Width: 10000, Height: 10000,
		PatchW: 1000, PatchH: 1000,
		StrideX: 1000, StrideY: 1000,
	}
	mapper := NewMapper(10000, 10000, 100, 100)

	t.Run("FirstTileFootprintMasked", func(t *testing.T) {
		mask := masking.NewMask(100, 100)
		fillMask(mask, mask.Bounds(), true)
		fillMask(mask, image.Rect(0, 0, 10, 10), false)

		filter := CoverageFilter{Mask: mask, Mapper: mapper, Threshold: 0.5}

		considered, accepted := countAccepted(grid, filter)
		if considered != 100 {
			t.Fatalf("Expected 100 candidate tiles, got %d", considered)
		}
		if accepted != 99 {
			t.Errorf("Expected 99 accepted tiles, got %d", accepted)
		}

		origin := models.Tile{X: 0, Y: 0, W: 1000, H: 1000}
		if coverage, ok := filter.Accept(origin); ok {
			t.Errorf("Tile at origin should be rejected, coverage %.3f", coverage)
		}
	})

	t.Run("TopLeftQuadrantMasked", func(t *testing.T) {
		mask := masking.NewMask(100, 100)
		fillMask(mask, mask.Bounds(), true)
		fillMask(mask, image.Rect(0, 0, 50, 50), false)

		filter := CoverageFilter{Mask: mask, Mapper: mapper, Threshold: 0.5}

		// The 5x5 block of tiles inside the empty quadrant has zero
		// coverage; the other 75 tiles are fully covered.
		_, accepted := countAccepted(grid, filter)
		if accepted != 75 {
			t.Errorf("Expected 75 accepted tiles, got %d", accepted)
		}
	})
}

// TestFilterZeroThresholdAcceptsAll verifies that a zero threshold
// accepts every generated tile regardless of mask content.
func TestFilterZeroThresholdAcceptsAll(t *testing.T) {
	grid := Grid{
		Width: 1000, Height: 1000,
		PatchW: 100, PatchH: 100,
		StrideX: 100, StrideY: 100,
	}
	mask := masking.NewMask(100, 100) // all background
	filter := CoverageFilter{
		Mask:      mask,
		Mapper:    NewMapper(1000, 1000, 100, 100),
		Threshold: 0,
	}

	considered, accepted := countAccepted(grid, filter)
	if accepted != considered {
		t.Errorf("Threshold 0 should accept all %d tiles, accepted %d", considered, accepted)
	}
}

// TestFilterMonotonicity verifies that raising the threshold never
// increases the accepted-tile count for a fixed mask and tile set.
func TestFilterMonotonicity(t *testing.T) {
	grid := Grid{
		Width: 2000, Height: 2000,
		PatchW: 200, PatchH: 200,
		StrideX: 200, StrideY: 200,
	}
	mask := masking.NewMask(200, 200)
	// Diagonal gradient of tissue: tile (i,j) gets roughly (i+j)/20 coverage.
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			mask.Set(x, y, (x+y)%20 < (x/20+y/20))
		}
	}
	mapper := NewMapper(2000, 2000, 200, 200)

	previous := -1
	for _, threshold := range []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1.0} {
		filter := CoverageFilter{Mask: mask, Mapper: mapper, Threshold: threshold}
		_, accepted := countAccepted(grid, filter)
		if previous >= 0 && accepted > previous {
			t.Errorf("Threshold %.2f accepted %d tiles, more than the %d at the lower threshold",
				threshold, accepted, previous)
		}
		previous = accepted
	}
}

// TestFilterZeroAreaRejected verifies that a tile mapping to a zero-area
// mask region is rejected unconditionally, even at threshold zero.
func TestFilterZeroAreaRejected(t *testing.T) {
	mask := masking.NewMask(100, 100)
	fillMask(mask, mask.Bounds(), true)
	filter := CoverageFilter{
		Mask:      mask,
		Mapper:    NewMapper(1000, 1000, 100, 100),
		Threshold: 0,
	}

	outside := models.Tile{X: 5000, Y: 5000, W: 100, H: 100}
	if coverage, ok := filter.Accept(outside); ok {
		t.Errorf("Out-of-bounds tile should be rejected, coverage %.3f", coverage)
	}
	if c := filter.Coverage(outside); c != 0 {
		t.Errorf("Out-of-bounds tile coverage should be 0, got %.3f", c)
	}
}

// TestFilterCoverageValue verifies the computed fraction on a
// half-covered tile.
func TestFilterCoverageValue(t *testing.T) {
	mask := masking.NewMask(100, 100)
	fillMask(mask, image.Rect(0, 0, 100, 50), true) // top half tissue

	filter := CoverageFilter{
		Mask:      mask,
		Mapper:    NewMapper(1000, 1000, 100, 100),
		Threshold: 0.5,
	}

	whole := models.Tile{X: 0, Y: 0, W: 1000, H: 1000}
	coverage := filter.Coverage(whole)
	if coverage < 0.49 || coverage > 0.51 {
		t.Errorf("Expected coverage ~0.5 for half-covered tile, got %.3f", coverage)
	}
	if _, ok := filter.Accept(whole); !ok {
		t.Error("Coverage equal to the threshold should be accepted")
	}
}
