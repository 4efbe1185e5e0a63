package tiling

import (
	"image"
	"testing"
)

// TestMapperRoundTripEncloses verifies that mapping a full-resolution
// rectangle to mask space and back never under-covers the original, for
// a range of scale ratios including non-square ones.
func TestMapperRoundTripEncloses(t *testing.T) {
	cases := []struct {
		name         string
		fullW, fullH int
		maskW, maskH int
	}{
		{"exact hundredth", 10000, 10000, 100, 100},
		{"non-square downsample", 10000, 8000, 137, 93},
		{"near unity", 1024, 768, 1024, 768},
		{"awkward ratio", 9973, 7919, 311, 173},
	}

	rects := []image.Rectangle{
		image.Rect(0, 0, 1000, 1000),
		image.Rect(999, 1, 2001, 997),
		image.Rect(4500, 4500, 5500, 5500),
		image.Rect(0, 7000, 1000, 7919),
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMapper(tc.fullW, tc.fullH, tc.maskW, tc.maskH)
			for _, r := range rects {
				r = r.Intersect(image.Rect(0, 0, tc.fullW, tc.fullH))
				if r.Empty() {
					continue
				}
				mapped := m.ToMask(r)
				back := m.ToFull(mapped)
				if !r.In(back) {
					t.Errorf("Rect %v maps to %v which scales back to %v, under-covering the original",
						r, mapped, back)
				}
			}
		})
	}
}

// TestMapperClampsToMaskBounds verifies that rounding at the slide edge
// never produces a mask rectangle outside the mask.
func TestMapperClampsToMaskBounds(t *testing.T) {
	m := NewMapper(10000, 10000, 99, 99)

	// The last tile row rounds up past the mask boundary before clamping.
	mapped := m.ToMask(image.Rect(9000, 9000, 10000, 10000))
	if !mapped.In(image.Rect(0, 0, 99, 99)) {
		t.Errorf("Mapped rect %v exceeds mask bounds 99x99", mapped)
	}
	if mapped.Empty() {
		t.Error("Mapped boundary rect should not be empty")
	}
}

// TestMapperZeroAreaOutsideMask verifies that a rectangle entirely
// outside the slide maps to an empty mask region.
func TestMapperZeroAreaOutsideMask(t *testing.T) {
	m := NewMapper(1000, 1000, 100, 100)
	mapped := m.ToMask(image.Rect(2000, 2000, 2100, 2100))
	if !mapped.Empty() {
		t.Errorf("Expected empty mapped region, got %v", mapped)
	}
}

// TestMapperNeverUnderCoversSinglePixel verifies that even a 1x1
// full-resolution rectangle maps to at least one mask pixel when it lies
// inside the slide.
func TestMapperNeverUnderCoversSinglePixel(t *testing.T) {
	m := NewMapper(10000, 10000, 100, 100)
	mapped := m.ToMask(image.Rect(5000, 5000, 5001, 5001))
	if mapped.Dx() < 1 || mapped.Dy() < 1 {
		t.Errorf("1x1 rect mapped to zero-area region %v", mapped)
	}
}
