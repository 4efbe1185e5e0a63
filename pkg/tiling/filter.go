package tiling

import (
	"image"

	"wsipatch/internal/models"
	"wsipatch/pkg/masking"
)

// CoverageFilter decides, tile by tile, whether a region contains enough
// tissue to be worth materializing. It is a pure function of its three
// fields; there is no hidden state.
type CoverageFilter struct {
	// Mask is the tissue mask in overview space
	Mask *masking.Mask

	// Mapper translates tiles into mask space
	Mapper Mapper

	// Threshold is the minimum tissue fraction on [0, 1] a tile must
	// reach to be accepted
	Threshold float64
}

// Coverage returns the fraction of the tile's mask-space footprint that
// is tissue. A tile whose mapped region has zero area (entirely outside
// the mask after rounding) has coverage zero.
func (f CoverageFilter) Coverage(t models.Tile) float64 {
	region := f.Mapper.ToMask(image.Rect(t.X, t.Y, t.X+t.W, t.Y+t.H))
	area := region.Dx() * region.Dy()
	if area <= 0 {
		return 0
	}
	return float64(f.Mask.CountRegion(region)) / float64(area)
}

// Accept reports whether the tile passes the coverage threshold, along
// with its computed coverage. Zero-area mapped regions are rejected
// unconditionally.
func (f CoverageFilter) Accept(t models.Tile) (float64, bool) {
	region := f.Mapper.ToMask(image.Rect(t.X, t.Y, t.X+t.W, t.Y+t.H))
	area := region.Dx() * region.Dy()
	if area <= 0 {
		return 0, false
	}
	coverage := float64(f.Mask.CountRegion(region)) / float64(area)
	return coverage, coverage >= f.Threshold
}
