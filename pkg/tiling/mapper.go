package tiling

import (
	"image"
	"math"
)

// Mapper translates full-resolution rectangles into mask-space
// rectangles. The scale ratio is held per axis, so non-square
// downsampling is tolerated.
type Mapper struct {
	// ScaleX and ScaleY are mask dimensions over full dimensions, on (0, 1]
	ScaleX float64
	ScaleY float64

	// MaskW and MaskH bound the mapped rectangles
	MaskW int
	MaskH int
}

// NewMapper builds a mapper from the full-resolution and mask dimensions.
func NewMapper(fullW, fullH, maskW, maskH int) Mapper {
	return Mapper{
		ScaleX: float64(maskW) / float64(fullW),
		ScaleY: float64(maskH) / float64(fullH),
		MaskW:  maskW,
		MaskH:  maskH,
	}
}

// ToMask maps a full-resolution rectangle into mask space. The top-left
// corner is floored and the bottom-right corner is ceiled, so the mapped
// region never under-covers the true footprint; the result is clamped to
// the mask bounds to absorb rounding at the slide edges.
func (m Mapper) ToMask(r image.Rectangle) image.Rectangle {
	mapped := image.Rect(
		int(math.Floor(float64(r.Min.X)*m.ScaleX)),
		int(math.Floor(float64(r.Min.Y)*m.ScaleY)),
		int(math.Ceil(float64(r.Max.X)*m.ScaleX)),
		int(math.Ceil(float64(r.Max.Y)*m.ScaleY)),
	)
	return mapped.Intersect(image.Rect(0, 0, m.MaskW, m.MaskH))
}

// ToFull maps a mask-space rectangle back to the full-resolution plane,
// expanding outward so the result encloses every full-resolution pixel
// the mask region covers.
func (m Mapper) ToFull(r image.Rectangle) image.Rectangle {
	return image.Rect(
		int(math.Floor(float64(r.Min.X)/m.ScaleX)),
		int(math.Floor(float64(r.Min.Y)/m.ScaleY)),
		int(math.Ceil(float64(r.Max.X)/m.ScaleX)),
		int(math.Ceil(float64(r.Max.Y)/m.ScaleY)),
	)
}
