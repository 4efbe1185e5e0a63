// Package overview obtains a low-power RGB rendering of a whole slide
// from the decoder, at a resolution cheap enough for whole-slide masking.
package overview

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"wsipatch/pkg/slide"
)

// Load reads a whole-slide overview whose longest side is targetSize
// pixels. It selects the coarsest pyramid level that is still at least as
// large as the target, so the overview is only ever downscaled, never
// upsampled. When every level is smaller than the target, the finest
// level is returned as-is.
func Load(r slide.Reader, targetSize int) (*image.RGBA, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("overview target size must be positive, got %d", targetSize)
	}

	levels := r.Levels()
	if len(levels) == 0 {
		return nil, fmt.Errorf("slide exposes no downsample levels")
	}

	chosen := levels[0]
	for _, level := range levels[1:] {
		if max(level.Width, level.Height) >= targetSize {
			chosen = level
		}
	}

	full, err := r.ReadRegion(chosen.Index, image.Point{}, image.Pt(chosen.Width, chosen.Height))
	if err != nil {
		return nil, fmt.Errorf("failed to read overview level %d: %w", chosen.Index, err)
	}

	longest := max(chosen.Width, chosen.Height)
	if longest <= targetSize {
		return full, nil
	}

	// Downscale so the longest side matches the target exactly,
	// preserving aspect ratio.
	scale := float64(targetSize) / float64(longest)
	outW := max(int(float64(chosen.Width)*scale+0.5), 1)
	outH := max(int(float64(chosen.Height)*scale+0.5), 1)

	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), full, full.Bounds(), xdraw.Src, nil)
	return out, nil
}
