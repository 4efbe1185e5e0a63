package masking

import (
	"image"
	"math"
)

// maskWithEntropy computes the local Shannon entropy of the luminance
// image over a square window and thresholds the entropy map with Otsu.
// Textured tissue has high local entropy while flat background, light or
// dark, has low entropy, so the method works for either contrast
// direction.
func maskWithEntropy(overview *image.RGBA, opts Options) (*Mask, error) {
	bounds := overview.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	window := opts.ElementSize
	if window < 3 {
		window = 3
	}
	radius := window / 2

	// Quantize luminance to 8 bits for the window histograms.
	luma := luminance(overview)
	quantized := make([]uint8, len(luma))
	for i, v := range luma {
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		quantized[i] = uint8(v)
	}

	entropyMap := make([]float64, w*h)
	var hist [256]int
	for y := 0; y < h; y++ {
		y0 := max(y-radius, 0)
		y1 := min(y+radius, h-1)

		// Fresh histogram at the start of each row, then slide it
		// column by column.
		for i := range hist {
			hist[i] = 0
		}
		x0 := 0
		x1 := min(radius, w-1)
		count := 0
		for wy := y0; wy <= y1; wy++ {
			for wx := x0; wx <= x1; wx++ {
				hist[quantized[wy*w+wx]]++
				count++
			}
		}
		entropyMap[y*w] = windowEntropy(&hist, count)

		for x := 1; x < w; x++ {
			enter := x + radius
			leave := x - radius - 1
			if enter < w {
				for wy := y0; wy <= y1; wy++ {
					hist[quantized[wy*w+enter]]++
					count++
				}
			}
			if leave >= 0 {
				for wy := y0; wy <= y1; wy++ {
					hist[quantized[wy*w+leave]]--
					count--
				}
			}
			entropyMap[y*w+x] = windowEntropy(&hist, count)
		}
	}

	return thresholdAbove(entropyMap, otsuThreshold(entropyMap), w, h), nil
}

// windowEntropy returns the Shannon entropy, in bits, of a window
// histogram with count samples.
func windowEntropy(hist *[256]int, count int) float64 {
	if count <= 0 {
		return 0
	}
	total := float64(count)
	entropy := 0.0
	for _, n := range hist {
		if n == 0 {
			continue
		}
		p := float64(n) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
