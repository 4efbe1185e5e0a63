package masking

import (
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// otsuBins is the histogram resolution for the global threshold search.
const otsuBins = 256

// luminance converts the overview to a row-major BT.601 luma array on
// [0, 255].
func luminance(img *image.RGBA) []float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	luma := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r := float64(img.Pix[off])
			g := float64(img.Pix[off+1])
			b := float64(img.Pix[off+2])
			luma[y*w+x] = (299*r + 587*g + 114*b) / 1000
		}
	}
	return luma
}

// otsuThreshold computes the two-class threshold that maximizes the
// between-class variance over a 256-bin histogram of values. The returned
// threshold lies in the value range of the input.
func otsuThreshold(values []float64) float64 {
	lo := floats.Min(values)
	hi := floats.Max(values)
	if hi <= lo {
		return lo
	}

	hist := make([]float64, otsuBins)
	scale := float64(otsuBins-1) / (hi - lo)
	for _, v := range values {
		bin := int((v - lo) * scale)
		if bin < 0 {
			bin = 0
		} else if bin >= otsuBins {
			bin = otsuBins - 1
		}
		hist[bin]++
	}

	total := float64(len(values))
	sumAll := 0.0
	for i, count := range hist {
		sumAll += float64(i) * count
	}

	bestBin := 0
	bestVariance := -1.0
	weightBg := 0.0
	sumBg := 0.0
	for i := 0; i < otsuBins-1; i++ {
		weightBg += hist[i]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}

		sumBg += float64(i) * hist[i]
		meanBg := sumBg / weightBg
		meanFg := (sumAll - sumBg) / weightFg

		diff := meanBg - meanFg
		variance := weightBg * weightFg * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			bestBin = i
		}
	}

	// Threshold at the upper edge of the best background bin.
	return lo + (float64(bestBin)+0.5)/scale
}

// thresholdBelow marks pixels with values strictly below the threshold as
// foreground.
func thresholdBelow(values []float64, threshold float64, w, h int) *Mask {
	mask := NewMask(w, h)
	for i, v := range values {
		mask.Pix[i] = v < threshold
	}
	return mask
}

// thresholdAbove marks pixels with values strictly above the threshold as
// foreground.
func thresholdAbove(values []float64, threshold float64, w, h int) *Mask {
	mask := NewMask(w, h)
	for i, v := range values {
		mask.Pix[i] = v > threshold
	}
	return mask
}

// maskWithOtsu thresholds the luminance image at the global Otsu threshold
// and marks darker pixels as tissue. Stained tissue on a bright scanner
// background fits this convention; the method is unsuitable when the
// foreground is lighter than the background.
func maskWithOtsu(overview *image.RGBA, _ Options) (*Mask, error) {
	w, h := overview.Bounds().Dx(), overview.Bounds().Dy()
	luma := luminance(overview)
	return thresholdBelow(luma, otsuThreshold(luma), w, h), nil
}

// maskWithSchreiber separates stained tissue using the product of the
// clipped red-green and blue-green channel differences, which responds to
// the purple-pink hues of H&E staining.
func maskWithSchreiber(overview *image.RGBA, _ Options) (*Mask, error) {
	bounds := overview.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rep := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := overview.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r := float64(overview.Pix[off]) / 255
			g := float64(overview.Pix[off+1]) / 255
			b := float64(overview.Pix[off+2]) / 255
			rep[y*w+x] = math.Max(r-g, 0) * math.Max(b-g, 0)
		}
	}
	return thresholdAbove(rep, otsuThreshold(rep), w, h), nil
}

// maskWithOpticalDensity computes the summed optical density of the RGB
// channels, clips it to its 1st and 99th percentiles to suppress
// outliers, and thresholds with Otsu. Dense tissue absorbs more light and
// has higher optical density than the near-transparent background.
func maskWithOpticalDensity(overview *image.RGBA, _ Options) (*Mask, error) {
	bounds := overview.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	absorbance := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := overview.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			sum := 0.0
			for c := 0; c < 3; c++ {
				v := float64(overview.Pix[off+c]) / 255
				if v < 1.0/255 {
					v = 1.0 / 255
				}
				sum -= math.Log(v)
			}
			absorbance[y*w+x] = sum
		}
	}

	sorted := make([]float64, len(absorbance))
	copy(sorted, absorbance)
	sort.Float64s(sorted)
	lo := stat.Quantile(0.01, stat.Empirical, sorted, nil)
	hi := stat.Quantile(0.99, stat.Empirical, sorted, nil)
	for i, v := range absorbance {
		absorbance[i] = math.Min(math.Max(v, lo), hi)
	}

	return thresholdAbove(absorbance, otsuThreshold(absorbance), w, h), nil
}

// maskWithLuminosity thresholds the L channel of the CIE Lab conversion
// of the overview; perceptual lightness separates stain from background
// more evenly than raw luma on slides with strong color casts.
func maskWithLuminosity(overview *image.RGBA, _ Options) (*Mask, error) {
	bounds := overview.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := overview.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			c := colorful.Color{
				R: float64(overview.Pix[off]) / 255,
				G: float64(overview.Pix[off+1]) / 255,
				B: float64(overview.Pix[off+2]) / 255,
			}
			l, _, _ := c.Lab()
			lum[y*w+x] = l
		}
	}
	return thresholdBelow(lum, otsuThreshold(lum), w, h), nil
}
