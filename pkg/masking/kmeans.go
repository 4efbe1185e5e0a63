package masking

import (
	"fmt"
	"image"
	"math"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// kmeansMaxSamples bounds the number of pixels fed to the clustering so
// the partition stays tractable on large overviews. Every pixel is still
// classified against the resulting centroids.
const kmeansMaxSamples = 20000

// maskWithKMeans clusters pixel color vectors and marks the cluster with
// the lowest mean intensity as tissue (or the highest, when
// Options.InvertForeground is set for inverted-contrast slides such as
// immunofluorescence).
//
// Centroid initialization is random, so cluster boundaries can vary
// slightly between runs on overviews without a clear color separation.
func maskWithKMeans(overview *image.RGBA, opts Options) (*Mask, error) {
	bounds := overview.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	k := opts.Clusters
	if k < 2 {
		k = 2
	}

	// Subsample on a regular grid to keep the partition cheap.
	step := 1
	if w*h > kmeansMaxSamples {
		step = int(math.Sqrt(float64(w*h)/float64(kmeansMaxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, kmeansMaxSamples)
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			off := overview.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			dataset = append(dataset, clusters.Coordinates{
				float64(overview.Pix[off]) / 255,
				float64(overview.Pix[off+1]) / 255,
				float64(overview.Pix[off+2]) / 255,
			})
		}
	}
	if len(dataset) < k {
		return nil, fmt.Errorf("overview too small for %d clusters (%d samples)", k, len(dataset))
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil {
		return nil, fmt.Errorf("kmeans partition failed: %w", err)
	}
	if len(cc) == 0 {
		return nil, fmt.Errorf("kmeans partition produced no clusters")
	}

	// Pick the foreground cluster by centroid intensity.
	foreground := 0
	bestIntensity := centroidIntensity(cc[0].Center)
	for i := 1; i < len(cc); i++ {
		intensity := centroidIntensity(cc[i].Center)
		darker := intensity < bestIntensity
		if (darker && !opts.InvertForeground) || (!darker && opts.InvertForeground) {
			bestIntensity = intensity
			foreground = i
		}
	}

	mask := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := overview.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			point := clusters.Coordinates{
				float64(overview.Pix[off]) / 255,
				float64(overview.Pix[off+1]) / 255,
				float64(overview.Pix[off+2]) / 255,
			}
			mask.Pix[y*w+x] = cc.Nearest(point) == foreground
		}
	}

	return mask, nil
}

func centroidIntensity(center clusters.Coordinates) float64 {
	sum := 0.0
	for _, v := range center {
		sum += v
	}
	if len(center) == 0 {
		return 0
	}
	return sum / float64(len(center))
}
