// Package extract drives the patch-extraction pipeline for whole-slide
// images: load an overview, build a tissue mask, enumerate candidate
// tiles, filter them by tissue coverage and write the accepted patches
// plus a manifest to disk.
package extract

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"wsipatch/internal/models"
	"wsipatch/pkg/masking"
	"wsipatch/pkg/overview"
	"wsipatch/pkg/slide"
	"wsipatch/pkg/tiling"
)

// Params holds the extraction configuration for one slide. The value is
// treated as immutable once handed to NewExtractor.
type Params struct {
	// SlidePath is the whole-slide image to extract from
	SlidePath string

	// OutputDir is the parent directory; the slide's outputs go into a
	// subdirectory named after the slide file
	OutputDir string

	// Method is the masking-strategy name; must be registered
	Method string

	// PatchWidth and PatchHeight are the nominal tile dimensions in
	// full-resolution pixels
	PatchWidth  int
	PatchHeight int

	// StrideX and StrideY are the tile lattice steps. Stride equal to
	// the patch size yields non-overlapping tiles.
	StrideX int
	StrideY int

	// CoverageThreshold is the minimum tissue fraction a tile must reach
	CoverageThreshold float64

	// OverviewTargetSize is the longest side, in pixels, of the overview
	// used for masking
	OverviewTargetSize int

	// EdgePolicy selects clipping or dropping of boundary tiles
	EdgePolicy tiling.EdgePolicy

	// MinEdgeFraction is the smallest clipped-tile fraction kept under
	// the drop policy
	MinEdgeFraction float64

	// Masking carries the strategy tunables (element size, minimum
	// object size, cluster count, foreground inversion)
	Masking masking.Options

	// Workers is the number of parallel patch read+write workers; values
	// below one mean one worker per CPU
	Workers int

	// SaveOverviews writes the overview, tissue mask and masked overview
	// as PNGs next to the patches
	SaveOverviews bool

	// NoPatches stops after the overview and mask images; no tiles are
	// enumerated
	NoPatches bool

	// ZipPatches archives the patches directory into a zip file after a
	// successful run and removes the directory
	ZipPatches bool
}

// Extractor runs the pipeline for a single slide. The stages are:
//  1. Validate the masking method (before any slide work)
//  2. Load the low-power overview at the configured target size
//  3. Build the tissue mask and apply morphological cleanup
//  4. Enumerate candidate tiles lazily over the full-resolution plane
//  5. Filter tiles by tissue coverage against the mask
//  6. Read and write accepted patches with a pool of workers
//  7. Write the manifest in tile enumeration order
//
// A failure in steps 2 or 3 aborts the slide; a failed read or write of a
// single tile in step 6 is logged, counted and skipped.
type Extractor struct {
	params *Params

	stats   models.Stats
	records []models.PatchRecord
}

// NewExtractor creates an extractor for one slide run.
func NewExtractor(params *Params) *Extractor {
	return &Extractor{params: params}
}

// Stats returns the counters of the last Process call.
func (e *Extractor) Stats() models.Stats {
	return e.stats
}

// Records returns the manifest records of the last Process call, in tile
// enumeration order.
func (e *Extractor) Records() []models.PatchRecord {
	return e.records
}

// Process opens the slide and runs the full pipeline. The masking method
// is validated before the slide is touched, so a configuration error
// surfaces before any decoding work starts.
func (e *Extractor) Process() error {
	if _, err := masking.Lookup(e.params.Method); err != nil {
		return err
	}

	reader, err := slide.Open(e.params.SlidePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	return e.run(reader)
}

// run executes the pipeline against an open reader. Split from Process so
// the pipeline can be exercised against synthetic slides in tests.
func (e *Extractor) run(reader slide.Reader) error {
	e.stats = models.Stats{}
	e.records = nil

	slideDir := filepath.Join(e.params.OutputDir, filepath.Base(e.params.SlidePath))
	if err := os.MkdirAll(slideDir, 0755); err != nil {
		return &WriteError{Path: slideDir, Err: err}
	}

	fmt.Printf("Step 1: Loading overview (target %d px)...\n", e.params.OverviewTargetSize)
	ov, err := overview.Load(reader, e.params.OverviewTargetSize)
	if err != nil {
		return fmt.Errorf("failed to load overview: %w", err)
	}

	fmt.Printf("Step 2: Building tissue mask with %q...\n", e.params.Method)
	mask, err := masking.Produce(e.params.Method, ov, e.params.Masking)
	if err != nil {
		return fmt.Errorf("failed to build tissue mask: %w", err)
	}

	if e.params.SaveOverviews {
		if err := e.saveOverviewImages(slideDir, ov, mask); err != nil {
			return err
		}
	}

	if e.params.NoPatches {
		fmt.Println("Skipping patch extraction (overview and mask only)")
		return nil
	}

	fullW, fullH := reader.Dimensions()
	grid := tiling.Grid{
		Width:           fullW,
		Height:          fullH,
		PatchW:          e.params.PatchWidth,
		PatchH:          e.params.PatchHeight,
		StrideX:         e.params.StrideX,
		StrideY:         e.params.StrideY,
		Edge:            e.params.EdgePolicy,
		MinEdgeFraction: e.params.MinEdgeFraction,
	}
	filter := tiling.CoverageFilter{
		Mask:      mask,
		Mapper:    tiling.NewMapper(fullW, fullH, mask.Width, mask.Height),
		Threshold: e.params.CoverageThreshold,
	}

	patchesDir := filepath.Join(slideDir, "patches")
	if err := os.MkdirAll(patchesDir, 0755); err != nil {
		return &WriteError{Path: patchesDir, Err: err}
	}

	fmt.Println("Step 3: Extracting patches...")
	if err := e.extractAccepted(reader, slideDir, patchesDir, grid, filter); err != nil {
		return err
	}

	manifestPath := filepath.Join(slideDir, "manifest.csv")
	if err := writeManifest(manifestPath, e.records); err != nil {
		return err
	}

	if e.params.ZipPatches {
		fmt.Println("Step 4: Archiving patches...")
		if err := zipAndRemove(patchesDir); err != nil {
			return err
		}
	}

	fmt.Printf("Considered %d tiles, accepted %d, wrote %d, failed %d\n",
		e.stats.Considered, e.stats.Accepted, e.stats.Written, e.stats.Failed)
	return nil
}

// patchResult carries one worker outcome back to the collector.
type patchResult struct {
	record models.PatchRecord
	err    error
}

// extractAccepted streams tiles through the coverage filter and fans the
// accepted ones out to a bounded worker pool. Each worker independently
// reads the full-resolution region and writes the patch; the collector is
// the only writer of the stats and record slice. Records are sorted back
// into tile enumeration order afterwards, so the manifest is
// deterministic regardless of worker scheduling.
func (e *Extractor) extractAccepted(
	reader slide.Reader,
	slideDir, patchesDir string,
	grid tiling.Grid,
	filter tiling.CoverageFilter,
) error {
	workers := e.params.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	type job struct {
		tile     models.Tile
		coverage float64
	}
	jobs := make(chan job, workers)
	results := make(chan patchResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				record, err := e.writePatch(reader, slideDir, patchesDir, j.tile, j.coverage)
				results <- patchResult{record: record, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// The producer enumerates lazily; the full tile set is never held in
	// memory. Counter writes here are published to the collector by the
	// close of the results channel.
	go func() {
		defer close(jobs)
		for tile := range grid.Tiles() {
			e.stats.Considered++
			coverage, ok := filter.Accept(tile)
			if !ok {
				continue
			}
			e.stats.Accepted++
			jobs <- job{tile: tile, coverage: coverage}
		}
	}()

	for res := range results {
		if res.err != nil {
			log.Printf("warning: %v", res.err)
			e.stats.Failed++
			continue
		}
		e.stats.Written++
		e.records = append(e.records, res.record)
	}

	sort.Slice(e.records, func(i, j int) bool {
		return e.records[i].Tile.Index < e.records[j].Tile.Index
	})
	return nil
}

// writePatch reads one accepted tile at full resolution and persists it
// as a PNG. The filename is derived from the tile origin and extent, so
// re-running with identical inputs reproduces identical names. The
// recorded output path is relative to the slide's output directory.
func (e *Extractor) writePatch(
	reader slide.Reader,
	slideDir, patchesDir string,
	tile models.Tile,
	coverage float64,
) (models.PatchRecord, error) {
	region, err := reader.ReadRegion(0, image.Pt(tile.X, tile.Y), image.Pt(tile.W, tile.H))
	if err != nil {
		return models.PatchRecord{}, &TileReadError{Tile: tile, Err: err}
	}

	name := fmt.Sprintf("x=%d,y=%d,w=%d,h=%d.png", tile.X, tile.Y, tile.W, tile.H)
	path := filepath.Join(patchesDir, name)

	f, err := os.Create(path)
	if err != nil {
		return models.PatchRecord{}, &WriteError{Path: path, Err: err}
	}
	if err := png.Encode(f, region); err != nil {
		f.Close()
		return models.PatchRecord{}, &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return models.PatchRecord{}, &WriteError{Path: path, Err: err}
	}

	rel, err := filepath.Rel(slideDir, path)
	if err != nil {
		rel = path
	}
	return models.PatchRecord{
		Tile:       tile,
		Coverage:   coverage,
		OutputPath: rel,
	}, nil
}

// saveOverviewImages writes the overview, the tissue mask and the
// background-suppressed overview as PNGs, mirroring what the mask looked
// like when the tiles were filtered.
func (e *Extractor) saveOverviewImages(slideDir string, ov *image.RGBA, mask *masking.Mask) error {
	if err := savePNG(filepath.Join(slideDir, "overview.png"), ov); err != nil {
		return err
	}

	maskImg := image.NewGray(image.Rect(0, 0, mask.Width, mask.Height))
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.At(x, y) {
				maskImg.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	if err := savePNG(filepath.Join(slideDir, "tissue-mask.png"), maskImg); err != nil {
		return err
	}

	masked := image.NewRGBA(ov.Bounds())
	copy(masked.Pix, ov.Pix)
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if !mask.At(x, y) {
				off := masked.PixOffset(x, y)
				masked.Pix[off] = 0
				masked.Pix[off+1] = 0
				masked.Pix[off+2] = 0
				masked.Pix[off+3] = 255
			}
		}
	}
	return savePNG(filepath.Join(slideDir, "masked-overview.png"), masked)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
