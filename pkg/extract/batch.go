package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wsipatch/internal/models"
)

// SlideResult reports the outcome of one slide in a batch.
type SlideResult struct {
	// Path is the slide that was processed
	Path string

	// Stats holds the tile counters for the slide
	Stats models.Stats

	// Err is the fatal error for this slide, or nil on success. Per-tile
	// skips are not fatal; they only show up in Stats.Failed.
	Err error
}

// ListSlides resolves a source path into the slides to process. A file
// path yields itself; a directory yields its entries filtered by the
// allowed extensions (compared case-insensitively), in sorted order.
func ListSlides(sourcePath string, extensions []string) ([]string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("source path %q: %w", sourcePath, err)
	}

	if !info.IsDir() {
		return []string{sourcePath}, nil
	}

	entries, err := os.ReadDir(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %q: %w", sourcePath, err)
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var slides []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if len(allowed) == 0 || allowed[ext] {
			slides = append(slides, filepath.Join(sourcePath, entry.Name()))
		}
	}
	sort.Strings(slides)

	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides found under %q", sourcePath)
	}
	return slides, nil
}

// ExtractBatch runs the pipeline over several slides. Each slide is
// isolated: a fatal error for one slide is recorded in its result and
// the batch moves on. The aggregate stats sum the per-slide counters.
func ExtractBatch(paths []string, params Params) ([]SlideResult, models.Stats) {
	results := make([]SlideResult, 0, len(paths))
	var aggregate models.Stats

	for _, path := range paths {
		slideParams := params
		slideParams.SlidePath = path

		extractor := NewExtractor(&slideParams)
		err := extractor.Process()
		if err != nil {
			fmt.Printf("Slide %q failed: %v\n", path, err)
		}

		stats := extractor.Stats()
		aggregate.Add(stats)
		results = append(results, SlideResult{
			Path:  path,
			Stats: stats,
			Err:   err,
		})
	}

	return results, aggregate
}
