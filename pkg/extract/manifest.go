package extract

import (
	"encoding/csv"
	"os"
	"strconv"

	"wsipatch/internal/models"
)

// manifestColumns is the fixed header of the per-slide manifest.
var manifestColumns = []string{"index", "x", "y", "width", "height", "coverage", "output_path"}

// writeManifest persists the patch records as a CSV table, one row per
// written patch. Records must already be in tile enumeration order;
// coverage is formatted with fixed precision so re-running with identical
// inputs reproduces an identical file.
func writeManifest(path string, records []models.PatchRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(manifestColumns); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	for i, rec := range records {
		row := []string{
			strconv.Itoa(i),
			strconv.Itoa(rec.Tile.X),
			strconv.Itoa(rec.Tile.Y),
			strconv.Itoa(rec.Tile.W),
			strconv.Itoa(rec.Tile.H),
			strconv.FormatFloat(rec.Coverage, 'f', 6, 64),
			rec.OutputPath,
		}
		if err := w.Write(row); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
