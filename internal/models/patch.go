package models

// Tile is a rectangular region of the full-resolution slide plane.
// Coordinates are level-zero pixels. Index is the position of the tile
// in the deterministic enumeration order of the grid that produced it.
type Tile struct {
	// Index is the enumeration order of this tile within its grid
	Index int

	// X, Y is the top-left corner in full-resolution pixels
	X, Y int

	// W, H is the extent of the tile; edge tiles may be smaller than
	// the nominal patch size when the grid clips at the slide boundary
	W, H int
}

// PatchRecord is the manifest entry for one accepted patch. It is created
// by the coverage filter and finalized by the patch writer; it is never
// mutated after the patch has been written.
type PatchRecord struct {
	// Tile is the region the patch was extracted from
	Tile Tile

	// Coverage is the fraction of the tile's footprint classified as
	// tissue by the mask, on [0, 1]
	Coverage float64

	// OutputPath is the file the patch pixels were written to
	OutputPath string
}

// Stats holds the per-slide extraction counters. Every skipped tile is
// accounted for here; nothing is dropped silently.
type Stats struct {
	// Considered is the number of candidate tiles enumerated by the grid
	Considered int

	// Accepted is the number of tiles that passed the coverage filter
	Accepted int

	// Written is the number of patches successfully written to disk
	Written int

	// Failed is the number of accepted tiles whose read or write failed
	Failed int
}

// Add accumulates the counters of other into s, for batch aggregation.
func (s *Stats) Add(other Stats) {
	s.Considered += other.Considered
	s.Accepted += other.Accepted
	s.Written += other.Written
	s.Failed += other.Failed
}
