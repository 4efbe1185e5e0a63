// Package tiling enumerates candidate patch regions over the
// full-resolution slide plane, maps them into mask space and filters them
// by tissue coverage.
package tiling

import (
	"fmt"
	"iter"

	"wsipatch/internal/models"
)

// EdgePolicy selects how tiles overlapping the slide boundary are
// handled.
type EdgePolicy string

const (
	// EdgeClip shrinks boundary tiles to the slide edge, producing a
	// smaller final row and column of tiles. This is the default.
	EdgeClip EdgePolicy = "clip"

	// EdgeDrop discards boundary tiles whose clipped extent falls below
	// MinEdgeFraction of the nominal patch size on either axis.
	EdgeDrop EdgePolicy = "drop"
)

// ParseEdgePolicy validates a configuration string.
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch EdgePolicy(s) {
	case EdgeClip:
		return EdgeClip, nil
	case EdgeDrop:
		return EdgeDrop, nil
	}
	return "", fmt.Errorf("unknown edge policy %q, choose %q or %q", s, EdgeClip, EdgeDrop)
}

// Grid describes the candidate tile lattice over a slide. Stride equal to
// the patch size yields non-overlapping tiles; a smaller stride yields
// overlapping ones.
type Grid struct {
	// Width and Height are the full-resolution slide dimensions
	Width  int
	Height int

	// PatchW and PatchH are the nominal tile dimensions
	PatchW int
	PatchH int

	// StrideX and StrideY are the lattice steps
	StrideX int
	StrideY int

	// Edge selects the boundary-tile policy; empty means EdgeClip
	Edge EdgePolicy

	// MinEdgeFraction is the smallest clipped-to-nominal size ratio a
	// boundary tile may have under EdgeDrop. Zero means any non-empty
	// clipped tile survives even under EdgeDrop.
	MinEdgeFraction float64
}

// Tiles returns a lazy, restartable sequence of candidate tiles in
// row-major order: y increases outermost, x innermost. Origins are
// (i*StrideX, j*StrideY) while they lie inside the slide; re-enumerating
// with the same grid yields the same tiles in the same order, including
// their indices. The full tile set is never materialized.
func (g Grid) Tiles() iter.Seq[models.Tile] {
	edge := g.Edge
	if edge == "" {
		edge = EdgeClip
	}

	return func(yield func(models.Tile) bool) {
		if g.Width <= 0 || g.Height <= 0 || g.PatchW <= 0 || g.PatchH <= 0 ||
			g.StrideX <= 0 || g.StrideY <= 0 {
			return
		}

		index := 0
		for y := 0; y < g.Height; y += g.StrideY {
			tileH := min(g.PatchH, g.Height-y)
			if edge == EdgeDrop && float64(tileH) < g.MinEdgeFraction*float64(g.PatchH) {
				continue
			}
			for x := 0; x < g.Width; x += g.StrideX {
				tileW := min(g.PatchW, g.Width-x)
				if edge == EdgeDrop && float64(tileW) < g.MinEdgeFraction*float64(g.PatchW) {
					continue
				}
				tile := models.Tile{
					Index: index,
					X:     x,
					Y:     y,
					W:     tileW,
					H:     tileH,
				}
				index++
				if !yield(tile) {
					return
				}
			}
		}
	}
}
