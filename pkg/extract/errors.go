package extract

import (
	"fmt"

	"wsipatch/internal/models"
)

// TileReadError reports a single region read that failed. Recoverable:
// the orchestrator logs it, counts it and moves on to the next tile.
type TileReadError struct {
	Tile models.Tile
	Err  error
}

func (e *TileReadError) Error() string {
	return fmt.Sprintf("failed to read tile %d at (%d,%d) %dx%d: %v",
		e.Tile.Index, e.Tile.X, e.Tile.Y, e.Tile.W, e.Tile.H, e.Err)
}

func (e *TileReadError) Unwrap() error { return e.Err }

// WriteError reports a patch or manifest write that failed. Recoverable
// per patch; a manifest write failure is fatal for the slide.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
