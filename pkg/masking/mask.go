package masking

import "image"

// Mask is a boolean tissue map in overview space. True marks foreground
// (tissue). A mask always has the same dimensions as the overview it was
// derived from.
type Mask struct {
	// Width and Height are the mask dimensions in pixels
	Width  int
	Height int

	// Pix is the row-major backing array, len = Width*Height
	Pix []bool
}

// NewMask returns an all-background mask with the given dimensions.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// Bounds returns the mask extent as a rectangle anchored at the origin.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At reports whether the pixel at (x, y) is foreground. Out-of-bounds
// coordinates are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks the pixel at (x, y). Out-of-bounds coordinates are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground pixels in the whole mask.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// CountRegion returns the number of foreground pixels inside r, clamped
// to the mask bounds.
func (m *Mask) CountRegion(r image.Rectangle) int {
	r = r.Intersect(m.Bounds())
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * m.Width
		for x := r.Min.X; x < r.Max.X; x++ {
			if m.Pix[row+x] {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}
