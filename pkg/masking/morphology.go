package masking

// Binary morphology on tissue masks. Dilation followed by erosion with
// the same element is a closing, which bridges small gaps inside tissue
// regions before the coverage filter sees the mask.

// Dilate returns a mask where a pixel is foreground if any pixel of the
// input within a size x size square window is foreground. Implemented as
// two separable passes.
func Dilate(m *Mask, size int) *Mask {
	return separable(m, size, false)
}

// Erode returns a mask where a pixel is foreground only if every pixel of
// the input within a size x size square window is foreground.
func Erode(m *Mask, size int) *Mask {
	return separable(m, size, true)
}

// separable runs a horizontal then a vertical window pass. requireAll
// selects erosion semantics; otherwise dilation.
func separable(m *Mask, size int, requireAll bool) *Mask {
	if size <= 1 {
		return m.Clone()
	}
	radius := size / 2

	horizontal := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		row := y * m.Width
		for x := 0; x < m.Width; x++ {
			horizontal.Pix[row+x] = windowHit(m.Pix[row:row+m.Width], x, radius, requireAll)
		}
	}

	out := NewMask(m.Width, m.Height)
	column := make([]bool, m.Height)
	for x := 0; x < m.Width; x++ {
		for y := 0; y < m.Height; y++ {
			column[y] = horizontal.Pix[y*m.Width+x]
		}
		for y := 0; y < m.Height; y++ {
			out.Pix[y*m.Width+x] = windowHit(column, y, radius, requireAll)
		}
	}
	return out
}

func windowHit(line []bool, center, radius int, requireAll bool) bool {
	lo := max(center-radius, 0)
	hi := min(center+radius, len(line)-1)
	for i := lo; i <= hi; i++ {
		if line[i] != requireAll {
			return !requireAll
		}
	}
	return requireAll
}

// RemoveSmallObjects clears, in place, every 8-connected foreground
// component whose pixel area is below minArea.
func RemoveSmallObjects(m *Mask, minArea int) {
	if minArea <= 1 {
		return
	}

	labels := make([]int, len(m.Pix))
	for i := range labels {
		labels[i] = -1
	}

	dx := [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := [8]int{-1, -1, -1, 0, 0, 1, 1, 1}

	var sizes []int
	queue := make([]int, 0, 1024)

	for start := range m.Pix {
		if !m.Pix[start] || labels[start] >= 0 {
			continue
		}

		id := len(sizes)
		queue = queue[:0]
		queue = append(queue, start)
		labels[start] = id
		size := 0

		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			size++

			cx := cur % m.Width
			cy := cur / m.Width
			for d := 0; d < 8; d++ {
				nx := cx + dx[d]
				ny := cy + dy[d]
				if nx < 0 || nx >= m.Width || ny < 0 || ny >= m.Height {
					continue
				}
				ni := ny*m.Width + nx
				if m.Pix[ni] && labels[ni] < 0 {
					labels[ni] = id
					queue = append(queue, ni)
				}
			}
		}
		sizes = append(sizes, size)
	}

	for i, label := range labels {
		if label >= 0 && sizes[label] < minArea {
			m.Pix[i] = false
		}
	}
}
