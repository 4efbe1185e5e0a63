package slide

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	// Standard raster formats used for slide overviews and test fixtures.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// minLevelSide is the size beneath which no further pyramid levels are
// synthesized. Coarser levels than this carry too little detail to be
// useful for masking.
const minLevelSide = 256

// imageSlide is a Reader backed by a single decoded raster image. The
// downsample pyramid is synthesized by repeated halving and levels are
// rendered lazily, so coarse levels cost nothing until requested.
type imageSlide struct {
	path   string
	full   *image.RGBA
	levels []Level

	mu    sync.Mutex
	cache map[int]*image.RGBA
}

// Open decodes the image at path and wraps it in a Reader with a
// synthesized downsample pyramid. Unreadable or corrupt files yield a
// *DecodeError; pixel layouts that cannot be converted to RGB yield a
// *UnsupportedFormatError.
func Open(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	rgba, err := toRGBA(path, img)
	if err != nil {
		return nil, err
	}

	s := &imageSlide{
		path:  path,
		full:  rgba,
		cache: make(map[int]*image.RGBA),
	}
	s.buildLevelTable()
	s.cache[0] = rgba

	return s, nil
}

// toRGBA converts a decoded image to RGBA. Paletted, gray and YCbCr
// images all convert cleanly; anything without color semantics does not.
func toRGBA(path string, img image.Image) (*image.RGBA, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &UnsupportedFormatError{Path: path, Reason: "image has zero area"}
	}

	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) {
		return rgba, nil
	}

	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64,
		*image.Gray, *image.Gray16, *image.YCbCr, *image.CMYK, *image.Paletted:
		// Convertible via the draw package below.
	default:
		return nil, &UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("cannot convert %T to RGB", img),
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

// buildLevelTable fills the level metadata with downsample factors
// 1, 2, 4, ... stopping once the longest side would drop under
// minLevelSide.
func (s *imageSlide) buildLevelTable() {
	w := s.full.Bounds().Dx()
	h := s.full.Bounds().Dy()

	factor := 1
	for {
		lw := (w + factor - 1) / factor
		lh := (h + factor - 1) / factor
		s.levels = append(s.levels, Level{
			Index:      len(s.levels),
			Width:      lw,
			Height:     lh,
			Downsample: float64(factor),
		})

		next := factor * 2
		if max(w/next, h/next) < minLevelSide {
			break
		}
		factor = next
	}
}

func (s *imageSlide) Dimensions() (int, int) {
	return s.full.Bounds().Dx(), s.full.Bounds().Dy()
}

func (s *imageSlide) Levels() []Level {
	out := make([]Level, len(s.levels))
	copy(out, s.levels)
	return out
}

// levelImage renders and caches the image for one pyramid level. Safe for
// concurrent use; the first caller for a level pays the scaling cost.
func (s *imageSlide) levelImage(level int) (*image.RGBA, error) {
	if level < 0 || level >= len(s.levels) {
		return nil, &DecodeError{
			Path: s.path,
			Err:  fmt.Errorf("level %d not available (have %d levels)", level, len(s.levels)),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		return nil, &DecodeError{Path: s.path, Err: ErrClosed}
	}
	if img, ok := s.cache[level]; ok {
		return img, nil
	}

	meta := s.levels[level]
	img := image.NewRGBA(image.Rect(0, 0, meta.Width, meta.Height))
	xdraw.ApproxBiLinear.Scale(img, img.Bounds(), s.full, s.full.Bounds(), xdraw.Src, nil)
	s.cache[level] = img

	return img, nil
}

func (s *imageSlide) ReadRegion(level int, origin, size image.Point) (*image.RGBA, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, &DecodeError{
			Path: s.path,
			Err:  fmt.Errorf("invalid region size %dx%d", size.X, size.Y),
		}
	}

	src, err := s.levelImage(level)
	if err != nil {
		return nil, err
	}

	region := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))

	// Clamp the source rectangle to the level bounds; the remainder of
	// the region stays blank.
	srcRect := image.Rect(origin.X, origin.Y, origin.X+size.X, origin.Y+size.Y)
	srcRect = srcRect.Intersect(src.Bounds())
	if srcRect.Empty() {
		return region, nil
	}

	dstRect := srcRect.Sub(origin)
	draw.Draw(region, dstRect, src, srcRect.Min, draw.Src)

	return region, nil
}

func (s *imageSlide) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
	s.full = nil
	return nil
}

// ErrClosed is returned by readers whose Close has already been called.
var ErrClosed = errors.New("slide: reader is closed")
