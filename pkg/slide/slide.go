// Package slide provides access to pyramidal whole-slide images. The core
// pipeline only depends on the Reader interface; the image-backed
// implementation in this package covers slides stored in standard raster
// formats (TIFF, PNG, JPEG, BMP) by synthesizing the downsample pyramid.
package slide

import (
	"fmt"
	"image"
)

// Level describes one downsample level of a slide pyramid.
type Level struct {
	// Index identifies the level; zero is full resolution
	Index int

	// Width and Height are the pixel dimensions of the level
	Width  int
	Height int

	// Downsample is the scale factor of this level relative to full
	// resolution; level zero has Downsample == 1
	Downsample float64
}

// Reader is the decoder contract the extraction pipeline needs from a
// whole-slide image. Implementations must support concurrent calls to
// ReadRegion, as the patch writer fans region reads out to workers.
type Reader interface {
	// Dimensions returns the full-resolution (level zero) width and height
	Dimensions() (width, height int)

	// Levels enumerates the available downsample levels, finest first
	Levels() []Level

	// ReadRegion decodes the rectangle at origin with the given size from
	// the requested level and returns it as an RGBA image. Regions
	// overlapping the level boundary are clamped; the returned image keeps
	// the requested size with the out-of-bounds remainder left blank.
	ReadRegion(level int, origin, size image.Point) (*image.RGBA, error)

	// Close releases any resources held by the reader
	Close() error
}

// DecodeError reports a slide that could not be opened or read. It is
// fatal for that slide but must not abort a batch over multiple slides.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode slide %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports pixel data that cannot be converted to
// RGB, such as an unexpected channel layout. Fatal for that slide.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported pixel format in slide %q: %s", e.Path, e.Reason)
}
