// Package masking converts a low-resolution RGB overview of a whole-slide
// image into a boolean tissue mask. Strategies are registered by name in a
// startup-time table; adding a method means writing one function and one
// Register call, without touching the existing variants.
package masking

import (
	"fmt"
	"image"
	"sort"
)

// Strategy produces a tissue mask from an RGB overview. The returned mask
// always matches the overview's spatial dimensions. Tunables arrive through
// Options so every strategy composes uniformly.
type Strategy func(overview *image.RGBA, opts Options) (*Mask, error)

// Options carries the masking tunables. All strategies share one options
// value; each reads only the fields it cares about.
type Options struct {
	// ElementSize is the side length, in overview pixels, of the square
	// structuring element used for the entropy window and for the
	// morphological cleanup applied after every strategy
	ElementSize int

	// MinObjectSize is the area, in overview pixels, beneath which
	// connected foreground components are removed from the mask
	MinObjectSize int

	// Clusters is the number of clusters for the kmeans strategy
	Clusters int

	// InvertForeground flips the foreground convention for slides whose
	// tissue is lighter than the background, such as immunofluorescence
	// images. Only the kmeans strategy honors it; otsu is documented as
	// unsuitable for inverted-contrast slides.
	InvertForeground bool
}

// DefaultOptions returns the masking tunables used when the caller does
// not override them.
func DefaultOptions() Options {
	return Options{
		ElementSize:   8,
		MinObjectSize: 64,
		Clusters:      2,
	}
}

// UnknownMethodError reports a masking method name that is not in the
// registry. This is a configuration error and is raised before any slide
// work starts.
type UnknownMethodError struct {
	Name string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown masking method %q, choose from %v", e.Name, Methods())
}

// registry maps strategy names to implementations. Populated at package
// init; never mutated afterwards.
var registry = map[string]Strategy{}

// Register adds a strategy under name. Registering an existing name
// panics, as that would silently change behavior for other callers.
func Register(name string, s Strategy) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("masking: duplicate registration of %q", name))
	}
	registry[name] = s
}

// Lookup returns the strategy registered under name, or an
// *UnknownMethodError. Callers validate configuration with Lookup before
// loading any overview.
func Lookup(name string) (Strategy, error) {
	s, ok := registry[name]
	if !ok {
		return nil, &UnknownMethodError{Name: name}
	}
	return s, nil
}

// Methods lists the registered strategy names in sorted order.
func Methods() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Produce runs the named strategy on the overview and applies the
// morphological cleanup the raw strategies share: a binary closing with a
// square element to bridge small gaps, then removal of connected
// components smaller than the minimum object size.
func Produce(name string, overview *image.RGBA, opts Options) (*Mask, error) {
	strategy, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	mask, err := strategy(overview, opts)
	if err != nil {
		return nil, fmt.Errorf("masking method %q failed: %w", name, err)
	}

	if opts.ElementSize > 1 {
		mask = Dilate(mask, opts.ElementSize)
		mask = Erode(mask, opts.ElementSize)
	}
	if opts.MinObjectSize > 0 {
		RemoveSmallObjects(mask, opts.MinObjectSize)
	}

	return mask, nil
}

func init() {
	Register("otsu", maskWithOtsu)
	Register("kmeans", maskWithKMeans)
	Register("entropy", maskWithEntropy)
	Register("schreiber", maskWithSchreiber)
	Register("optical-density", maskWithOpticalDensity)
	Register("luminosity", maskWithLuminosity)
}
