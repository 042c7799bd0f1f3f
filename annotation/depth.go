package annotation

import (
	"math"
	"slices"
)

// DepthImage holds scalar depth per pixel, row-major. The depth values are
// optional; a depth image may only reference its source by URI.
type DepthImage struct {
	uri    string
	height int
	width  int
	depth  []float32
}

// NewDepthImage validates that depth, when given, covers height*width pixels.
func NewDepthImage(uri string, height, width int, depth []float32) (DepthImage, error) {
	if height < 0 || width < 0 {
		return DepthImage{}, invalidf("depth image size %dx%d", height, width)
	}
	if len(depth) > 0 && len(depth) != height*width {
		return DepthImage{}, invalidf("depth has %d values, want %d", len(depth), height*width)
	}
	if uri == "" && len(depth) == 0 {
		return DepthImage{}, invalidf("depth image needs a uri or values")
	}
	var d []float32
	if len(depth) > 0 {
		d = slices.Clone(depth)
	}
	return DepthImage{uri: uri, height: height, width: width, depth: d}, nil
}

// URI returns the depth map reference.
func (d DepthImage) URI() string { return d.uri }

// Shape returns (height, width).
func (d DepthImage) Shape() (height, width int) { return d.height, d.width }

// Depth returns a copy of the depth values.
func (d DepthImage) Depth() []float32 { return slices.Clone(d.depth) }

// HasDepth reports whether depth values are stored inline.
func (d DepthImage) HasDepth() bool { return len(d.depth) > 0 }

// At returns the depth at row y, column x. ok is false when out of bounds or
// when no values are stored.
func (d DepthImage) At(y, x int) (float32, bool) {
	if len(d.depth) == 0 || y < 0 || x < 0 || y >= d.height || x >= d.width {
		return 0, false
	}
	return d.depth[y*d.width+x], true
}

// Range returns the minimum and maximum finite depth.
func (d DepthImage) Range() (lo, hi float32, ok bool) {
	lo, hi = float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range d.depth {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			continue
		}
		lo, hi = min(lo, v), max(hi, v)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// ResolveURI joins a relative URI onto mediaDir.
func (d DepthImage) ResolveURI(mediaDir string) string { return resolveURI(d.uri, mediaDir) }

// Equal reports whether both depth images hold the same data.
func (d DepthImage) Equal(o DepthImage) bool {
	return d.uri == o.uri && d.height == o.height && d.width == o.width && slices.Equal(d.depth, o.depth)
}
