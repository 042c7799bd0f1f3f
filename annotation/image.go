package annotation

import (
	"bytes"
	"net/url"
	"path/filepath"
	"slices"
)

// Image references a picture by URI and may carry its encoded bytes and a
// small preview thumbnail. The URI points at external media; the image does
// not own it.
type Image struct {
	uri     string
	data    []byte
	preview []byte
}

// NewImage requires a URI or encoded bytes.
func NewImage(uri string, data, preview []byte) (Image, error) {
	if uri == "" && len(data) == 0 {
		return Image{}, invalidf("image needs a uri or bytes")
	}
	return Image{uri: uri, data: cloneBytes(data), preview: cloneBytes(preview)}, nil
}

// URI returns the image reference.
func (i Image) URI() string { return i.uri }

// Bytes returns a copy of the encoded image, if stored.
func (i Image) Bytes() []byte { return cloneBytes(i.data) }

// Preview returns a copy of the encoded thumbnail, if stored.
func (i Image) Preview() []byte { return cloneBytes(i.preview) }

// HasBytes reports whether the encoded image is stored inline.
func (i Image) HasBytes() bool { return len(i.data) > 0 }

// ResolveURI joins a relative URI onto mediaDir. URLs with a scheme and
// absolute paths are returned unchanged.
func (i Image) ResolveURI(mediaDir string) string {
	return resolveURI(i.uri, mediaDir)
}

// Equal reports whether both images hold the same data.
func (i Image) Equal(o Image) bool {
	return i.uri == o.uri && bytes.Equal(i.data, o.data) && bytes.Equal(i.preview, o.preview)
}

func resolveURI(uri, mediaDir string) string {
	if uri == "" || mediaDir == "" {
		return uri
	}
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" {
		return uri
	}
	if filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(mediaDir, filepath.FromSlash(uri))
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return slices.Clone(b)
}
