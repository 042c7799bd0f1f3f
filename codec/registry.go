package codec

import (
	"fmt"
	"sort"

	"github.com/hupe1980/annostore/annotation"
)

// registry is built once at package initialisation and never mutated.
var registry = newRegistry(
	bboxType,
	rleType,
	poseType,
	imageType,
	depthType,
	cameraType,
	gtInfoType,
	embeddingType,
)

type extensionRegistry struct {
	byTag  map[string]*ExtensionType
	byKind map[annotation.Kind]*ExtensionType
	tags   []string
}

func newRegistry(types ...*ExtensionType) *extensionRegistry {
	r := &extensionRegistry{
		byTag:  make(map[string]*ExtensionType, len(types)),
		byKind: make(map[annotation.Kind]*ExtensionType, len(types)),
	}
	for _, t := range types {
		if _, dup := r.byTag[t.Tag]; dup {
			panic(fmt.Sprintf("codec: duplicate type tag %q", t.Tag))
		}
		if _, dup := r.byKind[t.Kind]; dup {
			panic(fmt.Sprintf("codec: duplicate kind %s", t.Kind))
		}
		r.byTag[t.Tag] = t
		r.byKind[t.Kind] = t
		r.tags = append(r.tags, t.Tag)
	}
	for _, k := range annotation.Kinds() {
		if _, ok := r.byKind[k]; !ok {
			panic(fmt.Sprintf("codec: no extension type for kind %s", k))
		}
	}
	sort.Strings(r.tags)
	return r
}

// Lookup returns the extension type registered for tag.
func Lookup(tag string) (*ExtensionType, bool) {
	t, ok := registry.byTag[tag]
	return t, ok
}

// ForKind returns the extension type of an annotation kind.
func ForKind(k annotation.Kind) (*ExtensionType, error) {
	t, ok := registry.byKind[k]
	if !ok {
		return nil, fmt.Errorf("%w: kind %s", ErrUnknownTag, k)
	}
	return t, nil
}

// Tags returns the registered extension tags in sorted order.
func Tags() []string {
	out := make([]string, len(registry.tags))
	copy(out, registry.tags)
	return out
}

// Encode encodes v with the extension type of its kind.
func Encode(v annotation.Value) (tag string, cell []byte, err error) {
	if v == nil {
		return "", nil, fmt.Errorf("%w: nil value", annotation.ErrInvalidValue)
	}
	t, err := ForKind(v.Kind())
	if err != nil {
		return "", nil, err
	}
	cell, err = t.Encode(v)
	return t.Tag, cell, err
}

// Decode decodes a cell of an extension tag. Unknown tags are malformed.
func Decode(tag string, cell []byte) (annotation.Value, error) {
	t, ok := Lookup(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrMalformedCell, ErrUnknownTag, tag)
	}
	return t.Decode(cell)
}
