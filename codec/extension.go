package codec

import (
	"fmt"
	"slices"

	"github.com/hupe1980/annostore/annotation"
)

// Primitive is the storage kind of one field of a cell layout.
type Primitive uint8

const (
	// Uint8 is a single byte (flags, enums).
	Uint8 Primitive = iota + 1
	// Uvarint is an unsigned varint.
	Uvarint
	// Int64 is a little-endian int64.
	Int64
	// Float32 is a little-endian IEEE-754 float32.
	Float32
	// Float64 is a little-endian IEEE-754 float64.
	Float64
	// Binary is a uvarint length followed by the bytes.
	Binary
	// OptionalBinary is a presence byte followed by Binary when present.
	OptionalBinary
	// ListUint32 is a uvarint count followed by uvarint elements.
	ListUint32
	// ListFloat32 is a uvarint count followed by float32 elements.
	ListFloat32
)

func (p Primitive) String() string {
	switch p {
	case Uint8:
		return "uint8"
	case Uvarint:
		return "uvarint"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Binary:
		return "binary"
	case OptionalBinary:
		return "optional<binary>"
	case ListUint32:
		return "list<uint32>"
	case ListFloat32:
		return "list<float32>"
	default:
		return "invalid"
	}
}

func (p Primitive) width() int {
	switch p {
	case Uint8:
		return 1
	case Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

// Field is one entry of a layout. Repeat > 1 stores Repeat consecutive
// values of the same primitive.
type Field struct {
	Name   string
	Type   Primitive
	Repeat int
}

// Layout is the ordered field list of a cell.
type Layout []Field

// FixedSize returns the byte size of a cell when every field has a fixed
// width, and 0 otherwise.
func (l Layout) FixedSize() int {
	size := 0
	for _, f := range l {
		w := f.Type.width()
		if w == 0 {
			return 0
		}
		size += w * max(f.Repeat, 1)
	}
	return size
}

func (l Layout) String() string {
	s := "struct<"
	for i, f := range l {
		if i > 0 {
			s += ", "
		}
		s += f.Name + ": " + f.Type.String()
		if f.Repeat > 1 {
			s += fmt.Sprintf("[%d]", f.Repeat)
		}
	}
	return s + ">"
}

// ExtensionType binds a stable type tag to the cell layout and codec of one
// annotation kind.
type ExtensionType struct {
	Tag    string
	Kind   annotation.Kind
	Layout Layout

	encode  func(w *cellWriter, v annotation.Value)
	decode  func(r *cellReader) (annotation.Value, error)
	project func(v annotation.Value) map[string]any
}

// Encode returns the cell bytes of v.
func (t *ExtensionType) Encode(v annotation.Value) ([]byte, error) {
	return t.AppendEncode(nil, v)
}

// AppendEncode appends the cell bytes of v to dst.
func (t *ExtensionType) AppendEncode(dst []byte, v annotation.Value) ([]byte, error) {
	if v == nil || v.Kind() != t.Kind {
		return nil, fmt.Errorf("%w: %s cannot encode %v", annotation.ErrInvalidValue, t.Tag, kindOf(v))
	}
	w := cellWriter{buf: dst}
	if size := t.Layout.FixedSize(); size > 0 {
		w.buf = slices.Grow(w.buf, size)
	}
	t.encode(&w, v)
	return w.buf, nil
}

// Decode parses a cell. Errors wrap ErrMalformedCell.
func (t *ExtensionType) Decode(cell []byte) (annotation.Value, error) {
	if size := t.Layout.FixedSize(); size > 0 && len(cell) != size {
		return nil, malformed(t.Tag, fmt.Errorf("cell has %d bytes, layout needs %d", len(cell), size))
	}
	r := newCellReader(cell)
	v, err := t.decode(r)
	if err == nil {
		err = r.done()
	}
	if err != nil {
		return nil, malformed(t.Tag, err)
	}
	return v, nil
}

// Project degrades v to a map of plain fields. The result is lossy and is
// never used to store data.
func (t *ExtensionType) Project(v annotation.Value) map[string]any {
	if v == nil || v.Kind() != t.Kind {
		return nil
	}
	return t.project(v)
}

func kindOf(v annotation.Value) annotation.Kind {
	if v == nil {
		return annotation.KindInvalid
	}
	return v.Kind()
}
