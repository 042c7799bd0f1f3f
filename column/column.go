package column

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/annostore/annotation"
	"github.com/hupe1980/annostore/codec"
)

// Column is one typed column: a name, a type tag, one encoded cell per row
// and the set of null rows.
//
// Columns are immutable once built.
type Column struct {
	name  string
	tag   string
	cells [][]byte
	nulls *roaring.Bitmap
}

// New assembles a column from encoded cells. Rows in nulls must have a nil
// cell; a nil bitmap means no nulls. The tag is not checked here: cells of
// an unknown tag fail when decoded.
func New(name, tag string, cells [][]byte, nulls *roaring.Bitmap) *Column {
	if nulls == nil {
		nulls = roaring.New()
	}
	return &Column{name: name, tag: tag, cells: cells, nulls: nulls}
}

// FromValues encodes values into a column. A nil entry is a null row. All
// non-nil values must share one kind.
func FromValues(name string, values []annotation.Value) (*Column, error) {
	var ext *codec.ExtensionType
	for _, v := range values {
		if v == nil {
			continue
		}
		t, err := codec.ForKind(v.Kind())
		if err != nil {
			return nil, err
		}
		ext = t
		break
	}
	if ext == nil {
		return nil, fmt.Errorf("%w: column %q", ErrUntyped, name)
	}
	return encodeWith(name, ext, values)
}

func encodeWith(name string, ext *codec.ExtensionType, values []annotation.Value) (*Column, error) {
	c := &Column{name: name, tag: ext.Tag, cells: make([][]byte, len(values)), nulls: roaring.New()}
	for i, v := range values {
		if v == nil {
			c.nulls.Add(uint32(i))
			continue
		}
		if v.Kind() != ext.Kind {
			return nil, fmt.Errorf("%w: column %q row %d is %s, want %s", ErrTypeMismatch, name, i, v.Kind(), ext.Kind)
		}
		cell, err := ext.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		c.cells[i] = cell
	}
	return c, nil
}

func kindOf[T annotation.Value]() annotation.Kind {
	var zero T
	return zero.Kind()
}

// Of encodes a slice of values of one annotation type.
func Of[T annotation.Value](name string, values []T) (*Column, error) {
	ext, err := codec.ForKind(kindOf[T]())
	if err != nil {
		return nil, err
	}
	vs := make([]annotation.Value, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return encodeWith(name, ext, vs)
}

// OfOptional encodes a slice of optional values; nil pointers are nulls.
func OfOptional[T annotation.Value](name string, values []*T) (*Column, error) {
	ext, err := codec.ForKind(kindOf[T]())
	if err != nil {
		return nil, err
	}
	vs := make([]annotation.Value, len(values))
	for i, v := range values {
		if v != nil {
			vs[i] = *v
		}
	}
	return encodeWith(name, ext, vs)
}

func scalars[T any](name, tag string, values []T, enc func(T) []byte) *Column {
	c := &Column{name: name, tag: tag, cells: make([][]byte, len(values)), nulls: roaring.New()}
	for i, v := range values {
		c.cells[i] = enc(v)
	}
	return c
}

// Strings builds a string column.
func Strings(name string, values []string) *Column {
	return scalars(name, codec.TagString, values, codec.EncodeString)
}

// Int64s builds an int64 column.
func Int64s(name string, values []int64) *Column {
	return scalars(name, codec.TagInt64, values, codec.EncodeInt64)
}

// Float32s builds a float32 column.
func Float32s(name string, values []float32) *Column {
	return scalars(name, codec.TagFloat32, values, codec.EncodeFloat32)
}

// Float64s builds a float64 column.
func Float64s(name string, values []float64) *Column {
	return scalars(name, codec.TagFloat64, values, codec.EncodeFloat64)
}

// Bools builds a bool column.
func Bools(name string, values []bool) *Column {
	return scalars(name, codec.TagBool, values, codec.EncodeBool)
}

// Binaries builds a binary column; nil entries are nulls.
func Binaries(name string, values [][]byte) *Column {
	c := &Column{name: name, tag: codec.TagBinary, cells: make([][]byte, len(values)), nulls: roaring.New()}
	for i, v := range values {
		if v == nil {
			c.nulls.Add(uint32(i))
			continue
		}
		c.cells[i] = append([]byte{}, v...)
	}
	return c
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Tag returns the type tag of the cells.
func (c *Column) Tag() string { return c.tag }

// Len returns the number of rows.
func (c *Column) Len() int { return len(c.cells) }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return c.nulls.Contains(uint32(i)) }

// NullCount returns the number of null rows.
func (c *Column) NullCount() int { return int(c.nulls.GetCardinality()) }

// Nulls returns a copy of the null bitmap.
func (c *Column) Nulls() *roaring.Bitmap { return c.nulls.Clone() }

// Cell returns the encoded bytes of row i, nil for nulls. The slice is
// shared with the column and must not be modified.
func (c *Column) Cell(i int) []byte { return c.cells[i] }

// Rename returns a column sharing c's cells under another name.
func (c *Column) Rename(name string) *Column {
	out := *c
	out.name = name
	return &out
}

// IsExtension reports whether the column stores annotation values.
func (c *Column) IsExtension() bool {
	_, ok := codec.Lookup(c.tag)
	return ok
}

func (c *Column) corrupt(row int, err error) error {
	return codec.NewCorruptCellError(c.name, row, c.tag, err)
}

// ValueAt decodes row i of an annotation column. Null rows yield nil.
func (c *Column) ValueAt(i int) (annotation.Value, error) {
	if c.IsNull(i) {
		return nil, nil
	}
	v, err := codec.Decode(c.tag, c.cells[i])
	if err != nil {
		return nil, c.corrupt(i, err)
	}
	return v, nil
}

// Values decodes every row, preserving order and length. Null rows are nil.
func (c *Column) Values() ([]annotation.Value, error) {
	if codec.IsScalar(c.tag) {
		return nil, fmt.Errorf("%w: column %q holds %s", ErrTypeMismatch, c.name, c.tag)
	}
	out := make([]annotation.Value, len(c.cells))
	for i := range c.cells {
		v, err := c.ValueAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Decode materialises a column of T. It fails with ErrNull when a row is
// null; use DecodeOptional for nullable columns.
func Decode[T annotation.Value](c *Column) ([]T, error) {
	if n := c.NullCount(); n > 0 {
		return nil, fmt.Errorf("%w: column %q has %d null rows", ErrNull, c.name, n)
	}
	opt, err := DecodeOptional[T](c)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(opt))
	for i, v := range opt {
		out[i] = *v
	}
	return out, nil
}

// DecodeOptional materialises a nullable column of T; null rows are nil.
func DecodeOptional[T annotation.Value](c *Column) ([]*T, error) {
	ext, err := codec.ForKind(kindOf[T]())
	if err != nil {
		return nil, err
	}
	if c.tag != ext.Tag {
		if !codec.KnownTag(c.tag) {
			// Unknown tags are corrupt data, not a caller mistake.
			return nil, c.corrupt(0, fmt.Errorf("%w %q", codec.ErrUnknownTag, c.tag))
		}
		return nil, fmt.Errorf("%w: column %q holds %s, want %s", ErrTypeMismatch, c.name, c.tag, ext.Tag)
	}
	out := make([]*T, len(c.cells))
	for i, cell := range c.cells {
		if c.IsNull(i) {
			continue
		}
		v, err := ext.Decode(cell)
		if err != nil {
			return nil, c.corrupt(i, err)
		}
		t := v.(T)
		out[i] = &t
	}
	return out, nil
}

func (c *Column) checkTag(tag string) error {
	if c.tag != tag {
		return fmt.Errorf("%w: column %q holds %s, want %s", ErrTypeMismatch, c.name, c.tag, tag)
	}
	return nil
}

func scalarAt[T any](c *Column, i int, tag string, dec func([]byte) (T, error)) (T, error) {
	var zero T
	if err := c.checkTag(tag); err != nil {
		return zero, err
	}
	if c.IsNull(i) {
		return zero, nil
	}
	v, err := dec(c.cells[i])
	if err != nil {
		return zero, c.corrupt(i, err)
	}
	return v, nil
}

// StringAt returns row i of a string column; nulls read as "".
func (c *Column) StringAt(i int) (string, error) {
	return scalarAt(c, i, codec.TagString, codec.DecodeString)
}

// Int64At returns row i of an int64 column; nulls read as 0.
func (c *Column) Int64At(i int) (int64, error) {
	return scalarAt(c, i, codec.TagInt64, codec.DecodeInt64)
}

// Float32At returns row i of a float32 column; nulls read as 0.
func (c *Column) Float32At(i int) (float32, error) {
	return scalarAt(c, i, codec.TagFloat32, codec.DecodeFloat32)
}

// Float64At returns row i of a float64 column; nulls read as 0.
func (c *Column) Float64At(i int) (float64, error) {
	return scalarAt(c, i, codec.TagFloat64, codec.DecodeFloat64)
}

// BoolAt returns row i of a bool column; nulls read as false.
func (c *Column) BoolAt(i int) (bool, error) {
	return scalarAt(c, i, codec.TagBool, codec.DecodeBool)
}

// BinaryAt returns a copy of row i of a binary column; nulls read as nil.
func (c *Column) BinaryAt(i int) ([]byte, error) {
	if err := c.checkTag(codec.TagBinary); err != nil {
		return nil, err
	}
	if c.IsNull(i) {
		return nil, nil
	}
	return append([]byte{}, c.cells[i]...), nil
}

// StringsAll decodes a whole string column.
func (c *Column) StringsAll() ([]string, error) {
	out := make([]string, c.Len())
	for i := range out {
		v, err := c.StringAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// AnyAt decodes row i into its Go value: a scalar for scalar columns, an
// annotation.Value otherwise. Null rows yield nil.
func (c *Column) AnyAt(i int) (any, error) {
	if c.IsNull(i) {
		return nil, nil
	}
	if codec.IsScalar(c.tag) {
		v, err := codec.DecodeScalar(c.tag, c.cells[i])
		if err != nil {
			return nil, c.corrupt(i, err)
		}
		return v, nil
	}
	return c.ValueAt(i)
}

// take returns the rows listed in idx, in that order.
func (c *Column) take(idx []uint32) *Column {
	out := &Column{name: c.name, tag: c.tag, cells: make([][]byte, len(idx)), nulls: roaring.New()}
	for i, row := range idx {
		if c.nulls.Contains(row) {
			out.nulls.Add(uint32(i))
			continue
		}
		out.cells[i] = c.cells[row]
	}
	return out
}
