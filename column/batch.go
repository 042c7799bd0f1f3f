package column

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Batch is an ordered set of equal-length columns.
type Batch struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewBatch groups columns into a batch. Column names must be unique and all
// columns must have the same length.
func NewBatch(cols ...*Column) (*Batch, error) {
	b := &Batch{cols: make([]*Column, 0, len(cols)), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := b.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.name)
		}
		if i == 0 {
			b.rows = c.Len()
		} else if c.Len() != b.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.name, c.Len(), b.rows)
		}
		b.index[c.name] = len(b.cols)
		b.cols = append(b.cols, c)
	}
	return b, nil
}

// Len returns the number of rows.
func (b *Batch) Len() int { return b.rows }

// Width returns the number of columns.
func (b *Batch) Width() int { return len(b.cols) }

// Columns returns the columns in order.
func (b *Batch) Columns() []*Column { return slices.Clone(b.cols) }

// Names returns the column names in order.
func (b *Batch) Names() []string {
	out := make([]string, len(b.cols))
	for i, c := range b.cols {
		out[i] = c.name
	}
	return out
}

// Column looks up a column by name.
func (b *Batch) Column(name string) (*Column, bool) {
	i, ok := b.index[name]
	if !ok {
		return nil, false
	}
	return b.cols[i], true
}

// Select returns the rows set in rows, in ascending row order. Rows past the
// end of the batch are ignored.
func (b *Batch) Select(rows *roaring.Bitmap) *Batch {
	idx := make([]uint32, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		r := it.Next()
		if int(r) >= b.rows {
			break
		}
		idx = append(idx, r)
	}
	return b.take(idx)
}

// Slice returns rows [from, to).
func (b *Batch) Slice(from, to int) *Batch {
	from = min(max(from, 0), b.rows)
	to = min(max(to, from), b.rows)
	idx := make([]uint32, 0, to-from)
	for r := from; r < to; r++ {
		idx = append(idx, uint32(r))
	}
	return b.take(idx)
}

func (b *Batch) take(idx []uint32) *Batch {
	out := &Batch{cols: make([]*Column, len(b.cols)), index: b.index, rows: len(idx)}
	for i, c := range b.cols {
		out.cols[i] = c.take(idx)
	}
	return out
}

// Project keeps only the named columns, in the given order. Unknown names
// are skipped.
func (b *Batch) Project(names ...string) *Batch {
	if len(names) == 0 {
		return b
	}
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		if c, ok := b.Column(n); ok {
			cols = append(cols, c)
		}
	}
	out, _ := NewBatch(cols...)
	if len(cols) == 0 {
		out.rows = b.rows
	}
	return out
}

// WithColumn returns a batch with c appended, or replacing the column of the
// same name.
func (b *Batch) WithColumn(c *Column) (*Batch, error) {
	if b.Width() > 0 && c.Len() != b.rows {
		return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.name, c.Len(), b.rows)
	}
	cols := b.Columns()
	if i, ok := b.index[c.name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return NewBatch(cols...)
}

// SameSchema reports whether both batches have the same column names and
// tags in the same order.
func (b *Batch) SameSchema(o *Batch) bool {
	if len(b.cols) != len(o.cols) {
		return false
	}
	for i, c := range b.cols {
		if c.name != o.cols[i].name || c.tag != o.cols[i].tag {
			return false
		}
	}
	return true
}

// Concat appends batches with the same schema. Empty batches without
// columns are skipped.
func Concat(batches ...*Batch) (*Batch, error) {
	var first *Batch
	total := 0
	for _, b := range batches {
		if b == nil || b.Width() == 0 {
			continue
		}
		if first == nil {
			first = b
		} else if !first.SameSchema(b) {
			return nil, fmt.Errorf("%w: %v vs %v", ErrSchemaMismatch, first.Names(), b.Names())
		}
		total += b.rows
	}
	if first == nil {
		return NewBatch()
	}

	cols := make([]*Column, len(first.cols))
	for i, fc := range first.cols {
		c := &Column{name: fc.name, tag: fc.tag, cells: make([][]byte, 0, total), nulls: roaring.New()}
		for _, b := range batches {
			if b == nil || b.Width() == 0 {
				continue
			}
			src := b.cols[i]
			off := uint32(len(c.cells))
			it := src.nulls.Iterator()
			for it.HasNext() {
				c.nulls.Add(off + it.Next())
			}
			c.cells = append(c.cells, src.cells...)
		}
		cols[i] = c
	}
	return NewBatch(cols...)
}
