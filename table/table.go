package table

import (
	"context"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/annostore/column"
)

// Query selects rows and columns of a scan.
type Query struct {
	// Filter selects rows. Nil matches all rows.
	Filter Predicate
	// Columns to return, in order. Empty returns every column.
	Columns []string
	// Offset skips the first matching rows.
	Offset int
	// Limit caps the number of returned rows. Zero means no limit.
	Limit int
}

// needed returns the columns a scan must decode, or nil for all of them.
func (q Query) needed() []string {
	if len(q.Columns) == 0 {
		return nil
	}
	names := slices.Clone(q.Columns)
	if q.Filter != nil {
		for _, c := range q.Filter.Columns() {
			if !slices.Contains(names, c) {
				names = append(names, c)
			}
		}
	}
	return names
}

// Table is a handle to one stored table.
type Table struct {
	db   *DB
	name string
	blob string
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the stored columns.
func (t *Table) Schema(ctx context.Context) ([]Field, error) {
	if err := t.db.check(ctx); err != nil {
		return nil, err
	}
	f, release, err := t.db.load(ctx, t.blob)
	if err != nil {
		return nil, err
	}
	defer release()
	return slices.Clone(f.fields), nil
}

// CountRows returns the number of rows not marked deleted.
func (t *Table) CountRows(ctx context.Context) (int, error) {
	if err := t.db.check(ctx); err != nil {
		return 0, err
	}
	f, release, err := t.db.load(ctx, t.blob)
	if err != nil {
		return 0, err
	}
	defer release()
	return int(f.live().GetCardinality()), nil
}

// Scan returns the live rows matching q, in storage order.
func (t *Table) Scan(ctx context.Context, q Query) (*column.Batch, error) {
	if err := t.db.check(ctx); err != nil {
		return nil, err
	}
	sc, err := t.db.read(ctx, t.blob, q.needed())
	if err != nil {
		return nil, err
	}
	out, err := filter(sc.batch, sc.live, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("scan %s where %v: %w", t.name, q.Filter, err)
	}
	return paginate(out, q.Offset, q.Limit).Project(q.Columns...), nil
}

// Add appends rows. The batch must have the table's columns; their order
// may differ.
func (t *Table) Add(ctx context.Context, rows *column.Batch) error {
	return t.update(ctx, func(cur *column.Batch, deleted *roaring.Bitmap) (*column.Batch, *roaring.Bitmap, error) {
		in, err := conform(cur, rows)
		if err != nil {
			return nil, nil, err
		}
		out, err := column.Concat(cur, in)
		return out, deleted, err
	})
}

// Delete marks the live rows matching pred as deleted and returns how many
// were marked. Storage is reclaimed by Compact or Replace.
func (t *Table) Delete(ctx context.Context, pred Predicate) (int, error) {
	n := 0
	err := t.update(ctx, func(cur *column.Batch, deleted *roaring.Bitmap) (*column.Batch, *roaring.Bitmap, error) {
		hit, err := matchLive(cur, deleted, pred)
		if err != nil {
			return nil, nil, err
		}
		n = int(hit.GetCardinality())
		if n == 0 {
			return nil, nil, nil
		}
		deleted.Or(hit)
		return cur, deleted, nil
	})
	return n, err
}

// Replace removes the rows matching pred and appends rows in one write.
// Deleted rows are dropped at the same time. It returns the number of
// removed live rows.
func (t *Table) Replace(ctx context.Context, pred Predicate, rows *column.Batch) (int, error) {
	n := 0
	err := t.update(ctx, func(cur *column.Batch, deleted *roaring.Bitmap) (*column.Batch, *roaring.Bitmap, error) {
		in, err := conform(cur, rows)
		if err != nil {
			return nil, nil, err
		}
		hit, err := matchLive(cur, deleted, pred)
		if err != nil {
			return nil, nil, err
		}
		n = int(hit.GetCardinality())
		keep := liveRows(cur.Len(), deleted)
		keep.AndNot(hit)
		out, err := column.Concat(cur.Select(keep), in)
		return out, roaring.New(), err
	})
	return n, err
}

// Compact rewrites the table without its deleted rows.
func (t *Table) Compact(ctx context.Context) error {
	return t.update(ctx, func(cur *column.Batch, deleted *roaring.Bitmap) (*column.Batch, *roaring.Bitmap, error) {
		if deleted.IsEmpty() {
			return nil, nil, nil
		}
		return cur.Select(liveRows(cur.Len(), deleted)), roaring.New(), nil
	})
}

// update runs a read-modify-write cycle under the table lock. fn returning
// a nil batch skips the write.
func (t *Table) update(ctx context.Context, fn func(cur *column.Batch, deleted *roaring.Bitmap) (*column.Batch, *roaring.Bitmap, error)) error {
	if err := t.db.check(ctx); err != nil {
		return err
	}
	unlock, err := t.db.lock(ctx, t.blob)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	cur, deleted, err := t.readAll(ctx)
	if err != nil {
		return err
	}
	next, nextDeleted, err := fn(cur, deleted)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	if next == nil {
		return nil
	}
	return t.db.write(ctx, t.blob, next, nextDeleted)
}

// readAll decodes every column and returns the deletion bitmap.
func (t *Table) readAll(ctx context.Context) (*column.Batch, *roaring.Bitmap, error) {
	sc, err := t.db.read(ctx, t.blob, nil)
	if err != nil {
		return nil, nil, err
	}
	return sc.batch, liveRows(sc.rows, sc.live), nil
}

// liveRows returns [0, n) minus set.
func liveRows(n int, set *roaring.Bitmap) *roaring.Bitmap {
	out := roaring.New()
	out.AddRange(0, uint64(n))
	out.AndNot(set)
	return out
}

func matchLive(b *column.Batch, deleted *roaring.Bitmap, pred Predicate) (*roaring.Bitmap, error) {
	if pred == nil {
		pred = All()
	}
	hit, err := pred.Eval(b)
	if err != nil {
		return nil, err
	}
	hit.AndNot(deleted)
	return hit, nil
}

// filter returns the rows of b that are live and match pred.
func filter(b *column.Batch, live *roaring.Bitmap, pred Predicate) (*column.Batch, error) {
	rows := live
	if pred != nil {
		hit, err := pred.Eval(b)
		if err != nil {
			return nil, err
		}
		rows = roaring.And(live, hit)
	}
	if rows.GetCardinality() == uint64(b.Len()) {
		return b, nil
	}
	return b.Select(rows), nil
}

func paginate(b *column.Batch, offset, limit int) *column.Batch {
	if offset <= 0 && limit <= 0 {
		return b
	}
	end := b.Len()
	if limit > 0 {
		end = min(end, max(offset, 0)+limit)
	}
	return b.Slice(offset, end)
}

// conform reorders rows to the schema of cur.
func conform(cur, rows *column.Batch) (*column.Batch, error) {
	if rows.Width() != cur.Width() {
		return nil, fmt.Errorf("%w: table has %v, rows have %v", column.ErrSchemaMismatch, cur.Names(), rows.Names())
	}
	out := rows.Project(cur.Names()...)
	if !out.SameSchema(cur) {
		return nil, fmt.Errorf("%w: table has %v, rows have %v", column.ErrSchemaMismatch, cur.Names(), rows.Names())
	}
	return out, nil
}
