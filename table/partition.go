package table

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/annostore/column"
)

// Partitioning describes hive-style "key=value" directories.
type Partitioning struct {
	Key string
}

// SplitPartitioning is the partitioning shared by every dataset kind.
var SplitPartitioning = Partitioning{Key: "split"}

// Dir returns the directory of the partition with the given value.
func (p Partitioning) Dir(value string) string {
	return p.Key + "=" + url.PathEscape(value)
}

// TableName returns the name of table inside the partition value.
func (p Partitioning) TableName(value, table string) string {
	return p.Dir(value) + "/" + table
}

// Fragment is one physical table file of a partitioned table.
type Fragment struct {
	// Table is the logical table name, e.g. "objects".
	Table string
	// Value is the partition value, e.g. "train".
	Value string
	// Name is the physical table name, e.g. "split=train/objects".
	Name string
}

// View is a logical, partitioned view over the tables of a DB.
type View struct {
	db    *DB
	part  Partitioning
	frags []Fragment
}

// Discover lists the partition fragments of db. Only files laid out as
// "<key>=<value>/<table>.ptb" are data files; everything else, and any file
// whose base name is in ignore, is skipped.
func Discover(ctx context.Context, db *DB, p Partitioning, ignore ...string) (*View, error) {
	if err := db.check(ctx); err != nil {
		return nil, err
	}
	blobs, err := db.store.List(ctx, p.Key+"=")
	if err != nil {
		return nil, err
	}
	v := &View{db: db, part: p}
	for _, b := range blobs {
		if slices.Contains(ignore, path.Base(b)) {
			continue
		}
		dir, file, ok := strings.Cut(b, "/")
		if !ok || strings.Contains(file, "/") {
			continue
		}
		table, ok := strings.CutSuffix(file, Extension)
		if !ok || table == "" {
			continue
		}
		raw, ok := strings.CutPrefix(dir, p.Key+"=")
		if !ok {
			continue
		}
		value, err := url.PathUnescape(raw)
		if err != nil || value == "" {
			continue
		}
		v.frags = append(v.frags, Fragment{Table: table, Value: value, Name: dir + "/" + table})
	}
	slices.SortFunc(v.frags, func(a, b Fragment) int {
		if c := strings.Compare(a.Table, b.Table); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	return v, nil
}

// Partitioning returns the partitioning of the view.
func (v *View) Partitioning() Partitioning { return v.part }

// Fragments returns all fragments, sorted by table then value.
func (v *View) Fragments() []Fragment { return slices.Clone(v.frags) }

// Tables returns the logical table names, sorted.
func (v *View) Tables() []string {
	var out []string
	for _, f := range v.frags {
		if len(out) == 0 || out[len(out)-1] != f.Table {
			out = append(out, f.Table)
		}
	}
	return out
}

// HasTable reports whether any partition holds table.
func (v *View) HasTable(table string) bool {
	return len(v.fragments(table)) > 0
}

// Partitions returns the partition values of table, sorted.
func (v *View) Partitions(table string) []string {
	frags := v.fragments(table)
	out := make([]string, len(frags))
	for i, f := range frags {
		out[i] = f.Value
	}
	return out
}

func (v *View) fragments(table string) []Fragment {
	var out []Fragment
	for _, f := range v.frags {
		if f.Table == table {
			out = append(out, f)
		}
	}
	return out
}

// Open returns the physical table of one partition.
func (v *View) Open(ctx context.Context, table, value string) (*Table, error) {
	return v.db.OpenTable(ctx, v.part.TableName(value, table))
}

// Scan reads table across all partitions in partition order. The partition
// key is appended to each row as a string column and may be used in the
// filter and the column list.
func (v *View) Scan(ctx context.Context, table string, q Query) (*column.Batch, error) {
	if err := v.db.check(ctx); err != nil {
		return nil, err
	}
	frags := v.fragments(table)
	if len(frags) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	stored := q.needed()
	if stored != nil {
		stored = slices.DeleteFunc(stored, func(n string) bool { return n == v.part.Key })
	}

	parts := make([]*column.Batch, 0, len(frags))
	for _, f := range frags {
		blob, err := blobName(f.Name)
		if err != nil {
			return nil, err
		}
		sc, err := v.db.read(ctx, blob, stored)
		if err != nil {
			return nil, err
		}
		keys := make([]string, sc.rows)
		for i := range keys {
			keys[i] = f.Value
		}
		b, err := sc.batch.WithColumn(column.Strings(v.part.Key, keys))
		if err != nil {
			return nil, err
		}
		if b, err = filter(b, sc.live, q.Filter); err != nil {
			return nil, fmt.Errorf("scan %s where %v: %w", f.Name, q.Filter, err)
		}
		parts = append(parts, b)
	}

	out, err := column.Concat(parts...)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	return paginate(out, q.Offset, q.Limit).Project(q.Columns...), nil
}

// CountRows returns the number of live rows of table across partitions.
func (v *View) CountRows(ctx context.Context, table string) (int, error) {
	frags := v.fragments(table)
	if len(frags) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	total := 0
	for _, f := range frags {
		t, err := v.db.OpenTable(ctx, f.Name)
		if err != nil {
			return 0, err
		}
		n, err := t.CountRows(ctx)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Close closes the DB the view was discovered on.
func (v *View) Close() error { return v.db.Close() }
