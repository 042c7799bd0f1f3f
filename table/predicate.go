package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/annostore/column"
)

// Predicate selects rows of a batch.
type Predicate interface {
	// Columns lists the columns the predicate reads.
	Columns() []string
	// Eval returns the matching rows of b.
	Eval(b *column.Batch) (*roaring.Bitmap, error)
	String() string
}

// All matches every row.
func All() Predicate { return allPredicate{} }

type allPredicate struct{}

func (allPredicate) Columns() []string { return nil }

func (allPredicate) Eval(b *column.Batch) (*roaring.Bitmap, error) {
	bm := roaring.New()
	bm.AddRange(0, uint64(b.Len()))
	return bm, nil
}

func (allPredicate) String() string { return "true" }

// Eq matches rows whose string column equals value. Null rows never match.
func Eq(col, value string) Predicate {
	return inPredicate{col: col, values: []string{value}}
}

// In matches rows whose string column equals any of values.
func In(col string, values ...string) Predicate {
	return inPredicate{col: col, values: values}
}

type inPredicate struct {
	col    string
	values []string
}

func (p inPredicate) Columns() []string { return []string{p.col} }

func (p inPredicate) Eval(b *column.Batch) (*roaring.Bitmap, error) {
	c, ok := b.Column(p.col)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, p.col)
	}
	set := make(map[string]struct{}, len(p.values))
	for _, v := range p.values {
		set[v] = struct{}{}
	}
	bm := roaring.New()
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		s, err := c.StringAt(i)
		if err != nil {
			return nil, err
		}
		if _, hit := set[s]; hit {
			bm.Add(uint32(i))
		}
	}
	return bm, nil
}

func (p inPredicate) String() string {
	if len(p.values) == 1 {
		return fmt.Sprintf("%s = %q", p.col, p.values[0])
	}
	quoted := make([]string, len(p.values))
	for i, v := range p.values {
		quoted[i] = strconv.Quote(v)
	}
	return fmt.Sprintf("%s IN (%s)", p.col, strings.Join(quoted, ", "))
}

// And matches rows matched by every predicate. And() matches all rows.
func And(preds ...Predicate) Predicate { return andPredicate(preds) }

type andPredicate []Predicate

func (p andPredicate) Columns() []string {
	var out []string
	for _, q := range p {
		out = append(out, q.Columns()...)
	}
	return out
}

func (p andPredicate) Eval(b *column.Batch) (*roaring.Bitmap, error) {
	acc, _ := allPredicate{}.Eval(b)
	for _, q := range p {
		bm, err := q.Eval(b)
		if err != nil {
			return nil, err
		}
		acc.And(bm)
	}
	return acc, nil
}

func (p andPredicate) String() string {
	parts := make([]string, len(p))
	for i, q := range p {
		parts[i] = q.String()
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}
