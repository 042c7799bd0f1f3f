package column

import (
	"github.com/hupe1980/annostore/annotation"
	"github.com/hupe1980/annostore/codec"
)

// Project converts a batch into one map per row for analysis tooling.
//
// Scalar cells become Go scalars; annotation values degrade to plain maps of
// their fields (see codec.ExtensionType.Project). The result is lossy: type
// identity and invariants are gone, so it must never be written back.
func Project(b *Batch) ([]map[string]any, error) {
	rows := make([]map[string]any, b.Len())
	for i := range rows {
		rows[i] = make(map[string]any, b.Width())
	}
	for _, c := range b.cols {
		for i := range rows {
			v, err := c.AnyAt(i)
			if err != nil {
				return nil, err
			}
			rows[i][c.name] = ProjectValue(v)
		}
	}
	return rows, nil
}

// ProjectValue degrades a single decoded cell. Scalars pass through.
func ProjectValue(v any) any {
	av, ok := v.(annotation.Value)
	if !ok {
		return v
	}
	ext, err := codec.ForKind(av.Kind())
	if err != nil {
		return nil
	}
	return ext.Project(av)
}
