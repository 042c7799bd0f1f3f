package annostore

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/annostore/annotation"
	"github.com/hupe1980/annostore/codec"
	"github.com/hupe1980/annostore/dataset"
	"github.com/hupe1980/annostore/table"
)

// LoadItemEmbeddings returns the encoded embedding of itemID stored in the
// embedding dataset emb. The first embedding column of the embeddings table
// is used: annotation embeddings are returned as little-endian float32
// values, binary columns as stored.
func LoadItemEmbeddings(ctx context.Context, emb *dataset.Dataset, itemID string, opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return loadItemEmbeddings(ctx, o, emb, itemID)
}

func loadItemEmbeddings(ctx context.Context, o options, emb *dataset.Dataset, itemID string) ([]byte, error) {
	start := time.Now()
	data, err := scanEmbedding(ctx, o, emb, itemID)
	err = translateError("load embedding", err)
	o.metrics.RecordEmbedding(len(data), time.Since(start), err)
	o.logger.WithDataset(emb.ID()).WithItem(itemID).LogEmbedding(ctx, emb.ID(), len(data), err)
	return data, err
}

func scanEmbedding(ctx context.Context, o options, emb *dataset.Dataset, itemID string) ([]byte, error) {
	if err := o.controller.AcquireScan(ctx); err != nil {
		return nil, err
	}
	defer o.controller.ReleaseScan()

	v, err := emb.Load(ctx, o.tableOptions()...)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	if !v.HasTable(EmbeddingsTable) {
		return nil, fmt.Errorf("%w: %s has no %s table", ErrEmbeddingNotFound, emb.ID(), EmbeddingsTable)
	}
	b, err := v.Scan(ctx, EmbeddingsTable, table.Query{Filter: table.Eq(colID, itemID), Limit: 1})
	if err != nil {
		return nil, err
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("%w: item %q in %s", ErrEmbeddingNotFound, itemID, emb.ID())
	}

	for _, c := range b.Columns() {
		if c.IsNull(0) {
			continue
		}
		switch c.Tag() {
		case codec.TagEmbedding:
			val, err := c.ValueAt(0)
			if err != nil {
				return nil, err
			}
			return val.(annotation.Embedding).Bytes(), nil
		case codec.TagBinary:
			return c.BinaryAt(0)
		}
	}
	return nil, fmt.Errorf("%w: item %q in %s has no embedding column", ErrEmbeddingNotFound, itemID, emb.ID())
}
