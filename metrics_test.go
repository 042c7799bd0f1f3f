package annostore

import (
	"context"
	"testing"

	"github.com/hupe1980/annostore/annotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	ctx := context.Background()
	mc := &BasicMetricsCollector{}
	lib, ds, _ := openCOCO(t, WithMetricsCollector(mc))

	objs, err := lib.ItemObjects(ctx, ds, "img-1")
	require.NoError(t, err)
	require.Len(t, objs, 3)

	require.NoError(t, lib.SaveItemObjects(ctx, ds, "img-1", []annotation.ObjectAnnotation{object("o1", "img-1", 1)}))
	require.Error(t, lib.SaveItemObjects(ctx, ds, "img-404", nil))

	_, err = lib.LoadItems(ctx, ds, Params{Page: 1, Size: 10})
	require.NoError(t, err)
	_, err = lib.LoadItems(ctx, ds, Params{Page: 9, Size: 10})
	require.ErrorIs(t, err, ErrItemsNotFound)

	_, err = lib.ItemEmbeddings(ctx, ds, "img-1")
	require.NoError(t, err)
	_, err = lib.ItemEmbeddings(ctx, ds, "img-2")
	require.ErrorIs(t, err, ErrEmbeddingNotFound)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.LoadObjectsCount)
	assert.Equal(t, int64(0), stats.LoadObjectsErrors)
	assert.Equal(t, int64(3), stats.ObjectsLoaded)
	assert.Equal(t, int64(2), stats.SaveCount)
	assert.Equal(t, int64(1), stats.SaveErrors)
	assert.Equal(t, int64(1), stats.ObjectsSaved)
	assert.Equal(t, int64(1), stats.ObjectsRemoved)
	assert.Equal(t, int64(2), stats.LoadItemsCount)
	assert.Equal(t, int64(1), stats.LoadItemsErrors)
	assert.Equal(t, int64(2), stats.EmbeddingCount)
	assert.Equal(t, int64(1), stats.EmbeddingErrors)
}

func TestWithMetricsCollector_Nil(t *testing.T) {
	o := defaultOptions()
	WithMetricsCollector(nil)(&o)
	assert.Equal(t, NoopMetricsCollector{}, o.metrics)
}
