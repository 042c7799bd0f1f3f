package annostore

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hupe1980/annostore/annotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Save(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	lib, ds, _ := openCOCO(t, WithLogger(logger))

	require.NoError(t, lib.SaveItemObjects(context.Background(), ds, "img-1", []annotation.ObjectAnnotation{object("o1", "img-1", 1)}))
	out := buf.String()
	assert.Contains(t, out, `"msg":"objects saved"`)
	assert.Contains(t, out, `"dataset":"coco"`)
	assert.Contains(t, out, `"item":"img-1"`)
	assert.Contains(t, out, `"partition":"train"`)
	assert.Contains(t, out, `"removed":1`)

	buf.Reset()
	_, err := lib.ItemObjects(context.Background(), ds, "img-1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"load objects completed"`)
	assert.Contains(t, buf.String(), `"sources":3`)
}

func TestLogger_Failure(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, nil))

	logger.WithItem("img-9").LogEmbedding(context.Background(), "db_embed_a", 0, errors.New("boom"))
	assert.Contains(t, buf.String(), "load embedding failed")
	assert.Contains(t, buf.String(), "item=img-9")

	// Debug output is below the handler level.
	buf.Reset()
	logger.LogEmbedding(context.Background(), "db_embed_a", 12, nil)
	assert.Empty(t, buf.String())
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.WithDataset("x").LogSave(context.Background(), "train", 1, 0, nil)
}
