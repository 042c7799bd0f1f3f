package annotation

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func TestBBox_Properties(t *testing.T) {
	xyxy := FromXYXY([4]float32{0.1, 0.2, 0.3, 0.4})
	xywh := FromXYWH([4]float32{0.1, 0.2, 0.3, 0.4})

	assert.Equal(t, FormatXYXY, xyxy.Format())
	assert.Equal(t, "xyxy", xyxy.Format().String())
	assert.Equal(t, FormatXYWH, xywh.Format())
	assert.True(t, xyxy.IsNormalized())
	assert.True(t, xywh.IsNormalized())
	assert.False(t, FromXYXY([4]float32{10, 10, 20, 20}).IsNormalized())
}

func TestBBox_Conversions(t *testing.T) {
	xyxy := FromXYXY([4]float32{0.1, 0.2, 0.3, 0.4})
	assert.Empty(t, cmp.Diff([4]float32{0.1, 0.2, 0.3, 0.4}, xyxy.XYXY(), approx))
	assert.Empty(t, cmp.Diff([4]float32{0.1, 0.2, 0.2, 0.2}, xyxy.XYWH(), approx))
	// pure conversions leave the box untouched
	assert.Equal(t, FormatXYXY, xyxy.Format())

	xywh := FromXYWH([4]float32{0.1, 0.2, 0.3, 0.4})
	assert.Empty(t, cmp.Diff([4]float32{0.1, 0.2, 0.4, 0.6}, xywh.XYXY(), approx))
}

func TestBBox_FormatInPlace(t *testing.T) {
	b := FromXYXY([4]float32{0.1, 0.2, 0.3, 0.4})
	b.FormatXYWH()
	assert.Equal(t, FormatXYWH, b.Format())
	assert.Empty(t, cmp.Diff([4]float32{0.1, 0.2, 0.2, 0.2}, b.Coords(), approx))

	// converting to the current format is a no-op
	before := b.Coords()
	b.FormatXYWH()
	assert.Equal(t, before, b.Coords())

	c := FromXYWH([4]float32{0.1, 0.2, 0.3, 0.4})
	c.FormatXYXY()
	assert.Equal(t, FormatXYXY, c.Format())
	assert.Empty(t, cmp.Diff([4]float32{0.1, 0.2, 0.4, 0.6}, c.Coords(), approx))
}

func TestBBox_ConversionCommutes(t *testing.T) {
	boxes := []BBox{
		FromXYXY([4]float32{0.1, 0.2, 0.3, 0.4}),
		FromXYWH([4]float32{0.1, 0.2, 0.3, 0.4}),
		FromXYXY([4]float32{12, 2.9, 33, 70}),
		FromXYWH([4]float32{5, 5, 100, 50}),
	}
	for _, b := range boxes {
		rebuilt := FromXYXY(b.XYXY())
		assert.Empty(t, cmp.Diff(b.XYWH(), rebuilt.XYWH(), cmpopts.EquateApprox(0, 1e-5)))
	}
}

func TestBBox_Normalize(t *testing.T) {
	b := FromXYXY([4]float32{10, 10, 20, 20})
	require.NoError(t, b.Normalize(100, 200))
	assert.True(t, b.IsNormalized())
	assert.Empty(t, cmp.Diff([4]float32{0.05, 0.1, 0.1, 0.2}, b.XYXY(), approx))

	t.Run("guarded", func(t *testing.T) {
		err := b.Normalize(100, 200)
		require.ErrorIs(t, err, ErrAlreadyNormalized)
		require.ErrorIs(t, err, ErrInvalidValue)
		assert.Empty(t, cmp.Diff([4]float32{0.05, 0.1, 0.1, 0.2}, b.XYXY(), approx))
	})

	t.Run("xywh", func(t *testing.T) {
		w := FromXYWH([4]float32{10, 10, 20, 20})
		require.NoError(t, w.Normalize(100, 200))
		assert.Empty(t, cmp.Diff([4]float32{0.05, 0.1, 0.1, 0.2}, w.XYWH(), approx))
	})

	t.Run("denormalize", func(t *testing.T) {
		c := b
		require.NoError(t, c.Denormalize(100, 200))
		assert.Empty(t, cmp.Diff([4]float32{10, 10, 20, 20}, c.XYXY(), approx))
		require.ErrorIs(t, c.Denormalize(100, 200), ErrNotNormalized)
	})

	t.Run("bad size", func(t *testing.T) {
		c := FromXYXY([4]float32{10, 10, 20, 20})
		require.ErrorIs(t, c.Normalize(0, 200), ErrInvalidValue)
	})
}

func TestNewBBox_Validation(t *testing.T) {
	tests := []struct {
		name   string
		coords []float32
		format Format
	}{
		{"three coords", []float32{1, 2, 3}, FormatXYXY},
		{"five coords", []float32{1, 2, 3, 4, 5}, FormatXYXY},
		{"unknown format", []float32{1, 2, 3, 4}, Format(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBBox(tt.coords, tt.format, false)
			require.ErrorIs(t, err, ErrInvalidValue)
		})
	}

	_, err := ParseFormat("cxcywh")
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestBBox_JSON(t *testing.T) {
	b := FromXYWH([4]float32{1, 2, 3, 4})
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"coords":[1,2,3,4],"format":"xywh","is_normalized":false}`, string(data))

	var back BBox
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, b, back)
}
