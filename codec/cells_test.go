package codec

import (
	"testing"

	"github.com/hupe1980/annostore/annotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustValue[T any](v T, err error) func(t *testing.T) T {
	return func(t *testing.T) T {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func sampleValues(t *testing.T) []annotation.Value {
	t.Helper()
	mask := mustValue(annotation.EncodeMask([]byte{0, 1, 1, 0, 0, 1}, 2, 3))(t)
	cam := mustValue(annotation.NewCamera(0.1, []float64{500, 0, 320, 0, 500, 240, 0, 0, 1}))(t)
	return []annotation.Value{
		annotation.FromXYXY([4]float32{0.1, 0.2, 0.3, 0.4}),
		annotation.FromXYWH([4]float32{12, 2.9, 3.3, 7}),
		mask,
		mask.WithSourceID("sam-vit-h"),
		mustValue(annotation.NewPose([]float64{0, 1, 2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}, []float64{0, 3, 6}))(t),
		mustValue(annotation.NewImage("train/0001.jpg", nil, []byte{1, 2, 3}))(t),
		mustValue(annotation.NewImage("", []byte("jpeg"), nil))(t),
		mustValue(annotation.NewDepthImage("depth/0001.png", 2, 2, []float32{0.5, 1, 1.5, 2}))(t),
		mustValue(annotation.NewDepthImage("depth/0002.png", 480, 640, nil))(t),
		cam,
		mustValue(cam.WithExtrinsics([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, []float64{0, 0, 1}))(t),
		annotation.GtInfo{
			BBoxObj:      annotation.FromXYWH([4]float32{1, 2, 30, 40}),
			PxCountAll:   1200,
			PxCountValid: 1100,
			PxCountVisib: 900,
			VisibFract:   0.75,
		},
		mustValue(annotation.NewEmbedding("item-7", []float32{0.25, -1, 3.5}))(t),
	}
}

func equalValues(t *testing.T, want, got annotation.Value) {
	t.Helper()
	switch w := want.(type) {
	case annotation.CompressedRLE:
		assert.True(t, w.Equal(got.(annotation.CompressedRLE)), "rle differs")
	case annotation.Image:
		assert.True(t, w.Equal(got.(annotation.Image)), "image differs")
	case annotation.DepthImage:
		assert.True(t, w.Equal(got.(annotation.DepthImage)), "depth differs")
	case annotation.Embedding:
		assert.True(t, w.Equal(got.(annotation.Embedding)), "embedding differs")
	default:
		assert.Equal(t, want, got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, v := range sampleValues(t) {
		t.Run(v.Kind().String(), func(t *testing.T) {
			tag, cell, err := Encode(v)
			require.NoError(t, err)

			ext, ok := Lookup(tag)
			require.True(t, ok)
			assert.Equal(t, v.Kind(), ext.Kind)
			if size := ext.Layout.FixedSize(); size > 0 {
				assert.Len(t, cell, size)
			}

			back, err := Decode(tag, cell)
			require.NoError(t, err)
			equalValues(t, v, back)

			// encoding is binary-stable
			_, again, err := Encode(back)
			require.NoError(t, err)
			assert.Equal(t, cell, again)
		})
	}
}

func TestRegistry_Exhaustive(t *testing.T) {
	for _, k := range annotation.Kinds() {
		ext, err := ForKind(k)
		require.NoError(t, err)
		assert.Equal(t, k, ext.Kind)
	}
	assert.Len(t, Tags(), len(annotation.Kinds()))

	_, err := ForKind(annotation.KindInvalid)
	require.ErrorIs(t, err, ErrUnknownTag)
}

func TestFixedLayouts(t *testing.T) {
	assert.Equal(t, 18, bboxType.Layout.FixedSize())
	assert.Equal(t, 96, poseType.Layout.FixedSize())
	assert.Equal(t, 8+72+72+24+1, cameraType.Layout.FixedSize())
	assert.Equal(t, 18+18+24+4, gtInfoType.Layout.FixedSize())
	assert.Equal(t, 0, rleType.Layout.FixedSize())
	assert.Equal(t, "struct<coords: float32[4], format: uint8, is_normalized: uint8>", bboxType.Layout.String())
}

func TestDecode_Malformed(t *testing.T) {
	bbox, err := bboxType.Encode(annotation.FromXYXY([4]float32{1, 2, 3, 4}))
	require.NoError(t, err)

	tests := []struct {
		name string
		tag  string
		cell []byte
	}{
		{"unknown tag", "annostore.polygon", bbox},
		{"short bbox", TagBBox, bbox[:10]},
		{"bad bbox format", TagBBox, append(append([]byte{}, bbox[:16]...), 7, 0)},
		{"rle sum mismatch", TagCompressedRLE, []byte{2, 2, 2, 1, 2, 0}},
		{"rle trailing bytes", TagCompressedRLE, []byte{1, 1, 1, 1, 0, 9}},
		{"truncated image", TagImage, []byte{10, 'a'}},
		{"empty embedding", TagEmbedding, []byte{0, 0}},
		{"camera R without extrinsics flag", TagCamera, cameraWithoutFlag(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.tag, tt.cell)
			require.ErrorIs(t, err, ErrMalformedCell)
			require.NotErrorIs(t, err, annotation.ErrInvalidValue)
		})
	}
}

// cameraWithoutFlag encodes a camera with extrinsics, then clears the flag.
func cameraWithoutFlag(t *testing.T) []byte {
	t.Helper()
	cam := mustValue(annotation.NewCamera(1, []float64{500, 0, 320, 0, 500, 240, 0, 0, 1}))(t)
	cam = mustValue(cam.WithExtrinsics([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, []float64{0, 0, 2}))(t)
	cell, err := cameraType.Encode(cam)
	require.NoError(t, err)
	cell[len(cell)-1] = 0
	return cell
}

func TestEncode_KindMismatch(t *testing.T) {
	_, err := bboxType.Encode(annotation.IdentityPose())
	require.ErrorIs(t, err, annotation.ErrInvalidValue)

	_, _, err = Encode(nil)
	require.ErrorIs(t, err, annotation.ErrInvalidValue)
}

func TestProject(t *testing.T) {
	m := bboxType.Project(annotation.FromXYXY([4]float32{0.1, 0.2, 0.3, 0.4}))
	assert.Equal(t, "xyxy", m["format"])
	assert.Equal(t, true, m["is_normalized"])
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, m["coords"])

	assert.Nil(t, bboxType.Project(annotation.IdentityPose()))
}

func TestScalars(t *testing.T) {
	i, err := DecodeInt64(EncodeInt64(-42))
	require.NoError(t, err)
	assert.Equal(t, int64(-42), i)

	f, err := DecodeFloat32(EncodeFloat32(0.5))
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), f)

	b, err := DecodeBool(EncodeBool(true))
	require.NoError(t, err)
	assert.True(t, b)

	_, err = DecodeInt64([]byte{1, 2})
	require.ErrorIs(t, err, ErrMalformedCell)
	_, err = DecodeBool([]byte{2})
	require.ErrorIs(t, err, ErrMalformedCell)

	v, err := DecodeScalar(TagFloat64, EncodeFloat64(2.5))
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	assert.True(t, KnownTag(TagBBox))
	assert.True(t, KnownTag(TagString))
	assert.False(t, KnownTag("annostore.polygon"))
}

func TestCorruptCellError(t *testing.T) {
	_, cause := Decode(TagBBox, []byte{1})
	err := NewCorruptCellError("bbox", 3, TagBBox, cause)
	require.ErrorIs(t, err, ErrCorruptCell)
	require.ErrorIs(t, err, ErrMalformedCell)
	assert.Contains(t, err.Error(), `column "bbox" row 3`)
}
