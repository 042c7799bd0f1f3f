package annotation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPose(t *testing.T) {
	_, err := NewPose(make([]float64, 8), make([]float64, 3))
	require.ErrorIs(t, err, ErrInvalidValue)
	_, err = NewPose(make([]float64, 9), make([]float64, 2))
	require.ErrorIs(t, err, ErrInvalidValue)

	// arbitrary data is accepted
	r := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}
	p, err := NewPose(r, []float64{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, [9]float64{0, 1, 2, 3, 4, 5, 6, 7, 8}, p.Rotation())
	assert.Equal(t, [3]float64{0, 1, 2}, p.Translation())
}

func TestPose_ComposeInverse(t *testing.T) {
	// 90 degrees around z, then shift
	p, err := NewPose([]float64{0, -1, 0, 1, 0, 0, 0, 0, 1}, []float64{1, 2, 3})
	require.NoError(t, err)

	x := [3]float64{1, 0, 0}
	assert.Empty(t, cmp.Diff([3]float64{1, 3, 3}, p.Apply(x), cmpopts.EquateApprox(0, 1e-12)))

	id := p.Compose(p.Inverse())
	assert.Empty(t, cmp.Diff(IdentityPose().Rotation(), id.Rotation(), cmpopts.EquateApprox(0, 1e-12)))
	assert.Empty(t, cmp.Diff([3]float64{}, id.Translation(), cmpopts.EquateApprox(0, 1e-12)))

	twice := p.Compose(p)
	assert.Empty(t, cmp.Diff(p.Apply(p.Apply(x)), twice.Apply(x), cmpopts.EquateApprox(0, 1e-12)))
}

func TestCamera_Project(t *testing.T) {
	cam, err := NewCamera(1, []float64{500, 0, 320, 0, 500, 240, 0, 0, 1})
	require.NoError(t, err)

	u, v, ok := cam.Project([3]float64{0, 0, 2})
	require.True(t, ok)
	assert.InDelta(t, 320, u, 1e-9)
	assert.InDelta(t, 240, v, 1e-9)

	_, _, ok = cam.Project([3]float64{0, 0, -1})
	assert.False(t, ok)

	moved, err := cam.WithExtrinsics([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, []float64{0, 0, 2})
	require.NoError(t, err)
	u, _, ok = moved.Project([3]float64{1, 0, 0})
	require.True(t, ok)
	assert.InDelta(t, 570, u, 1e-9)

	_, err = NewCamera(1, []float64{0, 0, 0, 0, 0, 0, 0, 0, 1})
	require.ErrorIs(t, err, ErrInvalidValue)
}
