package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Splits     []string `json:"splits"`
	NumElement int      `json:"num_elements"`
}

func TestCodecs_Interchangeable(t *testing.T) {
	in := testInfo{ID: "coco", Name: "COCO", Splits: []string{"train", "val"}, NumElement: 42}

	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())

		data, err := c.Marshal(in)
		require.NoError(t, err)

		for _, other := range []Codec{JSON{}, GoJSON{}} {
			var out testInfo
			require.NoError(t, other.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		}
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestMustMarshal(t *testing.T) {
	assert.NotEmpty(t, MustMarshal(nil, testInfo{ID: "x"}))
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
}
