package table

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressBlock_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("annotation cell "), 1000)

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			block, err := compressBlock(nil, data, c)
			require.NoError(t, err)
			assert.Less(t, len(block), len(data)/2)

			out, n, err := decompressBlock(block, c)
			require.NoError(t, err)
			assert.Equal(t, len(block), n)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressBlock_RawFallback(t *testing.T) {
	// Incompressible input is stored raw.
	r := rand.New(rand.NewPCG(1, 2))
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(r.Uint32())
	}

	for _, c := range []Compression{CompressionNone, CompressionLZ4} {
		block, err := compressBlock(nil, data, c)
		require.NoError(t, err)
		assert.Len(t, block, blockHeaderSize+len(data))

		out, _, err := decompressBlock(block, c)
		require.NoError(t, err)
		assert.Equal(t, data, out)

		// The payload never aliases the input block.
		block[blockHeaderSize] ^= 0xff
		assert.Equal(t, data[0], out[0])
	}
}

func TestCompressBlock_Empty(t *testing.T) {
	block, err := compressBlock(nil, nil, CompressionZSTD)
	require.NoError(t, err)
	out, n, err := decompressBlock(block, CompressionZSTD)
	require.NoError(t, err)
	assert.Equal(t, blockHeaderSize, n)
	assert.Empty(t, out)
}

func TestDecompressBlock_Truncated(t *testing.T) {
	block, err := compressBlock(nil, bytes.Repeat([]byte("x"), 512), CompressionLZ4)
	require.NoError(t, err)

	_, _, err = decompressBlock(block[:4], CompressionLZ4)
	require.ErrorIs(t, err, errShortBlock)

	_, _, err = decompressBlock(block[:len(block)-1], CompressionLZ4)
	require.ErrorIs(t, err, errShortBlock)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("snappy")
	require.Error(t, err)
}
