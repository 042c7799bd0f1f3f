package annotation

import (
	"encoding/binary"
	"math"
	"slices"
)

// Embedding is a feature vector computed for one item.
type Embedding struct {
	itemID string
	vector []float32
}

// NewEmbedding requires a non-empty, finite vector.
func NewEmbedding(itemID string, vector []float32) (Embedding, error) {
	if len(vector) == 0 {
		return Embedding{}, invalidf("embedding vector is empty")
	}
	for i, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Embedding{}, invalidf("embedding value %d is not finite", i)
		}
	}
	return Embedding{itemID: itemID, vector: slices.Clone(vector)}, nil
}

// ItemID returns the item the embedding was computed for.
func (e Embedding) ItemID() string { return e.itemID }

// Vector returns a copy of the values.
func (e Embedding) Vector() []float32 { return slices.Clone(e.vector) }

// Dim returns the vector length.
func (e Embedding) Dim() int { return len(e.vector) }

// Bytes returns the vector as little-endian float32 values.
func (e Embedding) Bytes() []byte {
	out := make([]byte, 0, 4*len(e.vector))
	for _, v := range e.vector {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

// Equal reports whether both embeddings are identical.
func (e Embedding) Equal(o Embedding) bool {
	return e.itemID == o.itemID && slices.Equal(e.vector, o.vector)
}
