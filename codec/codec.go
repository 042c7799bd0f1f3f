// Package codec holds the byte-level encodings used by annostore.
//
// Two families live here:
//
//   - Cell codecs: one ExtensionType per annotation kind, binding a stable
//     type tag to a storage layout and to Encode/Decode functions. The
//     registry is built once at package initialisation and is read-only.
//   - Metadata codecs (Codec): whole-document encodings for dataset
//     metadata files (db.json, infer.json, embed.json, stats.json).
//
// Changing a cell layout is a breaking change: persisted tables written with
// the old layout will no longer decode.
package codec

import "fmt"

// Codec encodes/decodes metadata documents.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
