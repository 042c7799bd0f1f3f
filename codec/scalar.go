package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type tags of plain scalar columns.
const (
	TagString  = "string"
	TagInt64   = "int64"
	TagFloat32 = "float32"
	TagFloat64 = "float64"
	TagBool    = "bool"
	TagBinary  = "binary"
)

// IsScalar reports whether tag names a scalar column type.
func IsScalar(tag string) bool {
	switch tag {
	case TagString, TagInt64, TagFloat32, TagFloat64, TagBool, TagBinary:
		return true
	default:
		return false
	}
}

// KnownTag reports whether tag is a scalar or a registered extension tag.
func KnownTag(tag string) bool {
	if IsScalar(tag) {
		return true
	}
	_, ok := Lookup(tag)
	return ok
}

// EncodeString returns the UTF-8 bytes of s.
func EncodeString(s string) []byte { return []byte(s) }

// DecodeString returns the cell as a string.
func DecodeString(cell []byte) (string, error) { return string(cell), nil }

// EncodeInt64 returns the little-endian bytes of v.
func EncodeInt64(v int64) []byte { return binary.LittleEndian.AppendUint64(nil, uint64(v)) }

// DecodeInt64 parses an 8-byte cell.
func DecodeInt64(cell []byte) (int64, error) {
	if len(cell) != 8 {
		return 0, malformed(TagInt64, fmt.Errorf("cell has %d bytes", len(cell)))
	}
	return int64(binary.LittleEndian.Uint64(cell)), nil
}

// EncodeFloat32 returns the little-endian bytes of v.
func EncodeFloat32(v float32) []byte {
	return binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))
}

// DecodeFloat32 parses a 4-byte cell.
func DecodeFloat32(cell []byte) (float32, error) {
	if len(cell) != 4 {
		return 0, malformed(TagFloat32, fmt.Errorf("cell has %d bytes", len(cell)))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(cell)), nil
}

// EncodeFloat64 returns the little-endian bytes of v.
func EncodeFloat64(v float64) []byte {
	return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v))
}

// DecodeFloat64 parses an 8-byte cell.
func DecodeFloat64(cell []byte) (float64, error) {
	if len(cell) != 8 {
		return 0, malformed(TagFloat64, fmt.Errorf("cell has %d bytes", len(cell)))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(cell)), nil
}

// EncodeBool returns a single 0/1 byte.
func EncodeBool(v bool) []byte { return []byte{boolByte(v)} }

// DecodeBool parses a single 0/1 byte.
func DecodeBool(cell []byte) (bool, error) {
	if len(cell) != 1 || cell[0] > 1 {
		return false, malformed(TagBool, fmt.Errorf("bad bool cell %v", cell))
	}
	return cell[0] == 1, nil
}

// DecodeScalar decodes a scalar cell into its Go value.
func DecodeScalar(tag string, cell []byte) (any, error) {
	switch tag {
	case TagString:
		return DecodeString(cell)
	case TagInt64:
		return DecodeInt64(cell)
	case TagFloat32:
		return DecodeFloat32(cell)
	case TagFloat64:
		return DecodeFloat64(cell)
	case TagBool:
		return DecodeBool(cell)
	case TagBinary:
		out := make([]byte, len(cell))
		copy(out, cell)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrMalformedCell, ErrUnknownTag, tag)
	}
}
