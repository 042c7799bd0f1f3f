package annotation

import (
	"encoding/json"
	"math"
)

// Format tells how the four coordinates of a BBox are interpreted.
type Format uint8

const (
	// FormatXYXY stores (x1, y1, x2, y2).
	FormatXYXY Format = iota + 1
	// FormatXYWH stores (x, y, width, height).
	FormatXYWH
)

func (f Format) String() string {
	switch f {
	case FormatXYXY:
		return "xyxy"
	case FormatXYWH:
		return "xywh"
	default:
		return "invalid"
	}
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool { return f == FormatXYXY || f == FormatXYWH }

// ParseFormat parses "xyxy" or "xywh".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "xyxy":
		return FormatXYXY, nil
	case "xywh":
		return FormatXYWH, nil
	default:
		return 0, invalidf("unknown bbox format %q", s)
	}
}

// BBox is an axis-aligned bounding box.
//
// The coordinates are always interpreted according to the current format;
// FormatXYXY and FormatXYWH convert the stored coordinates in place.
type BBox struct {
	coords     [4]float32
	format     Format
	normalized bool
}

// NewBBox validates coords and returns a box in the given format.
func NewBBox(coords []float32, format Format, normalized bool) (BBox, error) {
	if len(coords) != 4 {
		return BBox{}, invalidf("bbox needs 4 coordinates, got %d", len(coords))
	}
	if !format.Valid() {
		return BBox{}, invalidf("unknown bbox format %d", format)
	}
	var c [4]float32
	for i, v := range coords {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return BBox{}, invalidf("bbox coordinate %d is not finite", i)
		}
		c[i] = v
	}
	return BBox{coords: c, format: format, normalized: normalized}, nil
}

// FromXYXY returns an xyxy box. The box counts as normalized when every
// coordinate lies in [0, 1].
func FromXYXY(coords [4]float32) BBox {
	return BBox{coords: coords, format: FormatXYXY, normalized: inUnitRange(coords)}
}

// FromXYWH returns an xywh box. The box counts as normalized when every
// coordinate lies in [0, 1].
func FromXYWH(coords [4]float32) BBox {
	return BBox{coords: coords, format: FormatXYWH, normalized: inUnitRange(coords)}
}

func inUnitRange(c [4]float32) bool {
	for _, v := range c {
		if !(v >= 0 && v <= 1) {
			return false
		}
	}
	return true
}

// Format returns the current coordinate format.
func (b BBox) Format() Format { return b.format }

// IsNormalized reports whether the coordinates are relative to the image size.
func (b BBox) IsNormalized() bool { return b.normalized }

// Coords returns the coordinates in the current format.
func (b BBox) Coords() [4]float32 { return b.coords }

// XYXY returns the coordinates as (x1, y1, x2, y2) without modifying b.
func (b BBox) XYXY() [4]float32 {
	if b.format == FormatXYWH {
		x, y, w, h := b.coords[0], b.coords[1], b.coords[2], b.coords[3]
		return [4]float32{x, y, x + w, y + h}
	}
	return b.coords
}

// XYWH returns the coordinates as (x, y, w, h) without modifying b.
func (b BBox) XYWH() [4]float32 {
	if b.format == FormatXYXY {
		x1, y1, x2, y2 := b.coords[0], b.coords[1], b.coords[2], b.coords[3]
		return [4]float32{x1, y1, x2 - x1, y2 - y1}
	}
	return b.coords
}

// FormatXYXY converts the stored coordinates to xyxy.
func (b *BBox) FormatXYXY() {
	b.coords = b.XYXY()
	b.format = FormatXYXY
}

// FormatXYWH converts the stored coordinates to xywh.
func (b *BBox) FormatXYWH() {
	b.coords = b.XYWH()
	b.format = FormatXYWH
}

// Normalize divides the coordinates by (width, height, width, height).
//
// It fails with ErrAlreadyNormalized when called on a normalized box, so a
// second call can never re-divide the coordinates.
func (b *BBox) Normalize(height, width int) error {
	if b.normalized {
		return ErrAlreadyNormalized
	}
	if height <= 0 || width <= 0 {
		return invalidf("image size %dx%d", width, height)
	}
	w, h := float32(width), float32(height)
	b.coords = [4]float32{b.coords[0] / w, b.coords[1] / h, b.coords[2] / w, b.coords[3] / h}
	b.normalized = true
	return nil
}

// Denormalize multiplies the coordinates by (width, height, width, height).
func (b *BBox) Denormalize(height, width int) error {
	if !b.normalized {
		return ErrNotNormalized
	}
	if height <= 0 || width <= 0 {
		return invalidf("image size %dx%d", width, height)
	}
	w, h := float32(width), float32(height)
	b.coords = [4]float32{b.coords[0] * w, b.coords[1] * h, b.coords[2] * w, b.coords[3] * h}
	b.normalized = false
	return nil
}

// Area returns width*height in the box's own units.
func (b BBox) Area() float32 {
	c := b.XYWH()
	if c[2] <= 0 || c[3] <= 0 {
		return 0
	}
	return c[2] * c[3]
}

// IsZero reports whether b is the zero BBox.
func (b BBox) IsZero() bool { return b == BBox{} }

// Validate checks the format and that every coordinate is finite. The zero
// box is valid.
func (b BBox) Validate() error {
	if b.IsZero() {
		return nil
	}
	if !b.format.Valid() {
		return invalidf("bbox has unknown format %d", b.format)
	}
	for i, v := range b.coords {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return invalidf("bbox coordinate %d is not finite", i)
		}
	}
	return nil
}

type bboxJSON struct {
	Coords       [4]float32 `json:"coords"`
	Format       string     `json:"format"`
	IsNormalized bool       `json:"is_normalized"`
}

// MarshalJSON implements json.Marshaler.
func (b BBox) MarshalJSON() ([]byte, error) {
	if b.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(bboxJSON{Coords: b.coords, Format: b.format.String(), IsNormalized: b.normalized})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BBox) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = BBox{}
		return nil
	}
	var aux bboxJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f, err := ParseFormat(aux.Format)
	if err != nil {
		return err
	}
	v, err := NewBBox(aux.Coords[:], f, aux.IsNormalized)
	if err != nil {
		return err
	}
	*b = v
	return nil
}
