package annotation

import (
	"encoding/json"
	"slices"
)

// CompressedRLE is a run-length encoded binary mask in COCO convention.
//
// Pixels are visited in column-major order and Counts alternates runs of
// background and foreground pixels, starting with background (the first run
// may be empty). The encoding is canonical: equal masks always produce equal
// counts.
type CompressedRLE struct {
	height   int
	width    int
	counts   []uint32
	sourceID string
}

// NewCompressedRLE validates counts against the mask size.
func NewCompressedRLE(height, width int, counts []uint32, sourceID string) (CompressedRLE, error) {
	if height < 0 || width < 0 {
		return CompressedRLE{}, invalidf("mask size %dx%d", height, width)
	}
	if err := checkCounts(height, width, counts); err != nil {
		return CompressedRLE{}, err
	}
	return CompressedRLE{height: height, width: width, counts: slices.Clone(counts), sourceID: sourceID}, nil
}

func checkCounts(height, width int, counts []uint32) error {
	var sum uint64
	for i, c := range counts {
		if c == 0 && i > 0 {
			return invalidf("rle run %d is empty", i)
		}
		sum += uint64(c)
	}
	if want := uint64(height) * uint64(width); sum != want {
		return invalidf("rle counts sum to %d, mask has %d pixels", sum, want)
	}
	return nil
}

// EncodeMask run-length encodes a row-major mask where any non-zero byte is
// foreground.
func EncodeMask(mask []byte, height, width int) (CompressedRLE, error) {
	if height < 0 || width < 0 {
		return CompressedRLE{}, invalidf("mask size %dx%d", height, width)
	}
	if len(mask) != height*width {
		return CompressedRLE{}, invalidf("mask has %d pixels, want %d", len(mask), height*width)
	}

	counts := make([]uint32, 0, 8)
	var run uint32
	fg := false
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			on := mask[y*width+x] != 0
			if on != fg {
				counts = append(counts, run)
				run = 0
				fg = on
			}
			run++
		}
	}
	if run > 0 || len(counts) == 0 {
		counts = append(counts, run)
	}
	if height*width == 0 {
		counts = counts[:0]
	}
	return CompressedRLE{height: height, width: width, counts: counts}, nil
}

// Size returns (height, width).
func (r CompressedRLE) Size() (height, width int) { return r.height, r.width }

// Counts returns a copy of the run lengths.
func (r CompressedRLE) Counts() []uint32 { return slices.Clone(r.counts) }

// SourceID returns the optional identifier of the mask source.
func (r CompressedRLE) SourceID() string { return r.sourceID }

// WithSourceID returns a copy of r tagged with id.
func (r CompressedRLE) WithSourceID(id string) CompressedRLE {
	r.counts = slices.Clone(r.counts)
	r.sourceID = id
	return r
}

// Decode expands the mask into a row-major slice of 0/1 bytes.
func (r CompressedRLE) Decode() []byte {
	mask := make([]byte, r.height*r.width)
	pos := 0
	for i, c := range r.counts {
		if i%2 == 1 {
			for p := pos; p < pos+int(c); p++ {
				x, y := p/r.height, p%r.height
				mask[y*r.width+x] = 1
			}
		}
		pos += int(c)
	}
	return mask
}

// Area returns the number of foreground pixels.
func (r CompressedRLE) Area() int {
	area := 0
	for i := 1; i < len(r.counts); i += 2 {
		area += int(r.counts[i])
	}
	return area
}

// BBox returns the absolute xywh box enclosing the foreground. An empty mask
// yields a zero-size box.
func (r CompressedRLE) BBox() BBox {
	if r.height == 0 || r.Area() == 0 {
		return BBox{format: FormatXYWH}
	}
	xmin, ymin := r.width, r.height
	xmax, ymax := -1, -1
	pos := 0
	for i, c := range r.counts {
		start, end := pos, pos+int(c)-1
		pos += int(c)
		if i%2 == 0 || c == 0 {
			continue
		}
		xs, xe := start/r.height, end/r.height
		ys, ye := start%r.height, end%r.height
		if xe > xs {
			ys, ye = 0, r.height-1
		}
		xmin, xmax = min(xmin, xs), max(xmax, xe)
		ymin, ymax = min(ymin, ys), max(ymax, ye)
	}
	return BBox{
		coords: [4]float32{float32(xmin), float32(ymin), float32(xmax - xmin + 1), float32(ymax - ymin + 1)},
		format: FormatXYWH,
	}
}

// Equal reports whether both masks have the same size, runs and source.
func (r CompressedRLE) Equal(o CompressedRLE) bool {
	return r.height == o.height && r.width == o.width && r.sourceID == o.sourceID && slices.Equal(r.counts, o.counts)
}

// MarshalCOCO returns the COCO compressed counts string.
func (r CompressedRLE) MarshalCOCO() string {
	buf := make([]byte, 0, len(r.counts)*2)
	for i, c := range r.counts {
		x := int64(c)
		if i > 2 {
			x -= int64(r.counts[i-2])
		}
		for more := true; more; {
			ch := byte(x & 0x1f)
			x >>= 5
			if ch&0x10 != 0 {
				more = x != -1
			} else {
				more = x != 0
			}
			if more {
				ch |= 0x20
			}
			buf = append(buf, ch+48)
		}
	}
	return string(buf)
}

// ParseCOCO decodes a COCO compressed counts string.
func ParseCOCO(height, width int, s string, sourceID string) (CompressedRLE, error) {
	var counts []uint32
	for p := 0; p < len(s); {
		var x int64
		k := 0
		for more := true; more; {
			if p >= len(s) {
				return CompressedRLE{}, invalidf("truncated coco counts")
			}
			c := int64(s[p]) - 48
			if c < 0 || c > 63 {
				return CompressedRLE{}, invalidf("bad coco counts byte %q", s[p])
			}
			x |= (c & 0x1f) << (5 * k)
			more = c&0x20 != 0
			p++
			k++
			if !more && c&0x10 != 0 {
				x |= -1 << (5 * k)
			}
		}
		if len(counts) > 2 {
			x += int64(counts[len(counts)-2])
		}
		if x < 0 || x > int64(^uint32(0)) {
			return CompressedRLE{}, invalidf("coco run %d out of range", len(counts))
		}
		counts = append(counts, uint32(x))
	}
	return NewCompressedRLE(height, width, counts, sourceID)
}

type rleJSON struct {
	Size     [2]int `json:"size"`
	Counts   string `json:"counts"`
	SourceID string `json:"source_id,omitempty"`
}

// MarshalJSON encodes the mask in COCO style: {"size": [h, w], "counts": "..."}.
func (r CompressedRLE) MarshalJSON() ([]byte, error) {
	return json.Marshal(rleJSON{Size: [2]int{r.height, r.width}, Counts: r.MarshalCOCO(), SourceID: r.sourceID})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *CompressedRLE) UnmarshalJSON(data []byte) error {
	var aux rleJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v, err := ParseCOCO(aux.Size[0], aux.Size[1], aux.Counts, aux.SourceID)
	if err != nil {
		return err
	}
	*r = v
	return nil
}
