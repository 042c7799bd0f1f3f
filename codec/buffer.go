package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// cellWriter appends little-endian fields to a cell.
type cellWriter struct {
	buf []byte
}

func (w *cellWriter) u8(v uint8)        { w.buf = append(w.buf, v) }
func (w *cellWriter) bool(v bool)       { w.u8(boolByte(v)) }
func (w *cellWriter) uvarint(v uint64)  { w.buf = binary.AppendUvarint(w.buf, v) }
func (w *cellWriter) int64(v int64)     { w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v)) }
func (w *cellWriter) float32(v float32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v)) }
func (w *cellWriter) float64(v float64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v)) }

func (w *cellWriter) binary(b []byte) {
	w.uvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *cellWriter) string(s string) {
	w.uvarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// optionalBinary writes a presence byte; empty slices are absent.
func (w *cellWriter) optionalBinary(b []byte) {
	if len(b) == 0 {
		w.u8(0)
		return
	}
	w.u8(1)
	w.binary(b)
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// cellReader consumes fields from a cell. The first failure is sticky; later
// reads return zero values.
type cellReader struct {
	buf []byte
	pos int
	err error
}

func newCellReader(b []byte) *cellReader { return &cellReader{buf: b} }

func (r *cellReader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

func (r *cellReader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *cellReader) bool() bool {
	switch v := r.u8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail("bad bool byte %d", v)
		return false
	}
}

func (r *cellReader) uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	r.pos += n
	return v
}

func (r *cellReader) int64() int64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return int64(v)
}

func (r *cellReader) float32() float32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return math.Float32frombits(v)
}

func (r *cellReader) float64() float64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return math.Float64frombits(v)
}

// length reads a uvarint length and checks it against the remaining bytes,
// assuming each element takes at least width bytes.
func (r *cellReader) length(width int) int {
	n := r.uvarint()
	if r.err != nil {
		return 0
	}
	if n > uint64(len(r.buf)-r.pos)/uint64(width) {
		r.err = io.ErrUnexpectedEOF
		return 0
	}
	return int(n)
}

func (r *cellReader) binary() []byte {
	n := r.length(1)
	if !r.need(n) {
		return nil
	}
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out
}

func (r *cellReader) string() string {
	n := r.length(1)
	if !r.need(n) {
		return ""
	}
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s
}

func (r *cellReader) optionalBinary() []byte {
	if !r.bool() {
		return nil
	}
	return r.binary()
}

func (r *cellReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
}

// done reports the sticky error, or trailing bytes after a complete decode.
func (r *cellReader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.buf) {
		return fmt.Errorf("%d trailing bytes", len(r.buf)-r.pos)
	}
	return nil
}
