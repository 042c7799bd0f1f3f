package table

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/annostore/column"
	"github.com/hupe1980/annostore/internal/hash"
)

// Table file layout (all integers little-endian):
//
//	[header 64B][schema][column chunks...][deleted bitmap][footer 8B]
//
// Each column chunk is one compressed block (see compression.go) whose
// payload is:
//
//	[uvarint null bitmap length][roaring null bitmap]
//	rows x [uvarint cell length][cell bytes]
//
// Null rows are written with a zero length. The footer holds the CRC32C of
// everything between header and footer followed by the magic again.
const (
	// FormatMagic identifies table files (ASCII: "PXT1").
	FormatMagic uint32 = 0x50585431

	// FormatVersion is the current table file format version.
	FormatVersion uint32 = 1

	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 64

	// FooterSize is the size of the file footer in bytes.
	FooterSize = 8

	// Extension is the file extension of table files.
	Extension = ".ptb"

	flagCompressionMask uint32 = 0xff
)

// Field describes one stored column.
type Field struct {
	Name string
	Tag  string
	// Nullable reports whether the stored column has null rows.
	Nullable bool
}

// fileHeader is the 64-byte header at the start of table files.
type fileHeader struct {
	Magic      uint32
	Version    uint32
	Flags      uint32
	Columns    uint32
	Rows       uint64
	SchemaOff  uint64
	DataOff    uint64
	DeletedOff uint64
	FooterOff  uint64
	Checksum   uint32 // CRC32C of bytes [0, 56)
	// 4 reserved bytes pad the header to 64.
}

func (h *fileHeader) compression() Compression {
	return Compression(h.Flags & flagCompressionMask)
}

func (h *fileHeader) appendTo(dst []byte) []byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], h.Columns)
	binary.LittleEndian.PutUint64(buf[16:24], h.Rows)
	binary.LittleEndian.PutUint64(buf[24:32], h.SchemaOff)
	binary.LittleEndian.PutUint64(buf[32:40], h.DataOff)
	binary.LittleEndian.PutUint64(buf[40:48], h.DeletedOff)
	binary.LittleEndian.PutUint64(buf[48:56], h.FooterOff)
	h.Checksum = hash.CRC32C(buf[:56])
	binary.LittleEndian.PutUint32(buf[56:60], h.Checksum)
	return append(dst, buf[:]...)
}

func readHeader(data []byte) (fileHeader, error) {
	var h fileHeader
	if len(data) < HeaderSize+FooterSize {
		return h, corruptf("file too small (%d bytes)", len(data))
	}
	h.Magic = binary.LittleEndian.Uint32(data[0:4])
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.Flags = binary.LittleEndian.Uint32(data[8:12])
	h.Columns = binary.LittleEndian.Uint32(data[12:16])
	h.Rows = binary.LittleEndian.Uint64(data[16:24])
	h.SchemaOff = binary.LittleEndian.Uint64(data[24:32])
	h.DataOff = binary.LittleEndian.Uint64(data[32:40])
	h.DeletedOff = binary.LittleEndian.Uint64(data[40:48])
	h.FooterOff = binary.LittleEndian.Uint64(data[48:56])
	h.Checksum = binary.LittleEndian.Uint32(data[56:60])

	if h.Magic != FormatMagic {
		return h, corruptf("invalid magic %#x", h.Magic)
	}
	if h.Version > FormatVersion {
		return h, corruptf("unsupported format version %d", h.Version)
	}
	if hash.CRC32C(data[:56]) != h.Checksum {
		return h, corruptf("header checksum mismatch")
	}
	size := uint64(len(data))
	if h.SchemaOff != HeaderSize || h.DataOff < h.SchemaOff || h.DeletedOff < h.DataOff ||
		h.FooterOff < h.DeletedOff || h.FooterOff+FooterSize != size {
		return h, corruptf("section offsets out of range")
	}
	if c := h.compression(); c > CompressionZSTD {
		return h, corruptf("unknown compression %d", c)
	}
	if h.Rows > 1<<32 {
		return h, corruptf("row count %d", h.Rows)
	}
	return h, nil
}

// encodeFile serialises b with the given deletion bitmap.
func encodeFile(b *column.Batch, deleted *roaring.Bitmap, c Compression) ([]byte, error) {
	cols := b.Columns()
	chunks := make([][]byte, len(cols))
	for i, col := range cols {
		raw, err := encodeChunk(col)
		if err != nil {
			return nil, err
		}
		chunks[i], err = compressBlock(nil, raw, c)
		if err != nil {
			return nil, fmt.Errorf("compress column %q: %w", col.Name(), err)
		}
	}

	schema := make([]byte, 0, 32*len(cols))
	for i, col := range cols {
		schema = appendString(schema, col.Name())
		schema = appendString(schema, col.Tag())
		schema = append(schema, boolByte(col.NullCount() > 0))
		schema = binary.AppendUvarint(schema, uint64(len(chunks[i])))
	}

	if deleted == nil {
		deleted = roaring.New()
	}
	delBytes, err := deleted.ToBytes()
	if err != nil {
		return nil, err
	}

	h := fileHeader{
		Magic:     FormatMagic,
		Version:   FormatVersion,
		Flags:     uint32(c),
		Columns:   uint32(len(cols)),
		Rows:      uint64(b.Len()),
		SchemaOff: HeaderSize,
	}
	h.DataOff = h.SchemaOff + uint64(len(schema))
	h.DeletedOff = h.DataOff
	for _, ch := range chunks {
		h.DeletedOff += uint64(len(ch))
	}
	delSection := binary.AppendUvarint(nil, uint64(len(delBytes)))
	delSection = append(delSection, delBytes...)
	h.FooterOff = h.DeletedOff + uint64(len(delSection))

	out := make([]byte, 0, h.FooterOff+FooterSize)
	out = h.appendTo(out)
	out = append(out, schema...)
	for _, ch := range chunks {
		out = append(out, ch...)
	}
	out = append(out, delSection...)
	out = binary.LittleEndian.AppendUint32(out, hash.CRC32C(out[HeaderSize:]))
	out = binary.LittleEndian.AppendUint32(out, FormatMagic)
	return out, nil
}

func encodeChunk(c *column.Column) ([]byte, error) {
	nulls, err := c.Nulls().ToBytes()
	if err != nil {
		return nil, err
	}
	size := binary.MaxVarintLen64 + len(nulls)
	for i := 0; i < c.Len(); i++ {
		size += binary.MaxVarintLen32 + len(c.Cell(i))
	}
	out := make([]byte, 0, size)
	out = binary.AppendUvarint(out, uint64(len(nulls)))
	out = append(out, nulls...)
	for i := 0; i < c.Len(); i++ {
		cell := c.Cell(i)
		if c.IsNull(i) {
			cell = nil
		}
		out = binary.AppendUvarint(out, uint64(len(cell)))
		out = append(out, cell...)
	}
	return out, nil
}

// tableFile is a parsed, checksum-verified table file. Column chunks are
// decoded on demand so scans only pay for the columns they touch.
type tableFile struct {
	header  fileHeader
	fields  []Field
	chunks  [][]byte // framed blocks, aliasing the file bytes
	deleted *roaring.Bitmap
}

// parseFile validates data and indexes its sections. The returned value
// aliases data until the chunks have been decoded.
func parseFile(data []byte) (*tableFile, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	footer := data[h.FooterOff:]
	if binary.LittleEndian.Uint32(footer[4:8]) != FormatMagic {
		return nil, corruptf("invalid footer magic")
	}
	if hash.CRC32C(data[HeaderSize:h.FooterOff]) != binary.LittleEndian.Uint32(footer[0:4]) {
		return nil, corruptf("body checksum mismatch")
	}

	if uint64(h.Columns) > h.DataOff-h.SchemaOff {
		return nil, corruptf("column count %d exceeds schema section", h.Columns)
	}
	f := &tableFile{header: h, fields: make([]Field, 0, h.Columns), chunks: make([][]byte, 0, h.Columns)}
	schema := data[h.SchemaOff:h.DataOff]
	off := h.DataOff
	for i := uint32(0); i < h.Columns; i++ {
		var fd Field
		var nullable byte
		var chunkLen uint64
		if fd.Name, schema, err = readString(schema); err != nil {
			return nil, corruptf("schema column %d name: %v", i, err)
		}
		if fd.Tag, schema, err = readString(schema); err != nil {
			return nil, corruptf("schema column %d tag: %v", i, err)
		}
		if len(schema) == 0 {
			return nil, corruptf("schema column %d truncated", i)
		}
		nullable, schema = schema[0], schema[1:]
		fd.Nullable = nullable == 1
		if chunkLen, schema, err = readUvarint(schema); err != nil {
			return nil, corruptf("schema column %d chunk length: %v", i, err)
		}
		if chunkLen > h.DeletedOff-off {
			return nil, corruptf("column %q chunk exceeds data section", fd.Name)
		}
		f.fields = append(f.fields, fd)
		f.chunks = append(f.chunks, data[off:off+chunkLen])
		off += chunkLen
	}
	if len(schema) != 0 || off != h.DeletedOff {
		return nil, corruptf("schema does not match data section")
	}

	del := data[h.DeletedOff:h.FooterOff]
	n, del, err := readUvarint(del)
	if err != nil || n != uint64(len(del)) {
		return nil, corruptf("deletion bitmap framing")
	}
	f.deleted = roaring.New()
	if err := f.deleted.UnmarshalBinary(del); err != nil {
		return nil, corruptf("deletion bitmap: %v", err)
	}
	if !f.deleted.IsEmpty() && uint64(f.deleted.Maximum()) >= h.Rows {
		return nil, corruptf("deleted row outside table")
	}
	return f, nil
}

func (f *tableFile) rows() int { return int(f.header.Rows) }

func (f *tableFile) fieldIndex(name string) int {
	for i, fd := range f.fields {
		if fd.Name == name {
			return i
		}
	}
	return -1
}

// rawSize is the uncompressed size of the listed chunks.
func (f *tableFile) rawSize(idx []int) int64 {
	var n int64
	for _, i := range idx {
		if len(f.chunks[i]) >= 4 {
			n += int64(binary.LittleEndian.Uint32(f.chunks[i]))
		}
	}
	return n
}

// column decodes chunk i. The result does not alias the file bytes.
func (f *tableFile) column(i int) (*column.Column, error) {
	fd := f.fields[i]
	payload, n, err := decompressBlock(f.chunks[i], f.header.compression())
	if err != nil {
		return nil, corruptf("column %q: %v", fd.Name, err)
	}
	if n != len(f.chunks[i]) {
		return nil, corruptf("column %q: trailing chunk bytes", fd.Name)
	}

	nullLen, rest, err := readUvarint(payload)
	if err != nil || nullLen > uint64(len(rest)) {
		return nil, corruptf("column %q: null bitmap framing", fd.Name)
	}
	nulls := roaring.New()
	if err := nulls.UnmarshalBinary(rest[:nullLen]); err != nil {
		return nil, corruptf("column %q: null bitmap: %v", fd.Name, err)
	}
	rest = rest[nullLen:]

	rows := f.rows()
	cells := make([][]byte, rows)
	for r := 0; r < rows; r++ {
		var size uint64
		if size, rest, err = readUvarint(rest); err != nil || size > uint64(len(rest)) {
			return nil, corruptf("column %q: row %d framing", fd.Name, r)
		}
		if !nulls.Contains(uint32(r)) {
			cells[r] = rest[:size:size]
		}
		rest = rest[size:]
	}
	if len(rest) != 0 {
		return nil, corruptf("column %q: %d trailing bytes", fd.Name, len(rest))
	}
	if !nulls.IsEmpty() && int(nulls.Maximum()) >= rows {
		return nil, corruptf("column %q: null row outside table", fd.Name)
	}
	return column.New(fd.Name, fd.Tag, cells, nulls), nil
}

// batch decodes the named columns (all when names is empty) without
// applying the deletion bitmap.
func (f *tableFile) batch(names []string) (*column.Batch, error) {
	idx, err := f.columnIndexes(names)
	if err != nil {
		return nil, err
	}
	cols := make([]*column.Column, len(idx))
	for j, i := range idx {
		if cols[j], err = f.column(i); err != nil {
			return nil, err
		}
	}
	return column.NewBatch(cols...)
}

func (f *tableFile) columnIndexes(names []string) ([]int, error) {
	if len(names) == 0 {
		idx := make([]int, len(f.fields))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	idx := make([]int, 0, len(names))
	for _, n := range names {
		i := f.fieldIndex(n)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, n)
		}
		if !slices.Contains(idx, i) {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

// live returns the rows not marked deleted.
func (f *tableFile) live() *roaring.Bitmap {
	all := roaring.New()
	all.AddRange(0, f.header.Rows)
	all.AndNot(f.deleted)
	return all
}

var errTruncated = errors.New("truncated")

func appendString(dst []byte, s string) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

func readUvarint(b []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, b, errTruncated
	}
	return v, b[n:], nil
}

func readString(b []byte) (string, []byte, error) {
	n, rest, err := readUvarint(b)
	if err != nil {
		return "", b, err
	}
	if n > uint64(len(rest)) {
		return "", b, errTruncated
	}
	return string(rest[:n]), rest[n:], nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
