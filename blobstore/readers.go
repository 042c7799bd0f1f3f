package blobstore

import (
	"bytes"
	"errors"
	"io"
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// bytesBlob serves reads from an in-memory slice.
type bytesBlob struct {
	data []byte
}

func (b *bytesBlob) readAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *bytesBlob) readRange(off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= int64(len(b.data)) {
		return nil, io.EOF
	}
	end := min(off+length, int64(len(b.data)))
	return io.NopCloser(bytes.NewReader(b.data[off:end])), nil
}
