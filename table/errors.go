package table

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt is returned when a table file fails validation.
	ErrCorrupt = errors.New("table: corrupt file")

	// ErrClosed is returned by operations on a closed DB.
	ErrClosed = errors.New("table: db closed")

	// ErrTableNotFound is returned when a table file does not exist.
	ErrTableNotFound = errors.New("table: not found")

	// ErrTableExists is returned by CreateTable for an existing table.
	ErrTableExists = errors.New("table: already exists")

	// ErrInvalidName is returned for table names that are empty, absolute or
	// contain "..".
	ErrInvalidName = errors.New("table: invalid name")

	// ErrUnknownColumn is returned when a query names a column the table
	// does not have.
	ErrUnknownColumn = errors.New("table: unknown column")
)

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
