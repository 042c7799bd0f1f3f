package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedCell is returned when stored bytes do not match the layout
	// of their type tag.
	ErrMalformedCell = errors.New("malformed cell")

	// ErrUnknownTag is returned for type tags missing from the registry.
	ErrUnknownTag = errors.New("unknown type tag")

	// ErrCorruptCell matches every *CorruptCellError via errors.Is.
	ErrCorruptCell = errors.New("corrupt cell")
)

// CorruptCellError reports a cell that failed to decode.
//
// The original underlying error can be accessed via errors.Unwrap.
type CorruptCellError struct {
	Column string
	Row    int
	Tag    string
	cause  error
}

// NewCorruptCellError wraps cause with the location of the offending cell.
func NewCorruptCellError(column string, row int, tag string, cause error) *CorruptCellError {
	return &CorruptCellError{Column: column, Row: row, Tag: tag, cause: cause}
}

func (e *CorruptCellError) Error() string {
	return fmt.Sprintf("corrupt cell: column %q row %d (%s): %v", e.Column, e.Row, e.Tag, e.cause)
}

func (e *CorruptCellError) Unwrap() error { return e.cause }

// Is makes errors.Is(err, ErrCorruptCell) hold for every CorruptCellError.
func (e *CorruptCellError) Is(target error) bool { return target == ErrCorruptCell }

// malformed keeps only ErrMalformedCell in the chain: a stored value that
// breaks an invariant is corrupt data, not an invalid argument.
func malformed(tag string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedCell, tag, err)
}
