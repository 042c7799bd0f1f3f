package column

import "errors"

var (
	// ErrTypeMismatch is returned when a column is read as a type other than
	// its tag, or when values of different kinds are mixed in one column.
	ErrTypeMismatch = errors.New("column type mismatch")

	// ErrUntyped is returned by FromValues when no value carries a kind.
	ErrUntyped = errors.New("column type cannot be inferred")

	// ErrNull is returned by Decode when a column contains null rows.
	ErrNull = errors.New("column contains nulls")

	// ErrLengthMismatch is returned when the columns of a batch differ in length.
	ErrLengthMismatch = errors.New("column length mismatch")

	// ErrDuplicateColumn is returned when a batch repeats a column name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrSchemaMismatch is returned when batches with different columns are
	// concatenated.
	ErrSchemaMismatch = errors.New("batch schema mismatch")
)
