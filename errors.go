package annostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/annostore/annotation"
	"github.com/hupe1980/annostore/codec"
	"github.com/hupe1980/annostore/column"
	"github.com/hupe1980/annostore/dataset"
	"github.com/hupe1980/annostore/table"
)

var (
	// ErrInvalidValue is returned when a value violates its construction
	// contract. It is a caller bug and never retried.
	ErrInvalidValue = errors.New("invalid value")

	// ErrCorruptCell is returned when stored bytes do not match the layout
	// their column promises.
	ErrCorruptCell = errors.New("corrupt cell")

	// ErrDatasetNotFound is returned when a dataset has no readable metadata
	// file.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrEmbeddingNotFound is returned when a dataset has no embedding
	// dataset or the embedding dataset has no row for the item.
	ErrEmbeddingNotFound = errors.New("embedding not found")

	// ErrItemNotFound is returned by SaveItemObjects when the item is in no
	// partition of the dataset.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemsNotFound is returned by LoadItems when the dataset has no items
	// table or the page is past the last item.
	ErrItemsNotFound = errors.New("items not found")

	// ErrStatsNotFound is returned when a dataset has no readable stats file.
	ErrStatsNotFound = errors.New("stats not found")

	// ErrStorageIO matches every *StorageIOError via errors.Is.
	ErrStorageIO = errors.New("storage io")
)

// StorageIOError reports a failure of the underlying blob store.
//
// The original underlying error can be accessed via errors.Unwrap.
type StorageIOError struct {
	Op    string
	cause error
}

func (e *StorageIOError) Error() string {
	return fmt.Sprintf("storage io: %s: %v", e.Op, e.cause)
}

func (e *StorageIOError) Unwrap() error { return e.cause }

// Is reports whether target is ErrStorageIO.
func (e *StorageIOError) Is(target error) bool { return target == ErrStorageIO }

var public = []error{
	ErrInvalidValue,
	ErrCorruptCell,
	ErrDatasetNotFound,
	ErrEmbeddingNotFound,
	ErrItemNotFound,
	ErrItemsNotFound,
	ErrStatsNotFound,
	ErrStorageIO,
}

// translateError maps package errors onto the public taxonomy. Errors that
// are already public, and context cancellation, pass through unchanged;
// anything unrecognised is a storage failure.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, p := range public {
		if errors.Is(err, p) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	// Stored data that does not match its declared layout.
	if errors.Is(err, codec.ErrCorruptCell) ||
		errors.Is(err, table.ErrCorrupt) ||
		errors.Is(err, column.ErrTypeMismatch) ||
		errors.Is(err, column.ErrNull) ||
		errors.Is(err, column.ErrSchemaMismatch) ||
		errors.Is(err, table.ErrUnknownColumn) {
		return fmt.Errorf("%w: %w", ErrCorruptCell, err)
	}

	// Checked after corrupt cells: a decode failure is never a caller error.
	if errors.Is(err, annotation.ErrInvalidValue) {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	if errors.Is(err, dataset.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrDatasetNotFound, err)
	}

	return &StorageIOError{Op: op, cause: err}
}
