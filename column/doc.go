// Package column batches annotation values into typed columns and back.
//
// A Column holds the encoded cells of one table column together with its
// type tag and a roaring bitmap of null rows. Columns are built from Go
// values (FromValues, Of, OfOptional, Strings, Int64s, ...) and
// materialised again with Values, Decode or the scalar accessors. Every
// decode failure is reported as a *codec.CorruptCellError naming the
// column and row.
//
// A Batch is an ordered set of equal-length columns, the unit read from and
// written to tables. Project degrades a batch to plain maps for analysis
// tooling; that path is lossy and never used to store data.
package column
