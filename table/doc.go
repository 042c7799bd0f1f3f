// Package table is the columnar storage engine behind annostore datasets.
//
// A table is one immutable ".ptb" file in a blobstore.BlobStore: a
// checksummed header, a schema, one block-compressed chunk per column and a
// roaring bitmap of soft-deleted rows. Every write produces a complete new
// file and publishes it with a single atomic Put; there is no log, no index
// and no query planner. Scans decode only the columns they need and filter
// rows with simple string predicates.
//
// Tables of a dataset are partitioned hive-style by split:
//
//	split=train/items.ptb
//	split=train/objects.ptb
//	split=val/objects.ptb
//
// Discover builds a View over those fragments that scans one logical table
// across partitions and exposes the partition value as a "split" column.
package table
