// Package blobstore provides the storage abstraction under annostore
// datasets.
//
// A dataset is a tree of blobs: its metadata file (db.json, infer.json or
// embed.json), optional stats.json, and hive partitioned table files such
// as split=train/objects.ptb. BlobStore hides where that tree lives.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, mmap reads, atomic temp-file-and-rename writes
//   - MemoryStore: in-process map, for tests
//   - Prefixed: a sub-tree of another store
//   - s3.Store: Amazon S3 (AWS SDK v2)
//   - minio.Store: MinIO and other S3-compatible endpoints
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Put must be atomic: a concurrent Open sees either the old or the new
// content, never a partial write. Table writers rely on this for their
// reader isolation.
package blobstore
