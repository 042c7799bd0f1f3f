// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.NewStoreFromConfig(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	lib, err := annostore.New("coco", annostore.WithStore(store))
//
// # Features
//
//   - Range reads for table chunks
//   - Multipart uploads (feature/s3/manager) for streaming writes
//   - CRC32C checksums on single-shot puts
//   - Automatic pagination for listing
package s3
