// Package minio provides a BlobStore on MinIO and other S3-compatible
// object stores (Ceph, Garage, SeaweedFS) using the MinIO Go client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "annotations", "library/")
//	lib, err := annostore.New("", annostore.WithStore(store))
//
// It has no AWS SDK dependency, which suits air-gapped deployments.
package minio
