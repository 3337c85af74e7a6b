// Package minio stores dumped fields on MinIO and other S3-compatible servers
// (Ceph, Garage, SeaweedFS) through the MinIO client.
//
// # Basic Usage
//
//	store, err := minio.Connect(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "fields",
//	})
//	if err != nil {
//	    return err
//	}
//	f, err := fieldgo.LoadBlob[grid](ctx, store, "velocity.fld")
//
// An existing *minio.Client can be wrapped with NewStore instead.
package minio
