// Package s3 stores dumped fields in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("fields/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := f.SaveBlob(ctx, store, "velocity.fld"); err != nil {
//	    return err
//	}
//
// # Features
//
//   - Range reads, so loads stream the dump instead of buffering it
//   - Multipart uploads for large fields
//   - CRC32C integrity checks on uploads
//   - A configurable key prefix for sharing a bucket
package s3
