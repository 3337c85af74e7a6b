// Package blobstore provides storage for dumped fields.
//
// A BlobStore holds each field dump as a named, immutable blob. The root
// package loads a field from a blob with LoadBlob and stores one with
// Field.SaveBlob; both accept any implementation of the interface, and
// implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system, read through mmap
//   - MemoryStore: process-local storage, mostly for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: any S3-compatible server through the MinIO client
//
// # Custom Implementations
//
// Blobs are read with ReadRange so that remote stores can stream the dump
// instead of buffering it. Stores whose blobs are directly addressable may
// additionally implement Mappable.
package blobstore
