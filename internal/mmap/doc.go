// Package mmap maps field files into memory for read-only access.
//
// A Mapping exposes the file contents as a byte slice that stays valid until
// Close. The local blob store uses it so that loading a field reads straight
// from the page cache instead of copying the file through a buffer first.
//
// Mappings are safe for concurrent readers. Close must not race with reads.
package mmap
