// Package persistence implements the binary stream format used to dump and load
// field chains.
//
// A stream is a fixed file header followed by one self-describing record per
// layer, outermost layer first:
//
//	file header   magic "FLDG", version, flags, depth
//	layer header  kind, flags, CRC32 of payload, payload size
//	payload       layer specific bytes
//
// All integers are little-endian. Storage-bearing layers write their values as
// scalar blocks carrying an explicit numeric width tag, so a reader whose leaf
// uses a different scalar type converts element by element instead of
// reinterpreting bytes.
//
// The Encoder and Decoder handle headers, sizes and checksums; layers only see
// a Writer or Reader that is bounded to their own payload.
package persistence
