package persistence

import "unsafe"

// nativeLittleEndian gates the zero-copy paths that move scalar slices to and
// from the stream as raw bytes. On big-endian hosts every element goes through
// the explicit encoder instead.
var nativeLittleEndian = isLittleEndian()

func isLittleEndian() bool {
	var test uint16 = 0x0001
	return *(*byte)(unsafe.Pointer(&test)) == 1
}

// scalarBytes aliases the backing array of values as bytes.
func scalarBytes[S Scalar](values []S) []byte {
	if len(values) == 0 {
		return nil
	}
	var zero S
	size := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(values))), len(values)*size)
}
