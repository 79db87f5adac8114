package threadjit

import "unsafe"

// unsafeBytesAt views length bytes starting at addr as a read-only slice.
// It is only ever used to memcmp a small, fixed number of bytes against
// the prologue pattern at a caller-supplied function entry address (see
// Splice), never to hand out a mutable view of someone else's memory.
func unsafeBytesAt(addr uintptr, length int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}
