// Package region implements region-addressed I/O over a disk image stream.
//
// A region is IonicFS's fixed allocation unit: 512 bytes, addressed by a
// 32-bit region number. Everything above this layer — the superblock codec,
// the directory codec, the allocator, and the file engine — reads and writes
// whole regions through a Device and never touches the underlying stream
// directly.
package region

import (
	"fmt"
)

// Size is the fixed size of a region, in bytes.
const Size = 512

// ID identifies a region by number. It is deliberately a distinct type from
// ByteOffset so the two can't be interchanged by accident, the bug class the
// original C++ tool suffered from when both were plain uint32_t.
type ID uint32

// ByteOffset is an absolute byte offset into a disk image.
type ByteOffset int64

// ToByteOffset converts a region number to the absolute byte offset of its
// first byte.
func (r ID) ToByteOffset() ByteOffset {
	return ByteOffset(r) * Size
}

func (r ID) String() string {
	return fmt.Sprintf("region %d", uint32(r))
}
