package region

import (
	"encoding/binary"

	"github.com/dargueta/ionicfs/errors"
)

// ContinuationOffset is the offset within a region, relative to the start of
// the region, of its 4-byte little-endian continuation pointer.
const ContinuationOffset = 508

// Link is one region visited while walking a chain.
type Link struct {
	Region ID
	Data   [Size]byte
}

// Continuation returns the next region in this link's chain, or 0 if this
// link terminates it.
func (l Link) Continuation() ID {
	return ID(binary.LittleEndian.Uint32(l.Data[ContinuationOffset:]))
}

// WalkChain follows the continuation pointer at offset 508 starting at
// start, reading one full region per step, until it reaches a region whose
// pointer is 0. It is shared by the directory codec (multi-region
// directories) and the file engine (multi-region files); typeCheck is
// called with each region's first byte and the walk aborts with Corruption
// the moment a region doesn't match what the caller expected to find there.
func WalkChain(dev *Device, start ID, typeCheck func(byte) bool) ([]Link, error) {
	var links []Link
	current := start

	for {
		data, err := dev.ReadRegion(current)
		if err != nil {
			return nil, err
		}
		if !typeCheck(data[0]) {
			return nil, errors.ErrCorruption.WithMessage(current.String())
		}

		link := Link{Region: current, Data: data}
		links = append(links, link)

		next := link.Continuation()
		if next == 0 {
			return links, nil
		}
		current = next
	}
}

// PatchContinuation rewrites only the continuation pointer of region id,
// leaving the rest of the region untouched.
func PatchContinuation(dev *Device, id ID, next ID) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(next))
	return dev.PatchAt(id.ToByteOffset()+ContinuationOffset, buf[:])
}
