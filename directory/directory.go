// Package directory packs and unpacks directory entries inside a chain of
// directory-type regions.
package directory

import (
	"encoding/binary"
	"fmt"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/errors"
	"github.com/dargueta/ionicfs/region"
)

// entryHeaderSize is the number of bytes preceding the name in a live
// (directory/file) entry: the type byte plus three 8-byte timestamps.
const entryHeaderSize = 1 + 8 + 8 + 8

// minEntrySize is the smallest possible live entry: header, a 1-byte name,
// the name terminator, and the 4-byte region number.
const minEntrySize = entryHeaderSize + 1 + 1 + 4

func isDirectoryRegion(b byte) bool {
	return b == ionicfs.RegionDirectory
}

// EntrySize returns the on-disk size of a live entry with the given name.
func EntrySize(name string) int {
	return entryHeaderSize + len(name) + 1 + 4
}

// Parse walks the directory chain starting at start and decodes every live
// entry it contains. Tombstones and end-of-list markers are not returned.
func Parse(dev *region.Device, start region.ID) (ionicfs.Directory, error) {
	dir := ionicfs.Directory{Region: start}

	links, err := region.WalkChain(dev, start, isDirectoryRegion)
	if err != nil {
		return dir, err
	}

	for _, link := range links {
		offset := 1
		data := link.Data[:]

		for offset < region.ContinuationOffset {
			entryType := data[offset]

			switch entryType {
			case ionicfs.EntryEnd:
				offset = region.ContinuationOffset // stop this region
			case ionicfs.EntryTombstone:
				offset++
			case ionicfs.EntryDirectory, ionicfs.EntryFile:
				if offset+minEntrySize > region.ContinuationOffset+1 {
					offset = region.ContinuationOffset
					break
				}
				entry, consumed, err := decodeEntry(data, offset)
				if err != nil {
					return dir, err
				}
				dir.Entries = append(dir.Entries, entry)
				offset += consumed
			default:
				// Unrecognized tag: skip it and keep scanning, per spec.
				offset++
			}
		}
	}

	return dir, nil
}

func decodeEntry(data []byte, offset int) (ionicfs.DirectoryEntry, int, error) {
	pos := offset
	entryType := data[pos]
	pos++

	lastAccessed := binary.LittleEndian.Uint64(data[pos : pos+8])
	pos += 8
	lastModified := binary.LittleEndian.Uint64(data[pos : pos+8])
	pos += 8
	created := binary.LittleEndian.Uint64(data[pos : pos+8])
	pos += 8

	nameStart := pos
	for pos < region.ContinuationOffset && data[pos] != 0x00 {
		pos++
	}
	if pos >= region.ContinuationOffset {
		return ionicfs.DirectoryEntry{}, 0,
			errors.ErrCorruption.WithMessage("directory entry name not terminated")
	}
	name := string(data[nameStart:pos])
	pos++ // consume the NUL terminator

	if pos+4 > region.ContinuationOffset+1 {
		return ionicfs.DirectoryEntry{}, 0,
			errors.ErrCorruption.WithMessage("directory entry truncated before region number")
	}
	regionNum := binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4

	entry := ionicfs.DirectoryEntry{
		Name:         name,
		IsDirectory:  entryType == ionicfs.EntryDirectory,
		Region:       region.ID(regionNum),
		LastAccessed: lastAccessed,
		LastModified: lastModified,
		Created:      created,
	}
	return entry, pos - offset, nil
}

// FindFree scans the directory chain starting at start for a slot at least
// sizeAtLeast bytes long, extending the chain with a freshly allocated
// region if none is found. allocate is called to obtain a new region number
// when the chain must grow; it is expected to come from the allocator
// package, threaded in rather than imported directly to avoid a package
// cycle between directory and allocator.
func FindFree(
	dev *region.Device,
	start region.ID,
	sizeAtLeast int,
	allocate func() (region.ID, error),
) (region.ByteOffset, error) {
	current := start

	for {
		data, err := dev.ReadRegion(current)
		if err != nil {
			return 0, err
		}
		if data[0] != ionicfs.RegionDirectory {
			return 0, errors.ErrCorruption.WithMessage(current.String())
		}

		offset := 1
		for offset < region.ContinuationOffset {
			entryType := data[offset]
			if entryType == ionicfs.EntryEnd || entryType == ionicfs.EntryTombstone {
				if offset+sizeAtLeast <= region.ContinuationOffset {
					return current.ToByteOffset() + region.ByteOffset(offset), nil
				}
				break
			}

			_, consumed, err := decodeEntry(data[:], offset)
			if err != nil {
				return 0, err
			}
			offset += consumed
		}

		next := region.ID(binary.LittleEndian.Uint32(data[region.ContinuationOffset:]))
		if next != 0 {
			current = next
			continue
		}

		newRegion, err := allocate()
		if err != nil {
			return 0, err
		}

		var newData [region.Size]byte
		newData[0] = ionicfs.RegionDirectory
		if err := dev.WriteRegion(newRegion, newData); err != nil {
			return 0, err
		}
		if err := region.PatchContinuation(dev, current, newRegion); err != nil {
			return 0, err
		}

		return newRegion.ToByteOffset() + 1, nil
	}
}

// WriteEntry encodes entry at offset and writes it through dev. The caller
// must have already verified (via FindFree) that offset has room for the
// encoded entry.
func WriteEntry(dev *region.Device, offset region.ByteOffset, entry ionicfs.DirectoryEntry) error {
	entryType := ionicfs.EntryFile
	if entry.IsDirectory {
		entryType = ionicfs.EntryDirectory
	}

	buf := make([]byte, 0, EntrySize(entry.Name))
	buf = append(buf, entryType)

	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], entry.LastAccessed)
	buf = append(buf, ts[:]...)
	binary.LittleEndian.PutUint64(ts[:], entry.LastModified)
	buf = append(buf, ts[:]...)
	binary.LittleEndian.PutUint64(ts[:], entry.Created)
	buf = append(buf, ts[:]...)

	buf = append(buf, []byte(entry.Name)...)
	buf = append(buf, 0x00)

	var regionBuf [4]byte
	binary.LittleEndian.PutUint32(regionBuf[:], uint32(entry.Region))
	buf = append(buf, regionBuf[:]...)

	return dev.PatchAt(offset, buf)
}

// Eliminate tombstones the entry named name within the chain starting at
// start, by overwriting its type byte with EntryTombstone. It leaves the
// rest of the entry, and every later entry, untouched.
func Eliminate(dev *region.Device, start region.ID, name string) error {
	links, err := region.WalkChain(dev, start, isDirectoryRegion)
	if err != nil {
		return err
	}

	for _, link := range links {
		offset := 1
		data := link.Data[:]

		for offset < region.ContinuationOffset {
			entryType := data[offset]
			switch entryType {
			case ionicfs.EntryEnd:
				offset = region.ContinuationOffset
			case ionicfs.EntryTombstone:
				offset++
			case ionicfs.EntryDirectory, ionicfs.EntryFile:
				entry, consumed, err := decodeEntry(data, offset)
				if err != nil {
					return err
				}
				if entry.Name == name {
					return dev.PatchAt(
						link.Region.ToByteOffset()+region.ByteOffset(offset),
						[]byte{ionicfs.EntryTombstone},
					)
				}
				offset += consumed
			default:
				offset++
			}
		}
	}

	return errors.ErrNotFound.WithMessage(fmt.Sprintf("no such entry: %s", name))
}
