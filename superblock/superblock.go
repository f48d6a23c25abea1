// Package superblock encodes and decodes the boot area, partition table,
// magic, and version fields that occupy region 0 of an IonicFS image. The
// encoded sequence is 518 bytes long and spills 6 bytes past the end of
// region 0, but every byte this package ever validates on Load fits inside
// region 0 itself — see encodedSize and meaningfulSize below.
package superblock

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/errors"
	"github.com/dargueta/ionicfs/region"
	"github.com/noxer/bytewriter"
)

// partitionRecordSize is the on-disk size of one Partition record.
const partitionRecordSize = ionicfs.PartitionNameSize + 4 + 4

// encodedSize is the total length of the encoded superblock sequence: boot
// code, four partition records, magic, and the 9-byte version field. It
// spills six bytes past the end of region 0 into region 1 — the trailing
// zero padding of the version field, offsets 512..517.
const encodedSize = ionicfs.BootCodeSize + ionicfs.MaxPartitions*partitionRecordSize + len(ionicfs.Magic) + 9

// meaningfulSize is the number of leading bytes of the encoded sequence that
// are ever read back by Load: boot code, partition table, magic, and the
// version field's significant prefix ("001", not its zero padding). It is
// exactly region.Size, so Load never needs to read region 1 at all. Region 1
// is ordinary partition space; the version field's zero padding that spills
// into it is written once by Format for bit-exact compliance and is free to
// be overwritten the moment a partition claims region 1, the same way the
// original tool lets that happen rather than reserving the region.
const meaningfulSize = ionicfs.BootCodeSize + ionicfs.MaxPartitions*partitionRecordSize + len(ionicfs.Magic) + len(ionicfs.VersionString)

// ReservedRegions is the number of regions permanently reserved for the
// superblock header itself. Only region 0 qualifies; region 1 is ordinary
// partition space and may be a partition's first region.
const ReservedRegions = 1

func encodePartitionName(name string) [ionicfs.PartitionNameSize]byte {
	var out [ionicfs.PartitionNameSize]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], name)
	if len(name) > ionicfs.PartitionNameSize-1 {
		copy(out[:ionicfs.PartitionNameSize-1], name)
	}
	out[ionicfs.PartitionNameSize-1] = 0x00
	return out
}

func decodePartitionName(raw []byte) string {
	end := bytes.IndexByte(raw, 0x00)
	if end < 0 {
		end = len(raw)
	}
	return string(bytes.TrimRight(raw[:end], " "))
}

func encodePartition(w io.Writer, p ionicfs.Partition) error {
	name := encodePartitionName(p.Name)
	if _, err := w.Write(name[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(p.PartitionRegion)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, p.PartitionSize)
}

func decodePartition(raw []byte) ionicfs.Partition {
	name := decodePartitionName(raw[:ionicfs.PartitionNameSize])
	regionNum := binary.LittleEndian.Uint32(raw[ionicfs.PartitionNameSize : ionicfs.PartitionNameSize+4])
	size := binary.LittleEndian.Uint32(raw[ionicfs.PartitionNameSize+4 : ionicfs.PartitionNameSize+8])
	return ionicfs.Partition{
		Name:            name,
		PartitionRegion: region.ID(regionNum),
		PartitionSize:   size,
	}
}

func encodeVersion() [9]byte {
	var out [9]byte
	copy(out[:], ionicfs.VersionString)
	return out
}

// Format writes the superblock for partitions into dev. partitions must have
// exactly ionicfs.MaxPartitions entries; unused slots are zero-valued
// (PartitionSize == 0). A partition's PartitionRegion may be 1: only region 0
// is reserved, so the first partition is free to start immediately after it.
func Format(dev *region.Device, partitions [ionicfs.MaxPartitions]ionicfs.Partition) error {
	buf := make([]byte, encodedSize)
	w := bytewriter.New(buf)

	bootCode := make([]byte, ionicfs.BootCodeSize)
	if _, err := w.Write(bootCode); err != nil {
		return errors.ErrIoFailure.WrapError(err)
	}

	for _, p := range partitions {
		if err := encodePartition(w, p); err != nil {
			return errors.ErrIoFailure.WrapError(err)
		}
	}

	if _, err := w.Write([]byte(ionicfs.Magic)); err != nil {
		return errors.ErrIoFailure.WrapError(err)
	}

	version := encodeVersion()
	if _, err := w.Write(version[:]); err != nil {
		return errors.ErrIoFailure.WrapError(err)
	}

	return writeEncodedSuperblock(dev, buf)
}

func writeEncodedSuperblock(dev *region.Device, buf []byte) error {
	var region0 [region.Size]byte
	copy(region0[:], buf[:region.Size])
	if err := dev.WriteRegion(0, region0); err != nil {
		return err
	}

	var region1 [region.Size]byte
	copy(region1[:], buf[region.Size:])
	return dev.WriteRegion(1, region1)
}

// Load reads and validates the superblock, returning the parsed drive
// information. It fails with BadSuperblock if the magic or version fields
// don't match what this implementation writes. It reads only region 0: every
// field Load validates — boot code, partition table, magic, and the
// version's significant prefix — fits inside region 0's 512 bytes. It never
// reads region 1, so a partition that has since claimed region 1 (clobbering
// the version field's zero-padded tail that once spilled there) can't break
// a later Load.
func Load(dev *region.Device) (ionicfs.DriveInformation, error) {
	var info ionicfs.DriveInformation

	buf, err := dev.ReadRegion(0)
	if err != nil {
		return info, err
	}

	copy(info.BootCode[:], buf[:ionicfs.BootCodeSize])

	offset := ionicfs.BootCodeSize
	for i := 0; i < ionicfs.MaxPartitions; i++ {
		info.Partitions[i] = decodePartition(buf[offset : offset+partitionRecordSize])
		offset += partitionRecordSize
	}

	magic := string(buf[offset : offset+len(ionicfs.Magic)])
	offset += len(ionicfs.Magic)
	if magic != ionicfs.Magic {
		return info, errors.ErrBadSuperblock.WithMessage(
			fmt.Sprintf("bad magic: got %q", magic))
	}

	info.Version = string(buf[offset : offset+len(ionicfs.VersionString)])
	if info.Version != ionicfs.VersionString {
		return info, errors.ErrBadSuperblock.WithMessage(
			fmt.Sprintf("unsupported version: got %q", info.Version))
	}

	info.TotalRegions = dev.TotalRegions
	info.DiskSize = int64(dev.TotalRegions) * region.Size
	return info, nil
}

// WriteBootCode overwrites the boot area (the first 400 bytes of region 0)
// in place, leaving the partition table, magic, and version untouched. It
// rejects an empty or oversized payload.
func WriteBootCode(dev *region.Device, bootCode []byte) error {
	if len(bootCode) == 0 {
		return errors.ErrArgError.WithMessage("boot file is empty")
	}
	if len(bootCode) > ionicfs.MaxBootFileSize {
		return errors.ErrNoSpace.WithMessage(
			fmt.Sprintf("boot file exceeds %d bytes", ionicfs.MaxBootFileSize))
	}

	padded := make([]byte, ionicfs.BootCodeSize)
	copy(padded, bootCode)
	return dev.PatchAt(0, padded)
}
