// Package ionicfs defines the on-disk entities shared by every layer of the
// filesystem: the partition table, directory entries, and the region-type
// and entry-type byte discriminants that every codec above the region layer
// reads and writes.
package ionicfs

import "github.com/dargueta/ionicfs/region"

// Region type discriminants: the first byte of every non-superblock region.
const (
	RegionEmpty     byte = 0x00
	RegionDeleted   byte = 0x01
	RegionDirectory byte = 0x02
	RegionFile      byte = 0x03
)

// Directory entry type discriminants: the first byte of a directory entry.
const (
	EntryEnd       byte = 0x00
	EntryTombstone byte = 0x01
	EntryDirectory byte = 0x02
	EntryFile      byte = 0x03
)

// Magic is the 5-byte superblock signature.
const Magic = "IONFS"

// VersionString is the on-disk version string, null-padded to 9 bytes.
const VersionString = "001"

// MaxPartitions is the fixed number of partition record slots in the
// superblock.
const MaxPartitions = 4

// PartitionNameSize is the on-disk size, in bytes, of a partition name
// including its NUL terminator.
const PartitionNameSize = 18

// BootCodeSize is the size, in bytes, of the boot code area at the start of
// the superblock.
const BootCodeSize = 400

// MaxBootFileSize is the largest boot payload the boot area can hold.
const MaxBootFileSize = BootCodeSize

// Partition describes one entry of the on-disk partition table.
type Partition struct {
	Name            string
	PartitionRegion region.ID
	PartitionSize   uint32
}

// Usable reports whether this partition slot is in use.
func (p Partition) Usable() bool {
	return p.PartitionSize > 0
}

// Contains reports whether id falls within this partition's region range.
func (p Partition) Contains(id region.ID) bool {
	return uint32(id) >= uint32(p.PartitionRegion) &&
		uint32(id) < uint32(p.PartitionRegion)+p.PartitionSize
}

// DriveInformation is the parsed contents of a superblock. It is read-only
// after being loaded; every mutation to a live image goes through a fresh
// read-modify-write cycle rather than mutating this struct in place.
type DriveInformation struct {
	DiskSize     int64
	TotalRegions uint32
	Partitions   [MaxPartitions]Partition
	BootCode     [BootCodeSize]byte
	Version      string
}

// DirectoryEntry is one decoded record from a directory region.
type DirectoryEntry struct {
	Name         string
	IsDirectory  bool
	Region       region.ID
	LastAccessed uint64
	LastModified uint64
	Created      uint64
}

// Directory is the fully parsed contents of a directory chain: the region
// the chain starts at, and every live entry found while walking it.
type Directory struct {
	Region  region.ID
	Entries []DirectoryEntry
}
