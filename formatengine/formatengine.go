// Package formatengine lays out a fresh partition table across a disk image
// and initializes each partition's root directory.
package formatengine

import (
	"fmt"
	"strconv"
	"strings"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/directory"
	"github.com/dargueta/ionicfs/errors"
	"github.com/dargueta/ionicfs/region"
	"github.com/dargueta/ionicfs/superblock"
)

// FirstUsableRegion is the first region number any partition may start at.
// Only region 0 is permanently reserved for the superblock; a partition is
// free to start at region 1, the same way the original tool's format.cpp
// does (it starts laying out partitions at currentRegion = 0x1).
const FirstUsableRegion = region.ID(superblock.ReservedRegions)

// SuperblockReservedRegions is the number of regions at the start of every
// image that can never belong to a partition.
const SuperblockReservedRegions uint32 = superblock.ReservedRegions

// PartitionRequest describes one partition to create during Format, already
// resolved to a concrete region count (see ParseSize for turning a user's
// "NN" or "NN%" input into one).
type PartitionRequest struct {
	Name        string
	SizeRegions uint32
}

// ProgressFunc is called as each partition is initialized, at every 25%
// milestone of its region count, matching the original tool's per-partition
// progress reporting.
type ProgressFunc func(partitionName string, percent int)

// ParseSize parses a partition size argument, which is either a literal
// region count ("512") or a percentage of usableRegions ("NN%"), matching
// the original tool's format prompt.
func ParseSize(spec string, usableRegions uint32) (uint32, error) {
	spec = strings.TrimSpace(spec)

	if strings.HasSuffix(spec, "%") {
		pct, err := strconv.ParseUint(strings.TrimSuffix(spec, "%"), 10, 32)
		if err != nil || pct == 0 || pct > 100 {
			return 0, errors.ErrArgError.WithMessage(
				fmt.Sprintf("invalid percentage: %q", spec))
		}
		return uint32(uint64(usableRegions) * pct / 100), nil
	}

	count, err := strconv.ParseUint(spec, 10, 32)
	if err != nil {
		return 0, errors.ErrArgError.WithMessage(
			fmt.Sprintf("invalid region count: %q", spec))
	}
	return uint32(count), nil
}

// Format lays out requests as sequential partitions starting at
// FirstUsableRegion, writes the superblock, and initializes each usable
// partition's root directory region plus a zeroed EMPTY region for the rest
// of its range. requests may have between 1 and ionicfs.MaxPartitions
// entries; unused slots are left unusable (PartitionSize == 0).
func Format(
	dev *region.Device,
	requests []PartitionRequest,
	clock ionicfs.Clock,
	progress ProgressFunc,
) (ionicfs.DriveInformation, error) {
	var info ionicfs.DriveInformation

	if len(requests) == 0 {
		return info, errors.ErrArgError.WithMessage("at least one partition is required")
	}
	if len(requests) > ionicfs.MaxPartitions {
		return info, errors.ErrArgError.WithMessage(
			fmt.Sprintf("at most %d partitions are supported", ionicfs.MaxPartitions))
	}

	var partitions [ionicfs.MaxPartitions]ionicfs.Partition
	cursor := FirstUsableRegion

	for i, req := range requests {
		if req.SizeRegions == 0 {
			continue
		}
		partitions[i] = ionicfs.Partition{
			Name:            req.Name,
			PartitionRegion: cursor,
			PartitionSize:   req.SizeRegions,
		}
		cursor = region.ID(uint32(cursor) + req.SizeRegions)
	}

	if uint32(cursor) > dev.TotalRegions {
		return info, errors.ErrNoSpace.WithMessage(
			fmt.Sprintf("partitions need %d regions, image has %d", cursor, dev.TotalRegions))
	}

	if err := superblock.Format(dev, partitions); err != nil {
		return info, err
	}

	for _, p := range partitions {
		if !p.Usable() {
			continue
		}
		if err := initializePartition(dev, p, clock, progress); err != nil {
			return info, err
		}
	}

	return superblock.Load(dev)
}

func initializePartition(dev *region.Device, p ionicfs.Partition, clock ionicfs.Clock, progress ProgressFunc) error {
	var root [region.Size]byte
	root[0] = ionicfs.RegionDirectory
	if err := dev.WriteRegion(p.PartitionRegion, root); err != nil {
		return err
	}

	now := clock.Now()
	noAlloc := func() (region.ID, error) {
		return 0, errors.ErrNoSpace.WithMessage("root directory region is full")
	}
	offset, err := directory.FindFree(dev, p.PartitionRegion, directory.EntrySize("."), noAlloc)
	if err != nil {
		return err
	}
	if err := directory.WriteEntry(dev, offset, ionicfs.DirectoryEntry{
		Name:         ".",
		IsDirectory:  true,
		Region:       p.PartitionRegion,
		LastAccessed: now,
		LastModified: now,
		Created:      now,
	}); err != nil {
		return err
	}

	total := p.PartitionSize
	lastMilestone := -1
	for i := uint32(1); i < total; i++ {
		var empty [region.Size]byte
		id := region.ID(uint32(p.PartitionRegion) + i)
		if err := dev.WriteRegion(id, empty); err != nil {
			return err
		}

		if progress != nil {
			milestone := int(i * 100 / total / 25)
			if milestone != lastMilestone {
				lastMilestone = milestone
				progress(p.Name, milestone*25)
			}
		}
	}

	if progress != nil {
		progress(p.Name, 100)
	}
	return nil
}
