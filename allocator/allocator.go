// Package allocator finds free regions within a partition. IonicFS has no
// persistent on-disk bitmap — a region's own type byte is its allocation
// state — so the only state this package keeps is the transient "excluded"
// set a caller uses to reserve several regions atomically before writing
// any of them.
package allocator

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/errors"
	"github.com/dargueta/ionicfs/region"
)

// Excluded tracks regions that are provisionally reserved within the
// current operation but not yet committed to disk, so a second call to
// FindFree in the same operation doesn't hand out the same region twice.
// It is sized to one bit per region in the owning partition and indexed by
// the region's offset from the partition's start.
type Excluded struct {
	bits      bitmap.Bitmap
	partition ionicfs.Partition
}

// NewExcluded returns an empty exclusion set sized for partition.
func NewExcluded(partition ionicfs.Partition) Excluded {
	return Excluded{
		bits:      bitmap.New(int(partition.PartitionSize)),
		partition: partition,
	}
}

func (e *Excluded) indexOf(id region.ID) int {
	return int(uint32(id) - uint32(e.partition.PartitionRegion))
}

// Add marks id as excluded.
func (e *Excluded) Add(id region.ID) {
	e.bits.Set(e.indexOf(id), true)
}

// Has reports whether id is currently excluded.
func (e *Excluded) Has(id region.ID) bool {
	return e.bits.Get(e.indexOf(id))
}

// FindFree scans partition's region range for the first EMPTY or DELETED
// region not present in excluded, reading only each region's first byte.
// excluded may be nil.
func FindFree(dev *region.Device, partition ionicfs.Partition, excluded *Excluded) (region.ID, error) {
	start := uint32(partition.PartitionRegion)
	end := start + partition.PartitionSize

	for raw := start; raw < end; raw++ {
		id := region.ID(raw)
		if excluded != nil && excluded.Has(id) {
			continue
		}

		data, err := dev.ReadAt(id.ToByteOffset(), 1)
		if err != nil {
			return 0, err
		}
		if data[0] == ionicfs.RegionEmpty || data[0] == ionicfs.RegionDeleted {
			return id, nil
		}
	}

	return 0, errors.ErrNoSpace.WithMessage(
		fmt.Sprintf("partition %q is full", partition.Name))
}

// ReserveMany calls FindFree count times, excluding each region found from
// the next call, so the caller can reserve several regions atomically
// before committing any of them. It never reads or writes disk state beyond
// the first-byte scan FindFree already performs.
func ReserveMany(dev *region.Device, partition ionicfs.Partition, count int) ([]region.ID, error) {
	excluded := NewExcluded(partition)
	ids := make([]region.ID, 0, count)

	for i := 0; i < count; i++ {
		id, err := FindFree(dev, partition, &excluded)
		if err != nil {
			return nil, err
		}
		excluded.Add(id)
		ids = append(ids, id)
	}

	return ids, nil
}
