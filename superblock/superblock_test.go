package superblock_test

import (
	"testing"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/region"
	"github.com/dargueta/ionicfs/superblock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newDevice(t *testing.T, totalRegions uint32) region.Device {
	t.Helper()
	backing := make([]byte, int(totalRegions)*region.Size)
	stream := bytesextra.NewReadWriteSeeker(backing)
	return region.NewDevice(stream, totalRegions)
}

func TestFormatThenLoadRoundTrips(t *testing.T) {
	dev := newDevice(t, 2048)

	want := [ionicfs.MaxPartitions]ionicfs.Partition{
		{Name: "system", PartitionRegion: 1, PartitionSize: 512},
		{Name: "data", PartitionRegion: 513, PartitionSize: 1024},
	}

	require.NoError(t, superblock.Format(&dev, want))

	info, err := superblock.Load(&dev)
	require.NoError(t, err)

	assert.EqualValues(t, 2048, info.TotalRegions)
	assert.EqualValues(t, 2048*region.Size, info.DiskSize)
	assert.Equal(t, "001", info.Version)

	assert.True(t, info.Partitions[0].Usable())
	assert.Equal(t, "system", info.Partitions[0].Name)
	assert.EqualValues(t, 1, info.Partitions[0].PartitionRegion)
	assert.EqualValues(t, 512, info.Partitions[0].PartitionSize)

	assert.True(t, info.Partitions[1].Usable())
	assert.Equal(t, "data", info.Partitions[1].Name)

	assert.False(t, info.Partitions[2].Usable())
	assert.False(t, info.Partitions[3].Usable())
}

// TestFormatAllowsPartitionStartingAtRegionOne confirms a partition may claim
// region 1 immediately after the superblock, matching spec.md scenario S1 and
// the original tool's format.cpp (currentRegion starts at 0x1). Writing such
// a partition's root directory clobbers the version field's zero-padded tail
// that spilled into region 1, but Load never reads region 1, so it still
// round-trips cleanly.
func TestFormatAllowsPartitionStartingAtRegionOne(t *testing.T) {
	dev := newDevice(t, 64)

	parts := [ionicfs.MaxPartitions]ionicfs.Partition{
		{Name: "system", PartitionRegion: 1, PartitionSize: 10},
	}

	require.NoError(t, superblock.Format(&dev, parts))

	info, err := superblock.Load(&dev)
	require.NoError(t, err)
	assert.Equal(t, "001", info.Version)
	assert.True(t, info.Partitions[0].Usable())
	assert.EqualValues(t, 1, info.Partitions[0].PartitionRegion)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	dev := newDevice(t, 4)

	region0 := [region.Size]byte{}
	require.NoError(t, dev.WriteRegion(0, region0))
	require.NoError(t, dev.WriteRegion(1, region0))

	_, err := superblock.Load(&dev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad superblock")
}

func TestWriteBootCodeRejectsEmptyAndOversized(t *testing.T) {
	dev := newDevice(t, 4)

	err := superblock.WriteBootCode(&dev, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	oversized := make([]byte, ionicfs.MaxBootFileSize+1)
	err = superblock.WriteBootCode(&dev, oversized)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestWriteBootCodeLeavesPartitionTableIntact(t *testing.T) {
	dev := newDevice(t, 64)
	parts := [ionicfs.MaxPartitions]ionicfs.Partition{
		{Name: "system", PartitionRegion: 2, PartitionSize: 10},
	}
	require.NoError(t, superblock.Format(&dev, parts))

	require.NoError(t, superblock.WriteBootCode(&dev, []byte("BOOTSTRAP")))

	info, err := superblock.Load(&dev)
	require.NoError(t, err)
	assert.Equal(t, "system", info.Partitions[0].Name)
	assert.Equal(t, byte('B'), info.BootCode[0])
}
