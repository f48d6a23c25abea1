package formatengine_test

import (
	"testing"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/directory"
	"github.com/dargueta/ionicfs/formatengine"
	"github.com/dargueta/ionicfs/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

type fixedClock struct{ t uint64 }

func (c fixedClock) Now() uint64 { return c.t }

func newDevice(t *testing.T, totalRegions uint32) region.Device {
	t.Helper()
	backing := make([]byte, int(totalRegions)*region.Size)
	stream := bytesextra.NewReadWriteSeeker(backing)
	return region.NewDevice(stream, totalRegions)
}

func TestFormatLaysOutPartitionsSequentially(t *testing.T) {
	dev := newDevice(t, 2048)

	info, err := formatengine.Format(&dev, []formatengine.PartitionRequest{
		{Name: "system", SizeRegions: 512},
		{Name: "data", SizeRegions: 1024},
	}, fixedClock{100}, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 2048, info.TotalRegions)
	assert.EqualValues(t, 1048576, info.DiskSize)
	assert.Equal(t, "001", info.Version)

	assert.Equal(t, "system", info.Partitions[0].Name)
	assert.EqualValues(t, 1, info.Partitions[0].PartitionRegion)
	assert.EqualValues(t, 512, info.Partitions[0].PartitionSize)

	assert.Equal(t, "data", info.Partitions[1].Name)
	assert.EqualValues(t, 513, info.Partitions[1].PartitionRegion)
	assert.EqualValues(t, 1024, info.Partitions[1].PartitionSize)
}

func TestFormatWritesRootDirectoryWithSelfEntry(t *testing.T) {
	dev := newDevice(t, 64)

	_, err := formatengine.Format(&dev, []formatengine.PartitionRequest{
		{Name: "data", SizeRegions: 30},
	}, fixedClock{1}, nil)
	require.NoError(t, err)

	dir, err := directory.Parse(&dev, 1)
	require.NoError(t, err)
	require.Len(t, dir.Entries, 1)
	assert.Equal(t, ".", dir.Entries[0].Name)
	assert.EqualValues(t, 1, dir.Entries[0].Region)
}

func TestFormatLeavesOtherPartitionRegionsEmpty(t *testing.T) {
	dev := newDevice(t, 64)

	_, err := formatengine.Format(&dev, []formatengine.PartitionRequest{
		{Name: "data", SizeRegions: 10},
	}, fixedClock{1}, nil)
	require.NoError(t, err)

	data, err := dev.ReadRegion(5)
	require.NoError(t, err)
	assert.Equal(t, ionicfs.RegionEmpty, data[0])
}

func TestFormatRejectsOversizedPartitions(t *testing.T) {
	dev := newDevice(t, 8)

	_, err := formatengine.Format(&dev, []formatengine.PartitionRequest{
		{Name: "data", SizeRegions: 100},
	}, fixedClock{1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no space")
}

func TestParseSizeHandlesLiteralAndPercent(t *testing.T) {
	n, err := formatengine.ParseSize("512", 2046)
	require.NoError(t, err)
	assert.EqualValues(t, 512, n)

	n, err = formatengine.ParseSize("50%", 2000)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, n)

	_, err = formatengine.ParseSize("nonsense", 2000)
	require.Error(t, err)
}

func TestGetPresetKnownAndUnknown(t *testing.T) {
	preset, err := formatengine.GetPreset("system")
	require.NoError(t, err)
	assert.Equal(t, "system", preset.Name)
	assert.EqualValues(t, 25, preset.Percent)

	_, err = formatengine.GetPreset("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no partition preset")
}
