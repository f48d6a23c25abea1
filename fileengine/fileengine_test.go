package fileengine_test

import (
	"testing"

	ionicfs "github.com/dargueta/ionicfs"
	"github.com/dargueta/ionicfs/directory"
	"github.com/dargueta/ionicfs/fileengine"
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

func newRootPartition(t *testing.T, dev *region.Device, rootRegion region.ID, size uint32) ionicfs.Partition {
	t.Helper()
	var data [region.Size]byte
	data[0] = ionicfs.RegionDirectory
	require.NoError(t, dev.WriteRegion(rootRegion, data))
	return ionicfs.Partition{Name: "data", PartitionRegion: rootRegion, PartitionSize: size}
}

func mkdir(t *testing.T, dev *region.Device, partition ionicfs.Partition, parentRegion region.ID, newRegion region.ID, name string) {
	t.Helper()
	var data [region.Size]byte
	data[0] = ionicfs.RegionDirectory
	require.NoError(t, dev.WriteRegion(newRegion, data))

	noAlloc := func() (region.ID, error) { return 0, nil }
	offset, err := directory.FindFree(dev, parentRegion, directory.EntrySize(name), noAlloc)
	require.NoError(t, err)
	require.NoError(t, directory.WriteEntry(dev, offset, ionicfs.DirectoryEntry{
		Name: name, IsDirectory: true, Region: newRegion,
	}))
}

func TestCopySmallFileThenReadRoundTrips(t *testing.T) {
	dev := newDevice(t, 32)
	partition := newRootPartition(t, &dev, 2, 30)

	payload := []byte("Hello, IFS!\n")
	require.NoError(t, fileengine.CopyFile(&dev, partition, "/hello.txt", payload, fixedClock{42}))

	got, err := fileengine.ReadFile(&dev, partition, "/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, payload, got[:len(payload)])
	assert.Len(t, got, 507)
	for _, b := range got[len(payload):] {
		assert.Equal(t, byte(0), b)
	}
}

func TestCopyMultiRegionFileSpansExpectedChainLength(t *testing.T) {
	dev := newDevice(t, 32)
	partition := newRootPartition(t, &dev, 2, 30)

	payload := make([]byte, 1500)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	require.NoError(t, fileengine.CopyFile(&dev, partition, "/big.bin", payload, fixedClock{1}))

	got, err := fileengine.ReadFile(&dev, partition, "/big.bin")
	require.NoError(t, err)
	assert.Equal(t, payload, got[:len(payload)])
	assert.Len(t, got, 3*507)
}

func TestCopyIntoSubdirectory(t *testing.T) {
	dev := newDevice(t, 32)
	partition := newRootPartition(t, &dev, 2, 30)
	mkdir(t, &dev, partition, 2, 3, "docs")

	require.NoError(t, fileengine.CopyFile(&dev, partition, "/docs/hello.txt", []byte("hi"), fixedClock{1}))

	got, err := fileengine.ReadFile(&dev, partition, "/docs/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got[:2]))
}

func TestRemoveFileThenReallocateReusesRegion(t *testing.T) {
	dev := newDevice(t, 32)
	partition := newRootPartition(t, &dev, 2, 30)

	require.NoError(t, fileengine.CopyFile(&dev, partition, "/hello.txt", []byte("hi"), fixedClock{1}))

	data, err := dev.ReadRegion(3)
	require.NoError(t, err)
	assert.Equal(t, ionicfs.RegionFile, data[0])

	require.NoError(t, fileengine.RemoveFile(&dev, partition, "/hello.txt"))

	data, err = dev.ReadRegion(3)
	require.NoError(t, err)
	assert.Equal(t, ionicfs.RegionDeleted, data[0])

	require.NoError(t, fileengine.CopyFile(&dev, partition, "/hello.txt", []byte("hi"), fixedClock{2}))
	data, err = dev.ReadRegion(3)
	require.NoError(t, err)
	assert.Equal(t, ionicfs.RegionFile, data[0])
}

func TestRemoveDirectoryRecursivelyTombstonesEverything(t *testing.T) {
	dev := newDevice(t, 32)
	partition := newRootPartition(t, &dev, 2, 30)

	mkdir(t, &dev, partition, 2, 3, "a")
	mkdir(t, &dev, partition, 3, 4, "b")
	mkdir(t, &dev, partition, 4, 5, "c")
	require.NoError(t, fileengine.CopyFile(&dev, partition, "/a/b/c/file", []byte("x"), fixedClock{1}))

	require.NoError(t, fileengine.RemoveDirectory(&dev, partition, "/a"))

	for _, id := range []region.ID{3, 4, 5, 6} {
		data, err := dev.ReadRegion(id)
		require.NoError(t, err)
		assert.Equal(t, ionicfs.RegionDeleted, data[0], "region %d should be tombstoned", id)
	}

	_, err := dev.ReadRegion(0) // sanity: region 0, outside the partition and never written here, is still readable
	require.NoError(t, err)
}
