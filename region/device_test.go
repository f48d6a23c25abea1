package region_test

import (
	"testing"

	"github.com/dargueta/ionicfs/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newTestDevice(t *testing.T, regionCount int) region.Device {
	t.Helper()
	backing := make([]byte, regionCount*region.Size)
	stream := bytesextra.NewReadWriteSeeker(backing)
	return region.NewDevice(stream, uint32(regionCount))
}

func TestWriteThenReadRegionRoundTrips(t *testing.T) {
	dev := newTestDevice(t, 4)

	var payload [region.Size]byte
	payload[0] = 0x03
	copy(payload[1:], []byte("hello region"))

	require.NoError(t, dev.WriteRegion(2, payload))

	got, err := dev.ReadRegion(2)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadRegionOutOfBoundsIsCorruption(t *testing.T) {
	dev := newTestDevice(t, 2)

	_, err := dev.ReadRegion(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filesystem corruption detected")
}

func TestPatchAtRewritesContinuationPointer(t *testing.T) {
	dev := newTestDevice(t, 2)

	var payload [region.Size]byte
	payload[0] = 0x02
	require.NoError(t, dev.WriteRegion(0, payload))

	require.NoError(t, dev.PatchAt(region.ID(0).ToByteOffset()+508, []byte{7, 0, 0, 0}))

	got, err := dev.ReadRegion(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, got[508:512])
}

func TestResizeGrowsWithZeroedRegions(t *testing.T) {
	dev := newTestDevice(t, 1)

	require.NoError(t, dev.Resize(3))
	assert.EqualValues(t, 3, dev.TotalRegions)

	got, err := dev.ReadRegion(2)
	require.NoError(t, err)
	assert.Equal(t, [region.Size]byte{}, got)
}

func TestResizeRefusesToShrink(t *testing.T) {
	dev := newTestDevice(t, 3)

	err := dev.Resize(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot shrink")
}
