package region_test

import (
	"testing"

	"github.com/dargueta/ionicfs/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkChainFollowsContinuationPointers(t *testing.T) {
	dev := newTestDevice(t, 4)

	var r2 [region.Size]byte
	r2[0] = 0x03
	require.NoError(t, dev.WriteRegion(2, r2))
	require.NoError(t, region.PatchContinuation(&dev, 2, 3))

	var r3 [region.Size]byte
	r3[0] = 0x03
	require.NoError(t, dev.WriteRegion(3, r3))

	links, err := region.WalkChain(&dev, 2, func(b byte) bool { return b == 0x03 })
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.EqualValues(t, 2, links[0].Region)
	assert.EqualValues(t, 3, links[0].Continuation())
	assert.EqualValues(t, 3, links[1].Region)
	assert.EqualValues(t, 0, links[1].Continuation())
}

func TestWalkChainAbortsOnTypeMismatch(t *testing.T) {
	dev := newTestDevice(t, 2)

	var r1 [region.Size]byte
	r1[0] = 0x01 // DELETED, not FILE
	require.NoError(t, dev.WriteRegion(1, r1))

	_, err := region.WalkChain(&dev, 1, func(b byte) bool { return b == 0x03 })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filesystem corruption detected")
}
