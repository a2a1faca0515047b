package world

import (
	"testing"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(coord RegionCoord) *RegionStore {
	store := NewRegionStore()
	store.reset(coord, "test")
	return store
}

func TestRegionStoreGetSet(t *testing.T) {
	store := newTestStore(RegionCoord{0, 0})
	assert.Equal(t, StateLoading, store.State())

	pos := vec.Vec3{X: 3, Y: 100, Z: 7}
	data := block.BlockData{Direction: block.SideLeft, Level: 4}
	require.True(t, store.SetBlock(pos, block.WaterBlockID, data))
	assert.Equal(t, block.WaterBlockID, store.GetBlock(pos))
	assert.Equal(t, data, store.GetBlockData(pos))
	assert.Equal(t, int64(1), store.ChangeCount())

	// Ореол адресуется через -1 и Size
	require.True(t, store.SetBlock(vec.Vec3{X: -1, Y: 0, Z: SizeZ}, block.StoneBlockID, block.BlockData{}))
	assert.Equal(t, block.StoneBlockID, store.GetBlock(vec.Vec3{X: -1, Y: 0, Z: SizeZ}))

	// Вне сетки - воздух, запись отклоняется
	assert.Equal(t, block.AirBlockID, store.GetBlock(vec.Vec3{X: 0, Y: SizeY, Z: 0}))
	assert.Equal(t, block.AirBlockID, store.GetBlock(vec.Vec3{X: -2, Y: 0, Z: 0}))
	assert.False(t, store.SetBlock(vec.Vec3{X: 0, Y: -1, Z: 0}, block.StoneBlockID, block.BlockData{}))
}

func TestRegionStoreResetClears(t *testing.T) {
	store := newTestStore(RegionCoord{0, 0})
	store.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, block.StoneBlockID, block.BlockData{})
	store.Cell(0).publish(&Mesh{})

	store.reset(RegionCoord{4, -2}, "next")
	assert.Equal(t, RegionCoord{4, -2}, store.Coord())
	assert.Equal(t, "next", store.LoadID())
	assert.Equal(t, block.AirBlockID, store.GetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}))
	assert.Nil(t, store.Cell(0).Mesh())
	assert.Equal(t, int64(0), store.ChangeCount())
}

func TestSyncHaloFrom(t *testing.T) {
	west := newTestStore(RegionCoord{0, 0})
	east := newTestStore(RegionCoord{1, 0})

	west.SetBlock(vec.Vec3{X: SizeX - 1, Y: 40, Z: 3}, block.StoneBlockID, block.BlockData{})
	east.SetBlock(vec.Vec3{X: 0, Y: 41, Z: 9}, block.SandBlockID, block.BlockData{})

	// Восточный сосед лежит со сдвигом (+1, 0) от западного
	assert.True(t, west.syncHaloFrom(east, 1, 0))
	assert.True(t, east.syncHaloFrom(west, -1, 0))

	assert.Equal(t, block.SandBlockID, west.GetBlock(vec.Vec3{X: SizeX, Y: 41, Z: 9}))
	assert.Equal(t, block.StoneBlockID, east.GetBlock(vec.Vec3{X: -1, Y: 40, Z: 3}))

	// Повторная синхронизация ничего не меняет
	assert.False(t, west.syncHaloFrom(east, 1, 0))

	north := newTestStore(RegionCoord{0, 1})
	north.SetBlock(vec.Vec3{X: 5, Y: 0, Z: 0}, block.DirtBlockID, block.BlockData{})
	assert.True(t, west.syncHaloFrom(north, 0, 1))
	assert.Equal(t, block.DirtBlockID, west.GetBlock(vec.Vec3{X: 5, Y: 0, Z: SizeZ}))
}

func TestRegionSummary(t *testing.T) {
	store := newTestStore(RegionCoord{2, 3})
	store.SetBlock(vec.Vec3{X: 0, Y: 10, Z: 0}, block.StoneBlockID, block.BlockData{})
	store.SetBlock(vec.Vec3{X: 1, Y: 12, Z: 0}, block.StoneBlockID, block.BlockData{})
	// Ореол в сводку не входит
	store.SetBlock(vec.Vec3{X: -1, Y: 90, Z: 0}, block.StoneBlockID, block.BlockData{})

	summary := store.Summary()
	assert.Equal(t, RegionCoord{2, 3}, summary.Coord)
	assert.Equal(t, 2, summary.BlockCounts["Stone"])
	assert.Equal(t, 12, summary.MaxHeight)
	assert.Len(t, summary.Cells, CellsPerRegion)
}
