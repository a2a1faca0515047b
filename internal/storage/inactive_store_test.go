package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCells = 18 * 128 * 18

func newTestSnapshot(fill block.BlockID) *Snapshot {
	snap := &Snapshot{
		Blocks: make([]block.BlockID, testCells),
		Data:   make([]block.BlockData, testCells),
	}
	for i := range snap.Blocks {
		snap.Blocks[i] = fill
	}
	return snap
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Blocks: make([]block.BlockID, testCells),
		Data:   make([]block.BlockData, testCells),
	}
}

// Общий набор проверок для всех реализаций InactiveStore
func testInactiveStore(t *testing.T, store InactiveStore) {
	ctx := context.Background()
	key := RegionKey{X: -3, Z: 5}

	t.Run("Load Missing", func(t *testing.T) {
		found, err := store.Load(ctx, key, emptySnapshot())
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Save and Load", func(t *testing.T) {
		snap := newTestSnapshot(block.StoneBlockID)
		snap.Blocks[42] = block.WaterBlockID
		snap.Data[42] = block.BlockData{Direction: block.SideLeft, SubDirection: block.SideUp, Level: 5}
		require.NoError(t, store.Save(ctx, key, snap))
		assert.Equal(t, 1, store.Count())

		// Изменение исходника после сохранения не влияет на снимок
		snap.Blocks[0] = block.AirBlockID

		dst := emptySnapshot()
		found, err := store.Load(ctx, key, dst)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, block.StoneBlockID, dst.Blocks[0])
		assert.Equal(t, block.WaterBlockID, dst.Blocks[42])
		assert.Equal(t, uint8(5), dst.Data[42].Level)
		assert.Equal(t, block.SideLeft, dst.Data[42].Direction)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, newTestSnapshot(block.DirtBlockID)))
		assert.Equal(t, 1, store.Count(), "перезапись не увеличивает счётчик")

		dst := emptySnapshot()
		_, err := store.Load(ctx, key, dst)
		require.NoError(t, err)
		assert.Equal(t, block.DirtBlockID, dst.Blocks[100])
	})

	t.Run("Size Mismatch", func(t *testing.T) {
		dst := &Snapshot{Blocks: make([]block.BlockID, 10), Data: make([]block.BlockData, 10)}
		_, err := store.Load(ctx, key, dst)
		assert.True(t, errors.Is(err, ErrSizeMismatch), "ожидалась ErrSizeMismatch, получено %v", err)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, store.Save(cctx, RegionKey{X: 9}, newTestSnapshot(block.AirBlockID)))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, key))
		require.NoError(t, store.Delete(ctx, key), "повторное удаление не ошибка")
		assert.Equal(t, 0, store.Count())

		found, err := store.Load(ctx, key, emptySnapshot())
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	testInactiveStore(t, store)
}

func TestBadgerStore(t *testing.T) {
	for _, compress := range []bool{true, false} {
		store, err := NewBadgerStore(compress)
		require.NoError(t, err)
		testInactiveStore(t, store)
		require.NoError(t, store.Close())
		require.NoError(t, store.Close(), "повторное закрытие безопасно")
	}
}

func TestNewByBackend(t *testing.T) {
	store, err := New("memory", false)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = New("badger", true)
	require.NoError(t, err)
	assert.IsType(t, &BadgerStore{}, store)
	store.Close()

	_, err = New("redis", false)
	assert.Error(t, err)
}
