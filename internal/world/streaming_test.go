package world

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// movingObserver - наблюдатель, которого тест двигает вручную
type movingObserver struct {
	mu      sync.Mutex
	x, y, z float64
}

func (o *movingObserver) Position() (float64, float64, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.x, o.y, o.z
}

func (o *movingObserver) MoveTo(x, z float64) {
	o.mu.Lock()
	o.x, o.z = x, z
	o.mu.Unlock()
}

func newTestWorld(t *testing.T, mutate func(*Options)) *World {
	t.Helper()
	opts := DefaultOptions()
	opts.Seed = 7
	opts.Noise = flatNoise
	opts.Trees = false
	opts.Streaming = StreamingConfig{RenderDistance: 1, MaxConcurrentLoads: 2}
	opts.MeshWorkers = 2
	opts.GenerationStepDelay = 0
	if mutate != nil {
		mutate(&opts)
	}
	w := NewWorld(opts)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func waitIdle(t *testing.T, sm *StreamingManager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	require.NoError(t, sm.WaitIdle(ctx))
}

func squareAround(center RegionCoord, r int) []RegionCoord {
	var coords []RegionCoord
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			coords = append(coords, center.Add(dx, dz))
		}
	}
	return coords
}

// Проверки, которые должны выполняться в любом состоянии покоя
func assertStreamingInvariants(t *testing.T, sm *StreamingManager) {
	t.Helper()
	stats := sm.Snapshot()
	r := sm.Config().RenderDistance

	for _, coord := range sm.ActiveRegions() {
		assert.LessOrEqual(t, coord.ChebyshevDistance(stats.Current), r, "регион %s вне радиуса", coord)
		store, ok := sm.GetRegion(coord)
		require.True(t, ok)
		assert.Equal(t, coord, store.Coord())
		assert.Equal(t, StateActive, store.State())
		for _, cell := range store.Cells() {
			assert.NotNil(t, cell.Mesh(), "у ячейки %d региона %s нет меша", cell.Index(), coord)
		}
	}
	assert.Equal(t, stats.Allocated, stats.Active+stats.Loading+stats.Pooled, "хранилища не теряются")
	assert.LessOrEqual(t, stats.InFlight, sm.Config().MaxConcurrentLoads)
}

func TestStreamingLoadsSquare(t *testing.T) {
	w := newTestWorld(t, nil)
	sm := w.Streaming()

	sm.Update(8, 8)
	waitIdle(t, sm)

	assert.ElementsMatch(t, squareAround(RegionCoord{}, 1), sm.ActiveRegions())
	stats := sm.Snapshot()
	assert.Equal(t, 9, stats.Active)
	assert.Equal(t, 9, stats.Allocated)
	assertStreamingInvariants(t, sm)

	// Повторный Update в том же регионе ничего не делает
	assert.False(t, sm.Reconcile(9, 9))
}

func TestStreamingHaloMatchesNeighbors(t *testing.T) {
	w := newTestWorld(t, func(o *Options) { o.Noise = nil })
	sm := w.Streaming()
	sm.Update(8, 8)
	waitIdle(t, sm)

	center, _ := sm.GetRegion(RegionCoord{0, 0})
	east, _ := sm.GetRegion(RegionCoord{1, 0})
	north, _ := sm.GetRegion(RegionCoord{0, 1})
	for y := 0; y < SizeY; y++ {
		for i := 0; i < SizeX; i++ {
			require.Equal(t, east.GetBlock(vec.Vec3{X: 0, Y: y, Z: i}), center.GetBlock(vec.Vec3{X: SizeX, Y: y, Z: i}))
			require.Equal(t, center.GetBlock(vec.Vec3{X: SizeX - 1, Y: y, Z: i}), east.GetBlock(vec.Vec3{X: -1, Y: y, Z: i}))
			require.Equal(t, north.GetBlock(vec.Vec3{X: i, Y: y, Z: 0}), center.GetBlock(vec.Vec3{X: i, Y: y, Z: SizeZ}))
		}
	}
}

func TestStreamingMoveEastReusesStores(t *testing.T) {
	w := newTestWorld(t, nil)
	sm := w.Streaming()

	sm.Update(8, 8)
	waitIdle(t, sm)
	require.Equal(t, 0, sm.Snapshot().Pooled)

	// Переход в регион (1, 0): западный столбец уходит в пул
	require.True(t, sm.Reconcile(SizeX+8, 8))
	stats := sm.Snapshot()
	assert.Equal(t, 3, stats.Pooled)
	assert.Equal(t, 6, stats.Active)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 3, stats.Preserved)

	sm.Drain()
	waitIdle(t, sm)

	assert.ElementsMatch(t, squareAround(RegionCoord{1, 0}, 1), sm.ActiveRegions())
	stats = sm.Snapshot()
	assert.Equal(t, 0, stats.Pooled)
	assert.Equal(t, 9, stats.Allocated, "новые регионы заняли хранилища из пула")
	assertStreamingInvariants(t, sm)
}

func TestStreamingRestoresPreservedRegion(t *testing.T) {
	w := newTestWorld(t, nil)
	sm := w.Streaming()
	sm.Update(8, 8)
	waitIdle(t, sm)

	west := RegionCoord{-1, 0}
	local := vec.Vec3{X: 4, Y: 90, Z: 4}
	require.NoError(t, w.SetBlock(context.Background(), west, local, block.SandBlockID, block.SideUp))

	sm.Update(SizeX+8, 8)
	waitIdle(t, sm)
	_, ok := sm.GetRegion(west)
	require.False(t, ok)

	sm.Update(8, 8)
	waitIdle(t, sm)

	store, ok := sm.GetRegion(west)
	require.True(t, ok)
	assert.Equal(t, block.SandBlockID, store.GetBlock(local), "правка пережила выгрузку")
	assert.GreaterOrEqual(t, testutil.ToFloat64(w.metrics.RegionLoads.WithLabelValues("restored")), float64(3))
	assertStreamingInvariants(t, sm)
}

func TestStreamingCancelledLoadReturnsStore(t *testing.T) {
	w := newTestWorld(t, func(o *Options) {
		o.Streaming = StreamingConfig{RenderDistance: 0, MaxConcurrentLoads: 1}
		o.GenerationStepDelay = 2 * time.Millisecond
	})
	sm := w.Streaming()

	sm.Update(8, 8)
	require.Eventually(t, func() bool { return sm.Snapshot().Loading == 1 }, 5*time.Second, time.Millisecond)

	// Загружающийся регион не виден миру
	_, ok := sm.GetRegion(RegionCoord{0, 0})
	assert.False(t, ok)
	assert.ErrorIs(t, w.SetBlock(context.Background(), RegionCoord{0, 0}, vec.Vec3{}, block.StoneBlockID, block.SideUp), ErrRegionNotFound)

	far := RegionCoord{10, 0}
	sm.Update(float64(far.X*SizeX+8), 8)
	waitIdle(t, sm)

	assert.Equal(t, []RegionCoord{far}, sm.ActiveRegions())
	stats := sm.Snapshot()
	assert.Equal(t, 1, stats.Allocated, "хранилище прерванной загрузки переиспользовано")
	assert.Equal(t, 0, stats.Preserved, "частичные данные не сохраняются")
	assert.Equal(t, float64(1), testutil.ToFloat64(w.metrics.RegionLoads.WithLabelValues("aborted")))
	assertStreamingInvariants(t, sm)
}

func TestStreamingConcurrencyLimit(t *testing.T) {
	w := newTestWorld(t, func(o *Options) {
		o.Streaming = StreamingConfig{RenderDistance: 2, MaxConcurrentLoads: 2}
		o.GenerationStepDelay = 100 * time.Microsecond
	})
	sm := w.Streaming()
	sm.Update(8, 8)

	for !sm.Idle() {
		assert.LessOrEqual(t, sm.Snapshot().InFlight, 2)
		time.Sleep(time.Millisecond)
	}
	assert.Len(t, sm.ActiveRegions(), 25)
}

func TestStreamingWanderingObserver(t *testing.T) {
	w := newTestWorld(t, nil)
	sm := w.Streaming()

	path := [][2]float64{{8, 8}, {24, 8}, {40, -8}, {-40, 30}, {-41, 31}, {8, 8}}
	for _, p := range path {
		sm.Update(p[0], p[1])
	}
	waitIdle(t, sm)

	assert.ElementsMatch(t, squareAround(RegionCoord{}, 1), sm.ActiveRegions())
	assertStreamingInvariants(t, sm)
}

func TestStreamingClose(t *testing.T) {
	w := newTestWorld(t, func(o *Options) { o.GenerationStepDelay = time.Millisecond })
	sm := w.Streaming()
	sm.Update(8, 8)
	sm.Close()

	assert.True(t, sm.Idle())
	// После закрытия Update ничего не ставит в очередь
	sm.Update(100, 100)
	assert.Equal(t, 0, sm.Snapshot().Pending)
}
