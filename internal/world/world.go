package world

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/annel0/voxel-stream/internal/config"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/storage"
	"github.com/annel0/voxel-stream/internal/util"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Options - параметры мира
type Options struct {
	Seed      int64
	Height    HeightParams
	Streaming StreamingConfig

	MeshWorkers         int
	GenerationStepDelay time.Duration
	TickInterval        time.Duration
	FrameInterval       time.Duration
	Trees               bool

	// Необязательные зависимости. nil - значения по умолчанию.
	Noise      util.NoiseSource
	Atlas      block.Atlas
	Inactive   storage.InactiveStore
	Registerer prometheus.Registerer
}

// DefaultOptions возвращает параметры мира по умолчанию
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig переносит секции конфигурации в параметры мира
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Seed: cfg.World.Seed,
		Height: HeightParams{
			MacroScale:   cfg.Terrain.MacroScale,
			MicroScale:   cfg.Terrain.MicroScale,
			HeightScale:  cfg.Terrain.HeightScale,
			MinGenHeight: cfg.Terrain.MinGenHeight,
			OffsetX:      cfg.Terrain.OffsetX,
			OffsetZ:      cfg.Terrain.OffsetZ,
		},
		Streaming: StreamingConfig{
			RenderDistance:     cfg.Streaming.RenderDistance,
			MaxConcurrentLoads: cfg.Streaming.MaxConcurrentLoads,
		},
		MeshWorkers:         cfg.Streaming.MeshWorkers,
		GenerationStepDelay: cfg.Streaming.GenerationStepDelay(),
		TickInterval:        cfg.World.TickInterval(),
		FrameInterval:       cfg.World.FrameInterval(),
		Trees:               cfg.Terrain.Trees,
	}
}

// ObserverSource - источник позиции наблюдателя (игрок, камера, скрипт)
type ObserverSource interface {
	Position() (x, y, z float64)
}

// World связывает стриминг регионов, построение мешей и распространение обновлений блоков.
type World struct {
	opts       Options
	sampler    *HeightSampler
	generator  *RegionGenerator
	mesher     *Mesher
	streaming  *StreamingManager
	propagator *BlockUpdatePropagator
	inactive   storage.InactiveStore
	metrics    *Metrics
	logger     *logging.Logger
	tracer     trace.Tracer

	mu      sync.Mutex
	spawn   vec.Vec3Float
	started bool
	closed  bool
}

// NewWorld собирает мир. Регионы начинают грузиться при первом Update/Start.
func NewWorld(opts Options) *World {
	if opts.Noise == nil {
		opts.Noise = util.NewPerlinNoise(opts.Seed)
	}
	if opts.Atlas == nil {
		opts.Atlas = block.NewGridAtlas(4)
	}
	if opts.Inactive == nil {
		opts.Inactive = storage.NewMemoryStore()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 16 * time.Millisecond
	}

	metrics := NewMetrics(opts.Registerer)
	sampler := NewHeightSampler(opts.Noise, opts.Height)
	generator := NewRegionGenerator(opts.Seed, sampler)
	generator.StepDelay = opts.GenerationStepDelay
	if opts.Trees {
		generator.Decorator = TreeDecorator{}
	}
	mesher := NewMesher(opts.Atlas, opts.MeshWorkers, metrics)

	w := &World{
		opts:      opts,
		sampler:   sampler,
		generator: generator,
		mesher:    mesher,
		streaming: NewStreamingManager(opts.Streaming, generator, mesher, opts.Inactive, metrics),
		inactive:  opts.Inactive,
		metrics:   metrics,
		logger:    logging.GetWorldLogger(),
		tracer:    otel.Tracer("github.com/annel0/voxel-stream/internal/world"),
	}
	w.propagator = newBlockUpdatePropagator(w)
	return w
}

// Streaming возвращает менеджер стриминга
func (w *World) Streaming() *StreamingManager { return w.streaming }

// Mesher возвращает построитель мешей
func (w *World) Mesher() *Mesher { return w.mesher }

// Propagator возвращает очередь обновлений блоков
func (w *World) Propagator() *BlockUpdatePropagator { return w.propagator }

// Sampler возвращает функцию высот
func (w *World) Sampler() *HeightSampler { return w.sampler }

func (w *World) Seed() int64 { return w.opts.Seed }

// GetRegion возвращает активный регион
func (w *World) GetRegion(coord RegionCoord) (*RegionStore, bool) {
	return w.streaming.GetRegion(coord)
}

// ActiveRegions возвращает координаты активных регионов
func (w *World) ActiveRegions() []RegionCoord {
	return w.streaming.ActiveRegions()
}

// activeBlockAt читает блок, если его регион активен
func (w *World) activeBlockAt(pos vec.Vec3) (block.BlockID, bool) {
	if pos.Y < 0 || pos.Y >= SizeY {
		return block.AirBlockID, false
	}
	store, ok := w.streaming.GetRegion(WorldToRegion(pos))
	if !ok {
		return block.AirBlockID, false
	}
	return store.GetBlock(WorldToLocal(pos)), true
}

// BlockAt возвращает блок по мировым координатам. Вне активных регионов и мира по высоте - воздух.
func (w *World) BlockAt(pos vec.Vec3) block.BlockID {
	id, _ := w.activeBlockAt(pos)
	return id
}

// BlockDataAt возвращает данные блока по мировым координатам
func (w *World) BlockDataAt(pos vec.Vec3) block.BlockData {
	if pos.Y < 0 || pos.Y >= SizeY {
		return block.BlockData{}
	}
	store, ok := w.streaming.GetRegion(WorldToRegion(pos))
	if !ok {
		return block.BlockData{}
	}
	return store.GetBlockData(WorldToLocal(pos))
}

// SetBlock ставит блок по координатам региона и локальной позиции.
// Данные блока создаёт его поведение по направлению direction. Затронутые RenderCell
// перестраиваются до возврата (включая ячейки, уже строившиеся в момент вызова), блок и шесть его соседей попадают в очередь следующего тика.
func (w *World) SetBlock(ctx context.Context, coord RegionCoord, local vec.Vec3, id block.BlockID, direction block.Side) error {
	if !InInterior(local) {
		return fmt.Errorf("%w: %v", ErrOutOfRange, local)
	}
	if !block.IsValidBlockID(id) {
		return fmt.Errorf("%w: неизвестный блок %d", ErrOutOfRange, id)
	}
	behavior := block.MustGet(id)

	pos := LocalToWorld(coord, local)
	cells, ok := w.writeBlock(pos, id, behavior.CreateData(direction))
	if !ok {
		return fmt.Errorf("%w: %s", ErrRegionNotFound, coord)
	}

	w.mesher.RebuildAll(ctx, cells)
	w.propagator.Schedule(pos)
	w.propagator.ScheduleNeighbors(pos)
	w.logger.Trace("🧱 блок %s поставлен в %v", id, pos)
	return nil
}

// writeBlock - общий путь записи блока по мировым координатам. Если блок лежит на границе
// региона и сосед активен, блок копируется в ореол соседа. Возвращает RenderCell,
// чьи меши зависят от записанного блока; false - регион не активен.
func (w *World) writeBlock(pos vec.Vec3, id block.BlockID, data block.BlockData) ([]CellRef, bool) {
	if pos.Y < 0 || pos.Y >= SizeY {
		return nil, false
	}
	coord := WorldToRegion(pos)
	local := WorldToLocal(pos)

	var cells []CellRef
	written := false
	w.streaming.withActive(func(get func(RegionCoord) (*RegionStore, bool)) {
		store, ok := get(coord)
		if !ok || !store.SetBlock(local, id, data) {
			return
		}
		written = true

		ci := CellIndexForY(local.Y)
		cells = append(cells, CellRef{Store: store, Cell: store.Cell(ci)})
		// Грань блока на границе RenderCell по высоте видна соседней ячейке
		if local.Y%CellSize == 0 && ci > 0 {
			cells = append(cells, CellRef{Store: store, Cell: store.Cell(ci - 1)})
		}
		if local.Y%CellSize == CellSize-1 && ci < CellsPerRegion-1 {
			cells = append(cells, CellRef{Store: store, Cell: store.Cell(ci + 1)})
		}

		for _, off := range boundaryOffsets(local) {
			neighbor, ok := get(coord.Add(off[0], off[1]))
			if !ok {
				// Неактивный сосед получит ореол при своей загрузке
				continue
			}
			halo := vec.Vec3{X: local.X - off[0]*SizeX, Y: local.Y, Z: local.Z - off[1]*SizeZ}
			if neighbor.SetBlock(halo, id, data) {
				cells = append(cells, CellRef{Store: neighbor, Cell: neighbor.Cell(ci)})
			}
		}
	})
	return cells, written
}

// boundaryOffsets возвращает сдвиги соседних регионов, в чьём ореоле лежит локальная позиция
func boundaryOffsets(local vec.Vec3) [][2]int {
	var offs [][2]int
	switch local.X {
	case 0:
		offs = append(offs, [2]int{-1, 0})
	case SizeX - 1:
		offs = append(offs, [2]int{1, 0})
	}
	switch local.Z {
	case 0:
		offs = append(offs, [2]int{0, -1})
	case SizeZ - 1:
		offs = append(offs, [2]int{0, 1})
	}
	return offs
}

// cellsAround возвращает RenderCell, в которой лежит блок
func (w *World) cellsAround(pos vec.Vec3) []CellRef {
	if pos.Y < 0 || pos.Y >= SizeY {
		return nil
	}
	store, ok := w.streaming.GetRegion(WorldToRegion(pos))
	if !ok {
		return nil
	}
	return []CellRef{{Store: store, Cell: store.Cell(CellIndexForY(pos.Y))}}
}

// Tick выполняет один тик обновлений блоков
func (w *World) Tick(ctx context.Context) TickResult {
	return w.propagator.Tick(ctx)
}

// Start загружает регионы вокруг наблюдателя, дожидается окончания загрузки
// и выбирает точку появления в регионе наблюдателя.
func (w *World) Start(ctx context.Context, observer ObserverSource) (vec.Vec3Float, error) {
	start := time.Now()
	x, _, z := observer.Position()
	w.streaming.Update(x, z)
	if err := w.streaming.WaitIdle(ctx); err != nil {
		return vec.Vec3Float{}, fmt.Errorf("ожидание стартовых регионов: %w", err)
	}

	spawn := w.SpawnPoint(RegionAtPosition(x, z))
	w.mu.Lock()
	w.spawn = spawn
	w.started = true
	w.mu.Unlock()

	stats := w.streaming.Snapshot()
	w.logger.Info("🌍 мир готов: %d регионов за %v, точка появления (%.1f, %.1f, %.1f)",
		stats.Active, time.Since(start).Round(time.Millisecond), spawn.X, spawn.Y, spawn.Z)
	return spawn, nil
}

// SpawnPoint выбирает детерминированную от сида колонку региона и ставит точку
// на 3.5 блока выше поверхности.
func (w *World) SpawnPoint(coord RegionCoord) vec.Vec3Float {
	rng := rand.New(rand.NewSource(w.opts.Seed))
	origin := coord.Origin()
	x := origin.X + rng.Intn(SizeX)
	z := origin.Z + rng.Intn(SizeZ)
	y := float64(w.sampler.Sample(x, z)) + 3.5
	return vec.Vec3Float{X: float64(x) + 0.5, Y: y, Z: float64(z) + 0.5}
}

// Spawn возвращает точку появления, выбранную в Start
func (w *World) Spawn() (vec.Vec3Float, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawn, w.started
}

// Run - основной цикл: на каждом кадре обновляет стриминг по позиции наблюдателя,
// раз в TickInterval выполняет тик блоков. Возвращается при отмене ctx.
func (w *World) Run(ctx context.Context, observer ObserverSource) error {
	frames := time.NewTicker(w.opts.FrameInterval)
	defer frames.Stop()

	w.logger.Info("▶️ цикл мира запущен: кадр %v, тик %v", w.opts.FrameInterval, w.opts.TickInterval)
	lastTick := time.Now()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("⏹️ цикл мира остановлен")
			return nil
		case now := <-frames.C:
			x, _, z := observer.Position()
			w.streaming.Update(x, z)

			if now.Sub(lastTick) >= w.opts.TickInterval {
				// Отставание не накапливаем: не более одного тика за кадр
				lastTick = now
				res := w.Tick(ctx)
				if res.Changed > 0 {
					w.logger.Debug("⏱️ тик %d: обработано %d, изменено %d, перестроено ячеек %d",
						res.Tick, res.Processed, res.Changed, res.Redrawn)
				}
			}
		}
	}
}

// Stats - сводка мира для отладки
type Stats struct {
	Seed         int64          `json:"seed"`
	Streaming    StreamingStats `json:"streaming"`
	Ticks        uint64         `json:"ticks"`
	PendingTicks int            `json:"pending_ticks"`
	Spawn        *vec.Vec3Float `json:"spawn,omitempty"`
}

// Stats возвращает сводку мира
func (w *World) Stats() Stats {
	stats := Stats{
		Seed:         w.opts.Seed,
		Streaming:    w.streaming.Snapshot(),
		Ticks:        w.propagator.TickCount(),
		PendingTicks: w.propagator.Pending(),
	}
	if spawn, ok := w.Spawn(); ok {
		stats.Spawn = &spawn
	}
	return stats
}

// Close останавливает загрузки и построение мешей, закрывает хранилище выгруженных регионов
func (w *World) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.streaming.Close()
	w.mesher.Close()
	if err := w.inactive.Close(); err != nil {
		return fmt.Errorf("закрытие хранилища регионов: %w", err)
	}
	w.logger.Info("🛑 мир остановлен")
	return nil
}
