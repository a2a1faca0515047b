package world

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// neighborOffsets - четыре соседа региона по горизонтали
var neighborOffsets = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// loadHandle - выполняющаяся загрузка региона
type loadHandle struct {
	id        string
	cancel    context.CancelFunc
	cancelled bool
}

func (h *loadHandle) stop() {
	h.cancelled = true
	h.cancel()
}

// StreamingConfig - параметры стриминга
type StreamingConfig struct {
	RenderDistance     int
	MaxConcurrentLoads int
}

// StreamingManager (ChunkStreamingManager) решает, какие регионы должны существовать вокруг
// наблюдателя, загружает их ограниченным числом параллельных задач и переиспользует память
// выгруженных регионов через пул. Карты active/pool/pending меняет только он, под своим мьютексом.
type StreamingManager struct {
	cfg       StreamingConfig
	generator *RegionGenerator
	mesher    *Mesher
	inactive  storage.InactiveStore
	metrics   *Metrics
	logger    *logging.Logger
	tracer    trace.Tracer
	loads     pond.Pool

	mu         sync.RWMutex
	active     map[RegionCoord]*RegionStore
	loading    map[RegionCoord]*loadHandle
	free       []*RegionStore
	pending    []RegionCoord
	pendingSet map[RegionCoord]struct{}
	inFlight   int
	allocated  int
	current    RegionCoord
	hasCurrent bool
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewStreamingManager создаёт менеджер. inactive == nil - выгруженные регионы не сохраняются.
func NewStreamingManager(cfg StreamingConfig, generator *RegionGenerator, mesher *Mesher, inactive storage.InactiveStore, metrics *Metrics) *StreamingManager {
	if cfg.RenderDistance < 0 {
		cfg.RenderDistance = 0
	}
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = 1
	}
	if inactive == nil {
		inactive = storage.NewMemoryStore()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &StreamingManager{
		cfg:        cfg,
		generator:  generator,
		mesher:     mesher,
		inactive:   inactive,
		metrics:    metrics,
		logger:     logging.GetStreamingLogger(),
		tracer:     otel.Tracer("github.com/annel0/voxel-stream/internal/world"),
		loads:      pond.NewPool(cfg.MaxConcurrentLoads),
		active:     make(map[RegionCoord]*RegionStore),
		loading:    make(map[RegionCoord]*loadHandle),
		pendingSet: make(map[RegionCoord]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Config возвращает параметры стриминга
func (sm *StreamingManager) Config() StreamingConfig {
	return sm.cfg
}

// Update вызывается на каждой итерации основного цикла с позицией наблюдателя
func (sm *StreamingManager) Update(x, z float64) {
	sm.Reconcile(x, z)
	sm.Drain()
}

// Reconcile пересчитывает набор нужных регионов, если наблюдатель сменил регион:
// ставит недостающие в очередь и выгружает вышедшие за радиус.
// Возвращает true, если регион наблюдателя изменился.
func (sm *StreamingManager) Reconcile(x, z float64) bool {
	cur := RegionAtPosition(x, z)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.closed || (sm.hasCurrent && cur == sm.current) {
		return false
	}
	sm.current = cur
	sm.hasCurrent = true

	r := sm.cfg.RenderDistance
	queued := 0
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			coord := cur.Add(dx, dz)
			if _, ok := sm.active[coord]; ok {
				continue
			}
			if _, ok := sm.pendingSet[coord]; ok {
				continue
			}
			// Отменённая загрузка ещё может доделывать выход, координату можно ставить снова
			if h, ok := sm.loading[coord]; ok && !h.cancelled {
				continue
			}
			sm.pending = append(sm.pending, coord)
			sm.pendingSet[coord] = struct{}{}
			queued++
		}
	}

	unloaded := 0
	for coord := range sm.active {
		if !sm.inRadiusLocked(coord) {
			sm.unloadLocked(coord)
			unloaded++
		}
	}
	// Загрузки, ещё не добравшиеся до active
	for coord, h := range sm.loading {
		if !sm.inRadiusLocked(coord) {
			h.stop()
		}
	}

	kept := sm.pending[:0]
	for _, coord := range sm.pending {
		if sm.inRadiusLocked(coord) {
			kept = append(kept, coord)
		} else {
			delete(sm.pendingSet, coord)
		}
	}
	sm.pending = kept

	sm.logger.Debug("🧭 наблюдатель в регионе %s: в очередь %d, выгружено %d", cur, queued, unloaded)
	sm.updateGaugesLocked()
	return true
}

// Drain запускает загрузки из очереди, пока не достигнут лимит параллельных загрузок.
// Остаток ждёт следующего Update или освобождения слота.
func (sm *StreamingManager) Drain() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.drainLocked()
}

func (sm *StreamingManager) drainLocked() {
	for !sm.closed && len(sm.pending) > 0 && sm.inFlight < sm.cfg.MaxConcurrentLoads {
		coord := sm.pending[0]
		sm.pending = sm.pending[1:]
		delete(sm.pendingSet, coord)

		ctx, cancel := context.WithCancel(sm.ctx)
		loadID := uuid.NewString()
		sm.loading[coord] = &loadHandle{id: loadID, cancel: cancel}
		sm.inFlight++

		sm.loads.Submit(func() {
			defer cancel()
			sm.runLoad(ctx, coord, loadID)
		})
	}
	sm.updateGaugesLocked()
}

func (sm *StreamingManager) inRadiusLocked(coord RegionCoord) bool {
	return sm.hasCurrent && coord.ChebyshevDistance(sm.current) <= sm.cfg.RenderDistance
}

// Unload выгружает регион. Для неактивной координаты ничего не делает.
func (sm *StreamingManager) Unload(coord RegionCoord) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.unloadLocked(coord)
	sm.updateGaugesLocked()
}

func (sm *StreamingManager) unloadLocked(coord RegionCoord) {
	store, ok := sm.active[coord]
	if !ok {
		return
	}
	delete(sm.active, coord)

	if store.State() == StateLoading {
		// Хранилище вернёт в пул сама задача, заметив отмену
		if h, ok := sm.loading[coord]; ok {
			h.stop()
		}
		return
	}

	if err := store.preserve(sm.ctx, sm.inactive); err != nil {
		sm.logger.Warn("⚠️ не удалось сохранить регион %s: %v, он будет сгенерирован заново", coord, err)
	}
	store.setState(StateIdle)
	sm.free = append(sm.free, store)
	sm.metrics.RegionUnloads.Inc()
	sm.logger.Trace("📤 регион %s выгружен", coord)
}

// acquireLocked берёт хранилище из пула или выделяет новое
func (sm *StreamingManager) acquireLocked() *RegionStore {
	if n := len(sm.free); n > 0 {
		store := sm.free[n-1]
		sm.free = sm.free[:n-1]
		return store
	}
	sm.allocated++
	return NewRegionStore()
}

// runLoad - задача загрузки региона. Проверяет актуальность в начале и на каждом шаге.
func (sm *StreamingManager) runLoad(ctx context.Context, coord RegionCoord, loadID string) {
	start := time.Now()
	ctx, span := sm.tracer.Start(ctx, "region.load", trace.WithAttributes(
		attribute.Int("region.x", coord.X),
		attribute.Int("region.z", coord.Z),
		attribute.String("load.id", loadID),
	))
	defer span.End()

	result := "aborted"
	defer func() {
		span.SetAttributes(attribute.String("load.result", result))
		sm.metrics.RegionLoads.WithLabelValues(result).Inc()
		if result != "aborted" {
			sm.metrics.RegionLoadDuration.Observe(time.Since(start).Seconds())
		}

		sm.mu.Lock()
		sm.inFlight--
		if h, ok := sm.loading[coord]; ok && h.id == loadID {
			delete(sm.loading, coord)
		}
		sm.drainLocked()
		sm.mu.Unlock()
	}()

	// Проверяем, что регион всё ещё нужен
	sm.mu.Lock()
	if _, exists := sm.active[coord]; exists || ctx.Err() != nil || !sm.inRadiusLocked(coord) || sm.closed {
		sm.mu.Unlock()
		sm.logger.Debug("⏭️ загрузка %s отменена до начала: %v", coord, ErrTaskInvalidated)
		return
	}
	store := sm.acquireLocked()
	store.reset(coord, loadID)
	sm.active[coord] = store
	sm.updateGaugesLocked()
	sm.mu.Unlock()

	restored, err := store.restore(ctx, sm.inactive)
	if err != nil {
		sm.logger.Warn("⚠️ не удалось восстановить регион %s: %v, генерируем заново", coord, err)
		restored = false
	}
	if !restored {
		if err := sm.generator.Generate(ctx, store, coord); err != nil {
			sm.abortLoad(coord, store, err)
			return
		}
	}
	store.changeCounter.Store(0)

	sm.syncNeighbors(store, coord)

	for _, cell := range store.Cells() {
		if ctx.Err() != nil {
			break
		}
		sm.mesher.Rebuild(ctx, store, cell)
	}
	if err := ctx.Err(); err != nil {
		sm.abortLoad(coord, store, err)
		return
	}

	// Активация. Под записью мьютекса ещё раз сверяем свой ореол: правки соседей,
	// сделанные пока регион загружался, в него не копировались.
	sm.mu.Lock()
	if ctx.Err() != nil || sm.active[coord] != store {
		sm.mu.Unlock()
		sm.abortLoad(coord, store, ErrTaskInvalidated)
		return
	}
	haloChanged := false
	for _, off := range neighborOffsets {
		neighbor, ok := sm.active[coord.Add(off[0], off[1])]
		if !ok || neighbor.State() != StateActive {
			continue
		}
		if store.syncHaloFrom(neighbor, off[0], off[1]) {
			haloChanged = true
		}
	}
	store.setState(StateActive)
	sm.updateGaugesLocked()
	sm.mu.Unlock()

	if haloChanged {
		for _, cell := range store.Cells() {
			sm.mesher.RequestRebuild(store, cell)
		}
	}

	if restored {
		result = "restored"
	} else {
		result = "generated"
	}
	sm.logger.Trace("📥 регион %s загружен (%s) за %v", coord, result, time.Since(start))
}

// abortLoad возвращает хранилище прерванной загрузки в пул. Частичные данные не сохраняются.
func (sm *StreamingManager) abortLoad(coord RegionCoord, store *RegionStore, reason error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.active[coord] == store {
		delete(sm.active, coord)
	}
	store.setState(StateIdle)
	sm.free = append(sm.free, store)
	sm.updateGaugesLocked()
	sm.logger.Debug("⏭️ загрузка %s прервана: %v", coord, reason)
}

// syncNeighbors обменивается ореолами с активными соседями.
// Соседи, чей ореол изменился, получают перестроение мешей.
func (sm *StreamingManager) syncNeighbors(store *RegionStore, coord RegionCoord) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, off := range neighborOffsets {
		neighbor, ok := sm.active[coord.Add(off[0], off[1])]
		if !ok || neighbor.State() != StateActive {
			continue
		}
		store.syncHaloFrom(neighbor, off[0], off[1])
		if neighbor.syncHaloFrom(store, -off[0], -off[1]) {
			for _, cell := range neighbor.Cells() {
				sm.mesher.RequestRebuild(neighbor, cell)
			}
		}
	}
}

// GetRegion возвращает хранилище активного региона. Загружающиеся регионы не видны.
func (sm *StreamingManager) GetRegion(coord RegionCoord) (*RegionStore, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.activeLocked(coord)
}

func (sm *StreamingManager) activeLocked(coord RegionCoord) (*RegionStore, bool) {
	store, ok := sm.active[coord]
	if !ok || store.State() != StateActive {
		return nil, false
	}
	return store, true
}

// withActive выполняет fn под блокировкой чтения: пока fn работает,
// ни один регион не будет выгружен или переиспользован.
func (sm *StreamingManager) withActive(fn func(get func(RegionCoord) (*RegionStore, bool))) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	fn(sm.activeLocked)
}

// ActiveRegions возвращает координаты активных регионов в порядке X, затем Z
func (sm *StreamingManager) ActiveRegions() []RegionCoord {
	sm.mu.RLock()
	coords := make([]RegionCoord, 0, len(sm.active))
	for coord, store := range sm.active {
		if store.State() == StateActive {
			coords = append(coords, coord)
		}
	}
	sm.mu.RUnlock()

	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
	return coords
}

// StreamingStats - снимок состояния менеджера
type StreamingStats struct {
	Current   RegionCoord `json:"current"`
	Active    int         `json:"active"`
	Loading   int         `json:"loading"`
	Pooled    int         `json:"pooled"`
	Pending   int         `json:"pending"`
	InFlight  int         `json:"in_flight"`
	Allocated int         `json:"allocated"`
	Preserved int         `json:"preserved"`
}

// Snapshot возвращает статистику
func (sm *StreamingManager) Snapshot() StreamingStats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	stats := StreamingStats{
		Current:   sm.current,
		Pooled:    len(sm.free),
		Pending:   len(sm.pending),
		InFlight:  sm.inFlight,
		Allocated: sm.allocated,
		Preserved: sm.inactive.Count(),
	}
	for _, store := range sm.active {
		if store.State() == StateActive {
			stats.Active++
		} else {
			stats.Loading++
		}
	}
	return stats
}

func (sm *StreamingManager) updateGaugesLocked() {
	sm.metrics.ActiveRegions.Set(float64(len(sm.active)))
	sm.metrics.PooledRegions.Set(float64(len(sm.free)))
	sm.metrics.PendingLoads.Set(float64(len(sm.pending)))
	sm.metrics.InFlightLoads.Set(float64(sm.inFlight))
	sm.metrics.PreservedRegions.Set(float64(sm.inactive.Count()))
}

// Idle сообщает, что очередь пуста и загрузок нет
func (sm *StreamingManager) Idle() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.pending) == 0 && sm.inFlight == 0
}

// WaitIdle ждёт опустошения очереди и завершения всех загрузок (старт мира)
func (sm *StreamingManager) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for !sm.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close отменяет загрузки и останавливает пул
func (sm *StreamingManager) Close() {
	sm.mu.Lock()
	if sm.closed {
		sm.mu.Unlock()
		return
	}
	sm.closed = true
	for _, h := range sm.loading {
		h.stop()
	}
	sm.cancel()
	sm.pending = nil
	sm.pendingSet = make(map[RegionCoord]struct{})
	sm.mu.Unlock()

	sm.loads.StopAndWait()
}
