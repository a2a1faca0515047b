package world

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TickResult - итог одного тика
type TickResult struct {
	Tick      uint64 `json:"tick"`
	Processed int    `json:"processed"` // блоков с правилом обновления
	Changed   int    `json:"changed"`   // из них изменили мир
	Redrawn   int    `json:"redrawn"`   // перестроенных RenderCell
}

// BlockUpdatePropagator ведёт две очереди координат: текущий тик и следующий.
// Правила блоков пишут продолжение только в следующий тик, поэтому распространение
// (например, воды) идёт на один шаг за тик. Каждая координата выполняется за тик не больше
// одного раза, а блок, записанный в этом тике, ждёт следующего. Все изменённые за тик RenderCell
// перестраиваются один раз после применения всех правок тика.
type BlockUpdatePropagator struct {
	world *World

	mu   sync.Mutex
	next []vec.Vec3
	tick uint64
}

func newBlockUpdatePropagator(w *World) *BlockUpdatePropagator {
	return &BlockUpdatePropagator{world: w}
}

// Schedule ставит блок (мировые координаты) в очередь следующего тика
func (p *BlockUpdatePropagator) Schedule(pos vec.Vec3) {
	p.mu.Lock()
	p.next = append(p.next, pos)
	p.mu.Unlock()
}

// ScheduleNeighbors ставит в очередь шесть соседей по граням
func (p *BlockUpdatePropagator) ScheduleNeighbors(pos vec.Vec3) {
	neighbors := pos.Neighbors()
	p.mu.Lock()
	p.next = append(p.next, neighbors[:]...)
	p.mu.Unlock()
}

// Pending возвращает длину очереди следующего тика
func (p *BlockUpdatePropagator) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.next)
}

// TickCount возвращает количество выполненных тиков
func (p *BlockUpdatePropagator) TickCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick
}

// Tick переносит очередь следующего тика в текущую и обрабатывает её в порядке постановки.
func (p *BlockUpdatePropagator) Tick(ctx context.Context) TickResult {
	start := time.Now()

	p.mu.Lock()
	current := p.next
	p.next = nil
	p.tick++
	result := TickResult{Tick: p.tick}
	p.mu.Unlock()

	ctx, span := p.world.tracer.Start(ctx, "blocks.tick", trace.WithAttributes(
		attribute.Int64("tick", int64(result.Tick)),
		attribute.Int("queue", len(current)),
	))
	defer span.End()

	redraw := newCellSet()
	api := newTickAPI(p.world, p)
	done := make(map[vec.Vec3]struct{}, len(current))

	for i, pos := range current {
		if ctx.Err() != nil {
			// Необработанные координаты переходят в следующий тик в том же порядке
			p.mu.Lock()
			p.next = append(append([]vec.Vec3(nil), current[i:]...), p.next...)
			p.mu.Unlock()
			break
		}

		if api.wroteThisTick(pos) {
			// Блок изменился в этом тике: правило увидит новое состояние только в следующем
			api.ScheduleUpdate(pos)
			continue
		}
		if _, ok := done[pos]; ok {
			continue
		}
		done[pos] = struct{}{}

		id, ok := p.world.activeBlockAt(pos)
		if !ok {
			continue
		}
		behavior, ok := block.Get(id)
		if !ok || !behavior.NeedsTick() {
			continue
		}

		result.Processed++
		api.written = api.written[:0]
		if behavior.TickUpdate(api, pos) {
			result.Changed++
			for _, ref := range p.world.cellsAround(pos) {
				redraw.add(ref)
			}
			for _, ref := range api.written {
				redraw.add(ref)
			}
		}
	}

	cells := redraw.list()
	if len(cells) > 0 {
		p.world.mesher.RebuildAll(ctx, cells)
	}
	result.Redrawn = len(cells)

	m := p.world.metrics
	m.TickDuration.Observe(time.Since(start).Seconds())
	m.TickProcessed.Add(float64(result.Processed))
	m.TickChanged.Add(float64(result.Changed))
	m.TickRedrawn.Add(float64(result.Redrawn))
	span.SetAttributes(
		attribute.Int("processed", result.Processed),
		attribute.Int("changed", result.Changed),
		attribute.Int("redrawn", result.Redrawn),
	)
	return result
}

// cellSet - множество RenderCell с сохранением порядка добавления
type cellSet struct {
	seen  map[*RenderCell]struct{}
	cells []CellRef
}

func newCellSet() *cellSet {
	return &cellSet{seen: make(map[*RenderCell]struct{})}
}

func (s *cellSet) add(ref CellRef) {
	if ref.Cell == nil {
		return
	}
	if _, ok := s.seen[ref.Cell]; ok {
		return
	}
	s.seen[ref.Cell] = struct{}{}
	s.cells = append(s.cells, ref)
}

func (s *cellSet) list() []CellRef {
	return s.cells
}
