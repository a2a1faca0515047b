package world

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshTask строит меш одной RenderCell по шагам: один шаг - один ряд x (все z и все y ячейки).
type MeshTask struct {
	store *RegionStore
	cell  int
	atlas block.Atlas
	x     int
	mesh  *Mesh
}

// NewMeshTask создаёт задачу построения меша ячейки cellIndex
func NewMeshTask(store *RegionStore, cellIndex int, atlas block.Atlas) *MeshTask {
	return &MeshTask{
		store: store,
		cell:  cellIndex,
		atlas: atlas,
		mesh:  &Mesh{},
	}
}

// Step обрабатывает один ряд под блокировкой чтения региона. Возвращает true, пока есть работа.
func (t *MeshTask) Step() bool {
	if t.x >= SizeX {
		return false
	}

	minY := t.cell * CellSize
	t.store.mu.RLock()
	for z := 0; z < SizeZ; z++ {
		for y := minY; y < minY+CellSize; y++ {
			t.emitBlock(vec.Vec3{X: t.x, Y: y, Z: z}, minY)
		}
	}
	t.store.mu.RUnlock()

	t.x++
	return t.x < SizeX
}

// Result возвращает построенный меш
func (t *MeshTask) Result() *Mesh {
	return t.mesh
}

// emitBlock добавляет видимые грани блока. Грань видна, если соседний блок прозрачен
// или лежит за пределами мира по высоте.
func (t *MeshTask) emitBlock(local vec.Vec3, minY int) {
	id := t.store.getLocked(local)
	if id == block.AirBlockID {
		return
	}
	behavior, ok := block.Get(id)
	if !ok {
		return
	}

	origin := mgl32.Vec3{float32(local.X), float32(local.Y - minY), float32(local.Z)}
	var rect block.AtlasRect
	rectLoaded := false

	for _, side := range block.AllSides {
		neighbor := local.Add(side.Offset())
		if neighbor.Y >= 0 && neighbor.Y < SizeY && !block.IsTransparent(t.store.getLocked(neighbor)) {
			continue
		}

		verts := behavior.SideVertices(side, origin)
		if len(verts) == 0 {
			// Нет геометрии (воздух)
			return
		}
		if !rectLoaded {
			rect = t.atlas.Rect(id)
			rectLoaded = true
		}

		base := uint32(len(t.mesh.Vertices))
		t.mesh.Vertices = append(t.mesh.Vertices, verts...)
		for _, uv := range behavior.SideUVs(side) {
			t.mesh.UVs = append(t.mesh.UVs, rect.Map(uv))
		}
		for _, i := range behavior.SideTriangles(side) {
			t.mesh.Indices = append(t.mesh.Indices, base+i)
		}
	}
}

// Mesher (MeshBuilder) строит меши RenderCell и гарантирует не более одного построения
// на ячейку одновременно.
type Mesher struct {
	atlas   block.Atlas
	pool    pond.Pool
	metrics *Metrics
	logger  *logging.Logger
}

// NewMesher создаёт построитель с пулом фоновых перестроений размера workers
func NewMesher(atlas block.Atlas, workers int, metrics *Metrics) *Mesher {
	if atlas == nil {
		atlas = block.NewGridAtlas(4)
	}
	if workers <= 0 {
		workers = 4
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Mesher{
		atlas:   atlas,
		pool:    pond.NewPool(workers),
		metrics: metrics,
		logger:  logging.GetMeshLogger(),
	}
}

// Build строит меш ячейки до конца, проверяя ctx между рядами
func (m *Mesher) Build(ctx context.Context, store *RegionStore, cellIndex int) (*Mesh, error) {
	task := NewMeshTask(store, cellIndex, m.atlas)
	for task.Step() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return task.Result(), ctx.Err()
}

// Rebuild перестраивает меш ячейки и атомарно публикует результат.
// Если ячейка уже строится, запрос схлопывается: текущий построитель сделает ровно один
// дополнительный проход, а вызов дождётся его окончания (или отмены ctx) и вернёт false.
func (m *Mesher) Rebuild(ctx context.Context, store *RegionStore, cell *RenderCell) bool {
	owner, done := cell.tryStartBuild()
	if !owner {
		m.metrics.MeshCoalesced.Inc()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return false
	}
	m.runPasses(ctx, store, cell)
	return true
}

// runPasses выполняет проходы построения, пока приходят схлопнутые запросы
func (m *Mesher) runPasses(ctx context.Context, store *RegionStore, cell *RenderCell) {
	for {
		cell.dirty.Store(false)
		start := time.Now()
		mesh, err := m.Build(ctx, store, cell.index)
		if err == nil {
			cell.publish(mesh)
			m.metrics.MeshBuilds.Inc()
			m.metrics.MeshBuildDuration.Observe(time.Since(start).Seconds())
		} else {
			cell.MarkDirty()
			m.logger.Debug("🧱 построение меша ячейки %d региона %s прервано: %v", cell.index, store.Coord(), err)
		}

		if !cell.finishBuild() {
			return
		}
	}
}

// RequestRebuild помечает ячейку и ставит перестроение в фоновый пул, не дожидаясь его.
// Если к началу задачи хранилище ушло в пул или загружается заново, задача пропускается:
// меш новой загрузки строит сама загрузка.
func (m *Mesher) RequestRebuild(store *RegionStore, cell *RenderCell) {
	cell.MarkDirty()
	loadID := store.LoadID()
	m.pool.Submit(func() {
		if store.LoadID() != loadID || store.State() == StateIdle {
			m.metrics.MeshStale.Inc()
			return
		}
		if owner, _ := cell.tryStartBuild(); !owner {
			m.metrics.MeshCoalesced.Inc()
			return
		}
		m.runPasses(context.Background(), store, cell)
	})
}

// CellRef - ссылка на RenderCell вместе с её регионом
type CellRef struct {
	Store *RegionStore
	Cell  *RenderCell
}

// RebuildAll перестраивает набор ячеек параллельно и ждёт, пока каждая ячейка пройдёт
// построение, начатое после вызова. После Close задачи отклоняются пулом и ячейки
// остаются помеченными.
func (m *Mesher) RebuildAll(ctx context.Context, cells []CellRef) {
	tasks := make([]pond.Task, 0, len(cells))
	for _, ref := range cells {
		ref := ref
		ref.Cell.MarkDirty()
		tasks = append(tasks, m.pool.Submit(func() {
			m.Rebuild(ctx, ref.Store, ref.Cell)
		}))
	}
	for _, task := range tasks {
		if err := task.Wait(); err != nil {
			m.logger.Debug("🧱 перестроение не выполнено: %v", err)
		}
	}
}

// Close дожидается фоновых перестроений и останавливает пул
func (m *Mesher) Close() {
	m.pool.StopAndWait()
}
