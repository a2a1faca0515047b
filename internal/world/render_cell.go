package world

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh - готовая к отрисовке поверхность RenderCell.
// Вершины заданы относительно нижнего угла ячейки, UV уже в координатах атласа.
type Mesh struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
	UVs      []mgl32.Vec2
}

// FaceCount возвращает количество граней (по 4 вершины на грань)
func (m *Mesh) FaceCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / 4
}

// RenderCell - подобъём региона 16×16×16, единица перестроения меша.
// В каждый момент для ячейки выполняется не больше одного построения;
// запросы во время построения схлопываются в один дополнительный проход.
type RenderCell struct {
	index  int
	mesh   atomic.Pointer[Mesh]
	dirty  atomic.Bool
	builds atomic.Uint64

	buildMu sync.Mutex
	running chan struct{} // закрывается по окончании текущего прохода, nil - построения нет
	queued  chan struct{} // закрывается по окончании дополнительного прохода
}

func newRenderCell(index int) *RenderCell {
	c := &RenderCell{index: index}
	c.dirty.Store(true)
	return c
}

// Index - номер ячейки по высоте
func (c *RenderCell) Index() int { return c.index }

// MinY - нижняя граница ячейки в локальных координатах региона
func (c *RenderCell) MinY() int { return c.index * CellSize }

// Mesh возвращает последний построенный меш (nil, если ещё не строился)
func (c *RenderCell) Mesh() *Mesh { return c.mesh.Load() }

// IsDirty сообщает, что меш устарел относительно данных
func (c *RenderCell) IsDirty() bool { return c.dirty.Load() }

// MarkDirty помечает меш устаревшим
func (c *RenderCell) MarkDirty() { c.dirty.Store(true) }

// Builds возвращает количество завершённых проходов построения
func (c *RenderCell) Builds() uint64 { return c.builds.Load() }

// IsBuilding сообщает, выполняется ли сейчас построение
func (c *RenderCell) IsBuilding() bool {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	return c.running != nil
}

func (c *RenderCell) reset() {
	c.mesh.Store(nil)
	c.dirty.Store(true)
}

// tryStartBuild захватывает право на построение.
// Если построение уже идёт, заказывает ровно один дополнительный проход и возвращает false
// вместе с каналом, который закроется по окончании этого прохода.
func (c *RenderCell) tryStartBuild() (bool, <-chan struct{}) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	if c.running == nil {
		c.running = make(chan struct{})
		return true, c.running
	}
	if c.queued == nil {
		c.queued = make(chan struct{})
	}
	return false, c.queued
}

// finishBuild завершает проход. Возвращает true, если во время прохода
// пришёл новый запрос и нужен ещё ровно один проход.
func (c *RenderCell) finishBuild() bool {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	close(c.running)
	c.running, c.queued = c.queued, nil
	return c.running != nil
}

// publish атомарно заменяет меш
func (c *RenderCell) publish(mesh *Mesh) {
	c.mesh.Store(mesh)
	c.builds.Add(1)
}

// RenderCellStats - состояние ячейки для отладки
type RenderCellStats struct {
	Index    int    `json:"index"`
	Faces    int    `json:"faces"`
	Dirty    bool   `json:"dirty"`
	Building bool   `json:"building"`
	Builds   uint64 `json:"builds"`
}

func (c *RenderCell) Stats() RenderCellStats {
	return RenderCellStats{
		Index:    c.index,
		Faces:    c.Mesh().FaceCount(),
		Dirty:    c.IsDirty(),
		Building: c.IsBuilding(),
		Builds:   c.Builds(),
	}
}
