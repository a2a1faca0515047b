package world

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-stream/internal/storage"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// RegionState - жизненный цикл хранилища региона
type RegionState int32

const (
	StateIdle    RegionState = iota // в пуле
	StateLoading                    // заполняется / строятся меши
	StateActive                     // доступен миру
)

func (s RegionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	}
	return "unknown"
}

// RegionStore хранит плотную сетку блоков одного региона с ореолом в одну ячейку по X и Z.
// Локальная координата l внутри региона лежит в массиве по индексу l+1,
// индексы 0 и Size+1 - копии пограничных столбцов соседей.
type RegionStore struct {
	mu     sync.RWMutex
	coord  RegionCoord
	loadID string
	blocks []block.BlockID
	data   []block.BlockData

	cells [CellsPerRegion]*RenderCell
	state atomic.Int32

	// Счетчик правок с момента загрузки
	changeCounter atomic.Int64
}

// NewRegionStore выделяет хранилище. Память переиспользуется через пул StreamingManager.
func NewRegionStore() *RegionStore {
	s := &RegionStore{
		blocks: make([]block.BlockID, gridCells),
		data:   make([]block.BlockData, gridCells),
	}
	for i := range s.cells {
		s.cells[i] = newRenderCell(i)
	}
	return s
}

// gridIndex: столбец (x, z) лежит в массиве непрерывно по y
func gridIndex(ax, y, az int) int {
	return (ax*haloSizeZ+az)*SizeY + y
}

// localIndex переводит локальную позицию (ореол допускается) в индекс массива
func localIndex(local vec.Vec3) (int, bool) {
	if local.Y < 0 || local.Y >= SizeY {
		return 0, false
	}
	ax, az := local.X+1, local.Z+1
	if ax < 0 || ax >= haloSizeX || az < 0 || az >= haloSizeZ {
		return 0, false
	}
	return gridIndex(ax, local.Y, az), true
}

// reset готовит хранилище к новой загрузке
func (s *RegionStore) reset(coord RegionCoord, loadID string) {
	s.mu.Lock()
	s.coord = coord
	s.loadID = loadID
	for i := range s.blocks {
		s.blocks[i] = block.AirBlockID
	}
	for i := range s.data {
		s.data[i] = block.BlockData{}
	}
	s.mu.Unlock()

	for _, cell := range s.cells {
		cell.reset()
	}
	s.changeCounter.Store(0)
	s.setState(StateLoading)
}

// Coord возвращает координаты региона
func (s *RegionStore) Coord() RegionCoord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coord
}

// LoadID - идентификатор последней загрузки (для логов и отладки)
func (s *RegionStore) LoadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadID
}

func (s *RegionStore) State() RegionState {
	return RegionState(s.state.Load())
}

func (s *RegionStore) setState(state RegionState) {
	s.state.Store(int32(state))
}

// Cell возвращает RenderCell по индексу высоты
func (s *RegionStore) Cell(i int) *RenderCell {
	if i < 0 || i >= CellsPerRegion {
		return nil
	}
	return s.cells[i]
}

// Cells возвращает все RenderCell региона снизу вверх
func (s *RegionStore) Cells() []*RenderCell {
	return s.cells[:]
}

// ChangeCount возвращает количество правок с момента загрузки
func (s *RegionStore) ChangeCount() int64 {
	return s.changeCounter.Load()
}

// GetBlock возвращает блок по локальным координатам. Ореол доступен через x,z = -1 и Size.
// Вне сетки (в том числе по высоте) возвращает воздух.
func (s *RegionStore) GetBlock(local vec.Vec3) block.BlockID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(local)
}

// GetBlockData возвращает данные блока по локальным координатам
func (s *RegionStore) GetBlockData(local vec.Vec3) block.BlockData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := localIndex(local)
	if !ok {
		return block.BlockData{}
	}
	return s.data[i]
}

func (s *RegionStore) getLocked(local vec.Vec3) block.BlockID {
	i, ok := localIndex(local)
	if !ok {
		return block.AirBlockID
	}
	return s.blocks[i]
}

// SetBlock записывает блок и его данные. Возвращает false для позиции вне сетки.
func (s *RegionStore) SetBlock(local vec.Vec3, id block.BlockID, data block.BlockData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(local, id, data)
}

func (s *RegionStore) setLocked(local vec.Vec3, id block.BlockID, data block.BlockData) bool {
	i, ok := localIndex(local)
	if !ok {
		return false
	}
	s.blocks[i] = id
	s.data[i] = data
	s.changeCounter.Add(1)
	return true
}

// edgeColumn - пограничный столбец внутренней части, обращённый к соседу (dx, dz)
type edgeColumn struct {
	blocks []block.BlockID
	data   []block.BlockData
}

// readEdge копирует пограничный ряд, обращённый к соседу со сдвигом (dx, dz)
func (s *RegionStore) readEdge(dx, dz int) edgeColumn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var edge edgeColumn
	forEachEdgeCell(dx, dz, func(interior, _ vec.Vec3) {
		i, _ := localIndex(interior)
		edge.blocks = append(edge.blocks, s.blocks[i])
		edge.data = append(edge.data, s.data[i])
	})
	return edge
}

// writeHalo записывает пограничный ряд соседа, лежащего со сдвигом (dx, dz), в свой ореол.
// Возвращает true, если хоть одна ячейка изменилась.
func (s *RegionStore) writeHalo(dx, dz int, edge edgeColumn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	n := 0
	// Сосед смотрит на нас с противоположной стороны
	forEachEdgeCell(-dx, -dz, func(_, halo vec.Vec3) {
		i, _ := localIndex(halo)
		if s.blocks[i] != edge.blocks[n] || s.data[i] != edge.data[n] {
			s.blocks[i] = edge.blocks[n]
			s.data[i] = edge.data[n]
			changed = true
		}
		n++
	})
	return changed
}

// forEachEdgeCell обходит пограничный ряд внутренней части со стороны (dx, dz)
// вместе с соответствующей ячейкой ореола соседа в его локальных координатах.
// Порядок обхода одинаков для чтения и записи.
func forEachEdgeCell(dx, dz int, fn func(interior, neighborHalo vec.Vec3)) {
	for y := 0; y < SizeY; y++ {
		switch {
		case dx == 1:
			for z := 0; z < SizeZ; z++ {
				fn(vec.Vec3{X: SizeX - 1, Y: y, Z: z}, vec.Vec3{X: -1, Y: y, Z: z})
			}
		case dx == -1:
			for z := 0; z < SizeZ; z++ {
				fn(vec.Vec3{X: 0, Y: y, Z: z}, vec.Vec3{X: SizeX, Y: y, Z: z})
			}
		case dz == 1:
			for x := 0; x < SizeX; x++ {
				fn(vec.Vec3{X: x, Y: y, Z: SizeZ - 1}, vec.Vec3{X: x, Y: y, Z: -1})
			}
		case dz == -1:
			for x := 0; x < SizeX; x++ {
				fn(vec.Vec3{X: x, Y: y, Z: 0}, vec.Vec3{X: x, Y: y, Z: SizeZ})
			}
		}
	}
}

// syncHaloFrom копирует пограничный ряд соседа в свой ореол.
// Блокировки берутся по очереди, а не вложенно, чтобы встречные синхронизации не взаимоблокировались.
func (s *RegionStore) syncHaloFrom(neighbor *RegionStore, dx, dz int) bool {
	edge := neighbor.readEdge(-dx, -dz)
	return s.writeHalo(dx, dz, edge)
}

// preserve сохраняет сетку в хранилище выгруженных регионов
func (s *RegionStore) preserve(ctx context.Context, st storage.InactiveStore) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return st.Save(ctx, s.coord.storageKey(), &storage.Snapshot{Blocks: s.blocks, Data: s.data})
}

// restore заполняет сетку ранее сохранённым снимком
func (s *RegionStore) restore(ctx context.Context, st storage.InactiveStore) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return st.Load(ctx, s.coord.storageKey(), &storage.Snapshot{Blocks: s.blocks, Data: s.data})
}

// RegionSummary - сводка содержимого региона для отладки
type RegionSummary struct {
	Coord       RegionCoord       `json:"coord"`
	State       string            `json:"state"`
	LoadID      string            `json:"load_id"`
	Changes     int64             `json:"changes"`
	BlockCounts map[string]int    `json:"block_counts"`
	MaxHeight   int               `json:"max_height"`
	Cells       []RenderCellStats `json:"cells"`
}

// Summary подсчитывает блоки внутренней части региона
func (s *RegionStore) Summary() RegionSummary {
	s.mu.RLock()
	counts := make(map[block.BlockID]int)
	maxHeight := 0
	for x := 0; x < SizeX; x++ {
		for z := 0; z < SizeZ; z++ {
			for y := 0; y < SizeY; y++ {
				id := s.blocks[gridIndex(x+1, y, z+1)]
				counts[id]++
				if id != block.AirBlockID && y > maxHeight {
					maxHeight = y
				}
			}
		}
	}
	summary := RegionSummary{
		Coord:       s.coord,
		State:       s.State().String(),
		LoadID:      s.loadID,
		Changes:     s.changeCounter.Load(),
		BlockCounts: make(map[string]int, len(counts)),
		MaxHeight:   maxHeight,
	}
	s.mu.RUnlock()

	for id, n := range counts {
		summary.BlockCounts[id.String()] = n
	}
	for _, cell := range s.cells {
		summary.Cells = append(summary.Cells, cell.Stats())
	}
	return summary
}
