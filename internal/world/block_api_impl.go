package world

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// tickAPI реализует block.BlockAPI поверх мира для правил блоков.
// Чтение вне активных регионов возвращает воздух, запись туда отбрасывается.
// Запоминает ячейки, затронутые записями текущего правила, и координаты,
// записанные или поставленные в очередь за весь тик.
type tickAPI struct {
	world   *World
	prop    *BlockUpdatePropagator
	written []CellRef

	touched   map[vec.Vec3]struct{}
	scheduled map[vec.Vec3]struct{}
}

func newTickAPI(w *World, p *BlockUpdatePropagator) *tickAPI {
	return &tickAPI{
		world:     w,
		prop:      p,
		touched:   make(map[vec.Vec3]struct{}),
		scheduled: make(map[vec.Vec3]struct{}),
	}
}

// wroteThisTick сообщает, писал ли кто-то в блок в текущем тике
func (a *tickAPI) wroteThisTick(pos vec.Vec3) bool {
	_, ok := a.touched[pos]
	return ok
}

// GetBlockID возвращает ID блока по мировым координатам
func (a *tickAPI) GetBlockID(pos vec.Vec3) block.BlockID {
	return a.world.BlockAt(pos)
}

// GetBlockData возвращает данные блока по мировым координатам
func (a *tickAPI) GetBlockData(pos vec.Vec3) block.BlockData {
	return a.world.BlockDataAt(pos)
}

// SetBlock пишет блок через общий путь записи мира (с копированием в ореол соседа)
func (a *tickAPI) SetBlock(pos vec.Vec3, id block.BlockID, data block.BlockData) bool {
	cells, ok := a.world.writeBlock(pos, id, data)
	if ok {
		a.written = append(a.written, cells...)
		a.touched[pos] = struct{}{}
	}
	return ok
}

// ScheduleUpdate ставит блок в очередь следующего тика, повторы за тик отбрасываются
func (a *tickAPI) ScheduleUpdate(pos vec.Vec3) {
	if _, ok := a.scheduled[pos]; ok {
		return
	}
	a.scheduled[pos] = struct{}{}
	a.prop.Schedule(pos)
}

func (a *tickAPI) TriggerNeighborUpdates(pos vec.Vec3) {
	for _, n := range pos.Neighbors() {
		a.ScheduleUpdate(n)
	}
}

// Проверка на этапе компиляции
var _ block.BlockAPI = (*tickAPI)(nil)
