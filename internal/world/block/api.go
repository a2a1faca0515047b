package block

import (
	"github.com/annel0/voxel-stream/internal/vec"
)

// BlockAPI определяет интерфейс для взаимодействия блоков с игровым миром.
// Все позиции задаются в мировых координатах. Чтение вне мира (за пределами высоты
// или в неактивном регионе) возвращает воздух.
type BlockAPI interface {
	// GetBlockID возвращает идентификатор блока в указанной позиции.
	GetBlockID(pos vec.Vec3) BlockID

	// GetBlockData возвращает данные блока (направление, уровень).
	GetBlockData(pos vec.Vec3) BlockData

	// SetBlock устанавливает блок с данными. Возвращает false, если запись невозможна
	// (позиция вне мира или регион не активен).
	SetBlock(pos vec.Vec3, id BlockID, data BlockData) bool

	// ScheduleUpdate помечает блок для обновления в следующем тике.
	ScheduleUpdate(pos vec.Vec3)

	// TriggerNeighborUpdates планирует обновление всех шести соседей по граням.
	TriggerNeighborUpdates(pos vec.Vec3)
}
