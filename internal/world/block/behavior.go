package block

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockBehavior определяет поведение блока: прозрачность, геометрию граней и реакцию на тики
type BlockBehavior interface {
	ID() BlockID
	Name() string

	// IsTransparent сообщает, видны ли грани соседей сквозь этот блок
	IsTransparent() bool

	// SideVertices возвращает 4 вершины грани, смещённые на origin.
	// Пустой результат означает, что у блока нет геометрии (воздух).
	SideVertices(side Side, origin mgl32.Vec3) []mgl32.Vec3
	// SideTriangles возвращает индексы треугольников грани относительно её первой вершины
	SideTriangles(side Side) []uint32
	// SideUVs возвращает 4 UV-точки в единичном квадрате текстуры блока
	SideUVs(side Side) []mgl32.Vec2

	NeedsTick() bool
	// TickUpdate выполняет правило обновления и возвращает true, если мир изменился
	TickUpdate(api BlockAPI, pos vec.Vec3) bool

	// CreateData создаёт начальные данные блока при установке с указанным направлением
	CreateData(direction Side) BlockData
}
