package implementations

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// AirBehavior реализует поведение пустого блока (воздуха)
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "Air"
}

// IsTransparent возвращает true: сквозь воздух видны грани соседей
func (b *AirBehavior) IsTransparent() bool {
	return true
}

// SideVertices возвращает nil, у воздуха нет геометрии
func (b *AirBehavior) SideVertices(side block.Side, origin mgl32.Vec3) []mgl32.Vec3 {
	return nil
}

func (b *AirBehavior) SideTriangles(side block.Side) []uint32 {
	return nil
}

func (b *AirBehavior) SideUVs(side block.Side) []mgl32.Vec2 {
	return nil
}

// NeedsTick возвращает false, воздух статичен
func (b *AirBehavior) NeedsTick() bool {
	return false
}

// TickUpdate ничего не делает для воздуха
func (b *AirBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) bool {
	return false
}

// CreateData создает пустые данные
func (b *AirBehavior) CreateData(direction block.Side) block.BlockData {
	return block.BlockData{}
}
