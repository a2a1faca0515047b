package block

import "github.com/annel0/voxel-stream/internal/vec"

// Side - грань блока / направление
type Side uint8

const (
	SideUp    Side = iota // +Y
	SideDown              // -Y
	SideFront             // -Z
	SideBack              // +Z
	SideLeft              // -X
	SideRight             // +X

	SideCount
)

// AllSides перечисляет грани в порядке обхода при построении меша
var AllSides = [SideCount]Side{SideUp, SideDown, SideFront, SideBack, SideLeft, SideRight}

var sideOffsets = [SideCount]vec.Vec3{
	SideUp:    {X: 0, Y: 1, Z: 0},
	SideDown:  {X: 0, Y: -1, Z: 0},
	SideFront: {X: 0, Y: 0, Z: -1},
	SideBack:  {X: 0, Y: 0, Z: 1},
	SideLeft:  {X: -1, Y: 0, Z: 0},
	SideRight: {X: 1, Y: 0, Z: 0},
}

// Offset возвращает единичный вектор направления грани
func (s Side) Offset() vec.Vec3 {
	if s >= SideCount {
		return vec.Vec3{}
	}
	return sideOffsets[s]
}

// Opposite возвращает противоположную грань
func (s Side) Opposite() Side {
	switch s {
	case SideUp:
		return SideDown
	case SideDown:
		return SideUp
	case SideFront:
		return SideBack
	case SideBack:
		return SideFront
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	}
	return s
}

// IsHorizontal сообщает, лежит ли направление в плоскости XZ
func (s Side) IsHorizontal() bool {
	return s != SideUp && s != SideDown
}

// String возвращает имя грани
func (s Side) String() string {
	switch s {
	case SideUp:
		return "up"
	case SideDown:
		return "down"
	case SideFront:
		return "front"
	case SideBack:
		return "back"
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	}
	return "unknown"
}

// BlockData хранит состояние блока помимо типа: ориентацию и уровень (например, воды).
// Копируется по значению.
type BlockData struct {
	Direction    Side
	SubDirection Side
	Level        uint8
}

// MaxWaterLevel - уровень источника воды
const MaxWaterLevel uint8 = 7
