package implementations

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// solidBlock - общая часть непрозрачных статичных кубов
type solidBlock struct{}

func (solidBlock) IsTransparent() bool { return false }

func (solidBlock) SideVertices(side block.Side, origin mgl32.Vec3) []mgl32.Vec3 {
	return block.CubeSideVertices(side, origin)
}

func (solidBlock) SideTriangles(side block.Side) []uint32 { return block.OutsideTriangles }

func (solidBlock) SideUVs(side block.Side) []mgl32.Vec2 { return block.UnitUVs() }

func (solidBlock) NeedsTick() bool { return false }

func (solidBlock) TickUpdate(api block.BlockAPI, pos vec.Vec3) bool { return false }

func (solidBlock) CreateData(direction block.Side) block.BlockData {
	return block.BlockData{Direction: direction, SubDirection: block.SideUp}
}
