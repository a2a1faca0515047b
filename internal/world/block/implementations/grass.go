package implementations

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// Текстура травы содержит три плитки в ряд: верх, бок, низ
const grassTile = float32(1) / 3

// GrassBehavior реализует поведение блока травы
type GrassBehavior struct {
	solidBlock
}

// ID возвращает идентификатор блока
func (b *GrassBehavior) ID() block.BlockID {
	return block.GrassBlockID
}

// Name возвращает имя блока
func (b *GrassBehavior) Name() string {
	return "Grass"
}

// SideUVs выбирает плитку текстуры по грани
func (b *GrassBehavior) SideUVs(side block.Side) []mgl32.Vec2 {
	switch side {
	case block.SideUp:
		return block.TileUVs(0, grassTile)
	case block.SideDown:
		return block.TileUVs(2*grassTile, 1)
	default:
		return block.TileUVs(grassTile, 2*grassTile)
	}
}

// NeedsTick возвращает true: трава под непрозрачным блоком превращается в землю
func (b *GrassBehavior) NeedsTick() bool {
	return true
}

// TickUpdate превращает траву в землю, если сверху непрозрачный блок
func (b *GrassBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) bool {
	above := api.GetBlockID(pos.Add(vec.Vec3{Y: 1}))
	if block.IsTransparent(above) {
		return false
	}
	return api.SetBlock(pos, block.DirtBlockID, api.GetBlockData(pos))
}
