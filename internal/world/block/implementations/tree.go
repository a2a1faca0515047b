package implementations

import (
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// LogBehavior - ствол дерева. Торцы и кора лежат в разных половинах текстуры.
type LogBehavior struct {
	solidBlock
}

func (b *LogBehavior) ID() block.BlockID { return block.LogBlockID }
func (b *LogBehavior) Name() string      { return "Log" }

// SideUVs: торцы сверху и снизу, кора по бокам
func (b *LogBehavior) SideUVs(side block.Side) []mgl32.Vec2 {
	if !side.IsHorizontal() {
		return block.TileUVs(0, 0.5)
	}
	return block.TileUVs(0.5, 1)
}

// LeavesBehavior - листва. Прозрачна, поэтому грани соседей под ней не отсекаются.
type LeavesBehavior struct {
	solidBlock
}

func (b *LeavesBehavior) ID() block.BlockID   { return block.LeavesBlockID }
func (b *LeavesBehavior) Name() string        { return "Leaves" }
func (b *LeavesBehavior) IsTransparent() bool { return true }
