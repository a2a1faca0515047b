package implementations

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// WaterSourceBehavior - источник воды. Сам не иссякает, уровень всегда максимальный.
type WaterSourceBehavior struct {
	liquidBlock
}

func (b *WaterSourceBehavior) ID() block.BlockID {
	return block.WaterSourceBlockID
}

func (b *WaterSourceBehavior) Name() string {
	return "WaterSource"
}

// TickUpdate растекает воду от источника
func (b *WaterSourceBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) bool {
	return spreadWater(api, pos, block.MaxWaterLevel)
}

func (b *WaterSourceBehavior) CreateData(direction block.Side) block.BlockData {
	return block.BlockData{Direction: direction, Level: block.MaxWaterLevel}
}
