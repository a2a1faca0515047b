package implementations

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// liquidBlock - общая геометрия воды: прозрачный куб, грани видны изнутри
type liquidBlock struct{}

func (liquidBlock) IsTransparent() bool { return true }

func (liquidBlock) SideVertices(side block.Side, origin mgl32.Vec3) []mgl32.Vec3 {
	return block.CubeSideVertices(side, origin)
}

func (liquidBlock) SideTriangles(side block.Side) []uint32 { return block.InsideTriangles }

func (liquidBlock) SideUVs(side block.Side) []mgl32.Vec2 { return block.UnitUVs() }

func (liquidBlock) NeedsTick() bool { return true }

// WaterBehavior реализует поведение текущей воды с уровнем
type WaterBehavior struct {
	liquidBlock
}

// ID возвращает идентификатор блока
func (b *WaterBehavior) ID() block.BlockID {
	return block.WaterBlockID
}

// Name возвращает имя блока
func (b *WaterBehavior) Name() string {
	return "Water"
}

// TickUpdate растекает воду на один шаг
func (b *WaterBehavior) TickUpdate(api block.BlockAPI, pos vec.Vec3) bool {
	return spreadWater(api, pos, api.GetBlockData(pos).Level)
}

// CreateData создаёт воду максимального уровня
func (b *WaterBehavior) CreateData(direction block.Side) block.BlockData {
	return block.BlockData{Direction: direction, Level: block.MaxWaterLevel}
}

// spreadWater выполняет один шаг растекания. Вода сначала падает вниз на полный уровень,
// иначе растекается в стороны с уровнем на единицу меньше. Если упасть нельзя (дно мира
// или запись не удалась), вода растекается в стороны. Уровень в стороны строго убывает,
// падение ограничено высотой мира, поэтому распространение конечно.
func spreadWater(api block.BlockAPI, pos vec.Vec3, level uint8) bool {
	below := pos.Add(vec.Vec3{Y: -1})
	if below.Y >= 0 && api.GetBlockID(below) == block.AirBlockID {
		data := block.BlockData{Direction: block.SideDown, Level: block.MaxWaterLevel}
		if api.SetBlock(below, block.WaterBlockID, data) {
			api.ScheduleUpdate(below)
			return true
		}
	}

	if level <= 1 {
		return false
	}

	changed := false
	for _, side := range block.AllSides {
		if !side.IsHorizontal() {
			continue
		}
		target := pos.Add(side.Offset())
		if api.GetBlockID(target) != block.AirBlockID {
			continue
		}
		data := block.BlockData{Direction: side, Level: level - 1}
		if api.SetBlock(target, block.WaterBlockID, data) {
			api.ScheduleUpdate(target)
			changed = true
		}
	}
	return changed
}
