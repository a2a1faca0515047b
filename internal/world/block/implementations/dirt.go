package implementations

import (
	"github.com/annel0/voxel-stream/internal/world/block"
)

// DirtBehavior реализует поведение блока земли
type DirtBehavior struct {
	solidBlock
}

// ID возвращает идентификатор блока
func (b *DirtBehavior) ID() block.BlockID {
	return block.DirtBlockID
}

// Name возвращает имя блока
func (b *DirtBehavior) Name() string {
	return "Dirt"
}
