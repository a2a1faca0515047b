package implementations

import (
	"github.com/annel0/voxel-stream/internal/world/block"
)

// StoneBehavior реализует поведение блока камня
type StoneBehavior struct {
	solidBlock
}

// ID возвращает идентификатор блока
func (b *StoneBehavior) ID() block.BlockID {
	return block.StoneBlockID
}

// Name возвращает имя блока
func (b *StoneBehavior) Name() string {
	return "Stone"
}

// SandBehavior - песок, статичный непрозрачный блок
type SandBehavior struct {
	solidBlock
}

func (b *SandBehavior) ID() block.BlockID { return block.SandBlockID }
func (b *SandBehavior) Name() string      { return "Sand" }
