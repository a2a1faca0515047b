package block

import "fmt"

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков.
// Набор закрыт: каждому ID в [0, BlockCount) соответствует ровно одно поведение.
const (
	AirBlockID         BlockID = iota // 0
	StoneBlockID                      // 1
	GrassBlockID                      // 2
	WaterBlockID                      // 3 - текущая вода с уровнем
	SandBlockID                       // 4
	DirtBlockID                       // 5
	WaterSourceBlockID                // 6 - источник воды
	LogBlockID                        // 7 - ствол дерева
	LeavesBlockID                     // 8 - листва

	BlockCount // всегда последний: количество типов блоков
)

var registry [BlockCount]BlockBehavior

// Register добавляет поведение блока в регистр.
// Паникует при попытке зарегистрировать ID вне закрытого набора или несовпадении ID.
func Register(id BlockID, behavior BlockBehavior) {
	if id >= BlockCount {
		panic(fmt.Sprintf("block: ID %d вне закрытого набора (BlockCount=%d)", id, BlockCount))
	}
	if behavior.ID() != id {
		panic(fmt.Sprintf("block: поведение %s имеет ID %d, а регистрируется как %d", behavior.Name(), behavior.ID(), id))
	}
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	if id >= BlockCount {
		return nil, false
	}
	behavior := registry[id]
	return behavior, behavior != nil
}

// MustGet возвращает поведение или поведение воздуха для неизвестных ID
func MustGet(id BlockID) BlockBehavior {
	if behavior, ok := Get(id); ok {
		return behavior
	}
	return registry[AirBlockID]
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// IsTransparent сообщает, пропускает ли блок соседние грани.
// Незарегистрированные ID считаются прозрачными, чтобы отсечение граней оставалось тотальным.
func IsTransparent(id BlockID) bool {
	behavior, ok := Get(id)
	if !ok {
		return true
	}
	return behavior.IsTransparent()
}

// String возвращает имя блока
func (id BlockID) String() string {
	if behavior, ok := Get(id); ok {
		return behavior.Name()
	}
	return fmt.Sprintf("Unknown(%d)", uint16(id))
}
