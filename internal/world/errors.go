package world

import "errors"

var (
	// ErrRegionNotFound - регион не загружен или ещё не активен
	ErrRegionNotFound = errors.New("world: регион не активен")
	// ErrOutOfRange - локальная позиция вне региона
	ErrOutOfRange = errors.New("world: позиция вне региона")
	// ErrTaskInvalidated - загрузка региона потеряла смысл (наблюдатель ушёл) или отменена
	ErrTaskInvalidated = errors.New("world: задача загрузки отменена")
)
