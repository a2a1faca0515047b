package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/voxel-stream/internal/world/block"
)

// ErrSizeMismatch возвращается, если сохранённая сетка не совпадает по размеру с приёмником
var ErrSizeMismatch = errors.New("storage: размер снимка не совпадает")

// RegionKey - координаты региона в сетке регионов
type RegionKey struct {
	X, Z int
}

func (k RegionKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.X, k.Z)
}

// Snapshot - копия плоских массивов региона вместе с ореолом
type Snapshot struct {
	Blocks []block.BlockID
	Data   []block.BlockData
}

// InactiveStore хранит сетки выгруженных регионов, чтобы при повторной загрузке
// восстановить правки вместо генерации заново. Данные живут только в памяти процесса.
type InactiveStore interface {
	// Save сохраняет копию снимка. Повторное сохранение перезаписывает прежнее.
	Save(ctx context.Context, key RegionKey, snap *Snapshot) error

	// Load копирует сохранённый снимок в dst (массивы dst уже выделены).
	// Возвращает false, если регион ещё не сохранялся.
	Load(ctx context.Context, key RegionKey, dst *Snapshot) (bool, error)

	// Delete удаляет снимок региона
	Delete(ctx context.Context, key RegionKey) error

	// Count возвращает количество сохранённых регионов
	Count() int

	Close() error
}

// New создаёт хранилище по имени бэкенда из конфигурации
func New(backend string, compress bool) (InactiveStore, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "badger":
		return NewBadgerStore(compress)
	}
	return nil, fmt.Errorf("storage: неизвестный бэкенд %q", backend)
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
