package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/voxel-stream/internal/world/block"
)

// MemoryStore реализует InactiveStore на карте копий.
// Самый быстрый вариант, память не сжимается.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[RegionKey]*Snapshot
}

// NewMemoryStore создает новое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[RegionKey]*Snapshot),
	}
}

// Save сохраняет копию снимка
func (s *MemoryStore) Save(ctx context.Context, key RegionKey, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("storage: пустой снимок для региона %s", key)
	}
	if err := checkCtx(ctx); err != nil {
		return err
	}

	cp := &Snapshot{
		Blocks: append([]block.BlockID(nil), snap.Blocks...),
		Data:   append([]block.BlockData(nil), snap.Data...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cp
	return nil
}

// Load копирует сохранённый снимок в dst
func (s *MemoryStore) Load(ctx context.Context, key RegionKey, dst *Snapshot) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if len(snap.Blocks) != len(dst.Blocks) || len(snap.Data) != len(dst.Data) {
		return false, fmt.Errorf("регион %s: %w", key, ErrSizeMismatch)
	}
	copy(dst.Blocks, snap.Blocks)
	copy(dst.Data, snap.Data)
	return true, nil
}

// Delete удаляет снимок региона
func (s *MemoryStore) Delete(ctx context.Context, key RegionKey) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Count возвращает количество сохраненных регионов
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close очищает хранилище
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[RegionKey]*Snapshot)
	return nil
}
