package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/dgraph-io/badger/v3"
)

// BadgerStore реализует InactiveStore поверх BadgerDB в режиме in-memory.
// Снимки хранятся закодированными (и сжатыми), поэтому занимают заметно меньше памяти,
// чем MemoryStore. На диск ничего не пишется.
type BadgerStore struct {
	db      *badger.DB
	codec   *Codec
	mutex   sync.RWMutex
	isReady bool
	count   atomic.Int64
}

// NewBadgerStore открывает BadgerDB в памяти
func NewBadgerStore(compress bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	codec, err := NewCodec(compress)
	if err != nil {
		db.Close()
		return nil, err
	}

	logging.GetStorageLogger().Info("💾 BadgerDB in-memory хранилище регионов открыто (сжатие: %v)", compress)

	return &BadgerStore{
		db:      db,
		codec:   codec,
		isReady: true,
	}, nil
}

func regionDBKey(key RegionKey) []byte {
	return []byte(fmt.Sprintf("region:%d:%d", key.X, key.Z))
}

// Save кодирует и сохраняет снимок
func (s *BadgerStore) Save(ctx context.Context, key RegionKey, snap *Snapshot) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := s.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("кодирование региона %s: %w", key, err)
	}

	dbKey := regionDBKey(key)
	created := false
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(dbKey); errors.Is(err, badger.ErrKeyNotFound) {
			created = true
		} else if err != nil {
			return err
		}
		return txn.Set(dbKey, data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	if created {
		s.count.Add(1)
	}
	return nil
}

// Load читает и декодирует снимок в dst
func (s *BadgerStore) Load(ctx context.Context, key RegionKey, dst *Snapshot) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return false, fmt.Errorf("хранилище не готово")
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(regionDBKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return s.codec.Decode(val, dst)
		})
	})

	// Регион ещё не сохранялся
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения региона %s: %w", key, err)
	}
	return true, nil
}

// Delete удаляет снимок региона
func (s *BadgerStore) Delete(ctx context.Context, key RegionKey) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	dbKey := regionDBKey(key)
	deleted := false
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(dbKey); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		deleted = true
		return txn.Delete(dbKey)
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	if deleted {
		s.count.Add(-1)
	}
	return nil
}

// Count возвращает количество сохранённых регионов
func (s *BadgerStore) Count() int {
	return int(s.count.Load())
}

// Close закрывает хранилище данных
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}

	s.isReady = false
	s.codec.Close()
	return s.db.Close()
}
