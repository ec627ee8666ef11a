package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
	"github.com/annel0/tome/internal/world"
)

var tileKeyPrefix = []byte("tile:")

// BadgerTileStore карта тайлов поверх BadgerDB.
// Открывается в режиме in-memory: состояние живёт только в рамках сессии.
type BadgerTileStore struct {
	db      *badger.DB
	catalog *tile.Catalog
	mutex   sync.RWMutex
	count   int
	isReady bool
}

// tileRecord запись ячейки. Определение хранится по ключу каталога.
type tileRecord struct {
	Handle uint64 `json:"h,omitempty"`
	Key    string `json:"k,omitempty"`
}

// NewBadgerTileStore открывает in-memory BadgerDB для карты тайлов
func NewBadgerTileStore(catalog *tile.Catalog) (*BadgerTileStore, error) {
	if catalog == nil {
		return nil, fmt.Errorf("каталог не задан")
	}

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerTileStore{
		db:      db,
		catalog: catalog,
		isReady: true,
	}, nil
}

// Close закрывает хранилище
func (s *BadgerTileStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	return s.db.Close()
}

// encodeTileKey кодирует координату так, что порядок байт совпадает с порядком (z, y, x)
func encodeTileKey(c vec.Vec3) []byte {
	key := make([]byte, len(tileKeyPrefix)+24)
	n := copy(key, tileKeyPrefix)
	for i, v := range []int{c.Z, c.Y, c.X} {
		binary.BigEndian.PutUint64(key[n+i*8:], uint64(int64(v))^(1<<63))
	}
	return key
}

func decodeTileKey(key []byte) (vec.Vec3, error) {
	if len(key) != len(tileKeyPrefix)+24 {
		return vec.Vec3{}, fmt.Errorf("неверная длина ключа: %d", len(key))
	}
	body := key[len(tileKeyPrefix):]
	read := func(i int) int {
		return int(int64(binary.BigEndian.Uint64(body[i*8:]) ^ (1 << 63)))
	}
	return vec.Vec3{Z: read(0), Y: read(1), X: read(2)}, nil
}

func (s *BadgerTileStore) decode(data []byte) (world.TileInstance, error) {
	var rec tileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return world.TileInstance{}, fmt.Errorf("ошибка десериализации тайла: %w", err)
	}
	if rec.Handle == 0 {
		return world.EmptyTile(), nil
	}
	def, ok := s.catalog.Lookup(rec.Key)
	if !ok {
		return world.TileInstance{}, fmt.Errorf("определение %q отсутствует в каталоге", rec.Key)
	}
	return world.TileInstance{Handle: world.Handle(rec.Handle), Def: def}, nil
}

func (s *BadgerTileStore) Get(coord vec.Vec3) (world.TileInstance, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.isReady {
		return world.TileInstance{}, false, ErrStoreClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeTileKey(coord))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return world.TileInstance{}, false, nil
	}
	if err != nil {
		return world.TileInstance{}, false, fmt.Errorf("ошибка чтения тайла %v: %w", coord, err)
	}

	inst, err := s.decode(data)
	if err != nil {
		return world.TileInstance{}, false, err
	}
	return inst, true, nil
}

func (s *BadgerTileStore) Put(coord vec.Vec3, inst world.TileInstance) error {
	rec := tileRecord{Handle: uint64(inst.Handle)}
	if inst.Occupied() {
		if inst.Def == nil {
			return fmt.Errorf("занятая ячейка %v без определения", coord)
		}
		rec.Key = inst.Def.Key
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации тайла: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return ErrStoreClosed
	}

	key := encodeTileKey(coord)
	existed := false
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			existed = true
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("ошибка записи тайла %v: %w", coord, err)
	}
	if !existed {
		s.count++
	}
	return nil
}

func (s *BadgerTileStore) Delete(coord vec.Vec3) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return ErrStoreClosed
	}

	key := encodeTileKey(coord)
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления тайла %v: %w", coord, err)
	}
	if existed {
		s.count--
	}
	return nil
}

func (s *BadgerTileStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.count
}

// Range обходит ячейки в порядке (z, y, x). fn вызывается вне транзакции,
// поэтому из него можно читать и менять хранилище.
func (s *BadgerTileStore) Range(fn func(coord vec.Vec3, inst world.TileInstance) bool) error {
	type entry struct {
		coord vec.Vec3
		inst  world.TileInstance
	}

	s.mutex.RLock()
	if !s.isReady {
		s.mutex.RUnlock()
		return ErrStoreClosed
	}

	var entries []entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = tileKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			coord, err := decodeTileKey(item.KeyCopy(nil))
			if err != nil {
				return err
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			inst, err := s.decode(data)
			if err != nil {
				return err
			}
			entries = append(entries, entry{coord: coord, inst: inst})
		}
		return nil
	})
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("ошибка обхода тайлов: %w", err)
	}

	for _, e := range entries {
		if !fn(e.coord, e.inst) {
			break
		}
	}
	return nil
}
