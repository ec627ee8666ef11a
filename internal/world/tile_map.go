package world

import (
	"sync"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
)

// Handle непрозрачный идентификатор объекта, выданный спавнером. 0 - нет объекта.
type Handle uint64

// TileInstance решение по ячейке: занята объектом или навсегда пуста
type TileInstance struct {
	Handle Handle
	Def    *tile.Definition
}

// EmptyTile навсегда пустая ячейка
func EmptyTile() TileInstance {
	return TileInstance{}
}

// Occupied true, если в ячейке есть объект
func (t TileInstance) Occupied() bool {
	return t.Handle != 0
}

// TileStore карта решённых ячеек. Присутствие координаты означает, что она решена.
type TileStore interface {
	Get(coord vec.Vec3) (TileInstance, bool, error)
	Put(coord vec.Vec3, inst TileInstance) error
	Delete(coord vec.Vec3) error
	Len() int
	// Range обходит записи в произвольном порядке, пока fn возвращает true
	Range(fn func(coord vec.Vec3, inst TileInstance) bool) error
}

// MemoryTileStore реализация TileStore на карте в памяти
type MemoryTileStore struct {
	mu    sync.RWMutex
	tiles map[vec.Vec3]TileInstance
}

// NewMemoryTileStore создаёт пустое хранилище
func NewMemoryTileStore() *MemoryTileStore {
	return &MemoryTileStore{tiles: make(map[vec.Vec3]TileInstance)}
}

func (s *MemoryTileStore) Get(coord vec.Vec3) (TileInstance, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.tiles[coord]
	return inst, ok, nil
}

func (s *MemoryTileStore) Put(coord vec.Vec3, inst TileInstance) error {
	s.mu.Lock()
	s.tiles[coord] = inst
	s.mu.Unlock()
	return nil
}

func (s *MemoryTileStore) Delete(coord vec.Vec3) error {
	s.mu.Lock()
	delete(s.tiles, coord)
	s.mu.Unlock()
	return nil
}

func (s *MemoryTileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tiles)
}

func (s *MemoryTileStore) Range(fn func(coord vec.Vec3, inst TileInstance) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for coord, inst := range s.tiles {
		if !fn(coord, inst) {
			break
		}
	}
	return nil
}

// TilesWithin собирает решённые ячейки на расстоянии (в ячейках, по Чебышёву) не больше radius
func TilesWithin(store TileStore, center vec.Vec3, radius int) (map[vec.Vec3]TileInstance, error) {
	out := make(map[vec.Vec3]TileInstance)
	err := store.Range(func(coord vec.Vec3, inst TileInstance) bool {
		d := coord.Sub(center)
		if abs(d.X) <= radius && abs(d.Y) <= radius && abs(d.Z) <= radius {
			out[coord] = inst
		}
		return true
	})
	return out, err
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
