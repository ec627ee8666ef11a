package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
	"github.com/annel0/tome/internal/world"
)

// Actor объект сцены
type Actor struct {
	Handle  world.Handle
	Name    string
	Type    tile.TypeRef
	Parent  world.Handle
	Visible bool
	world.Transform
}

// Stats счётчики сцены
type Stats struct {
	Live      int    `json:"live"`
	Spawned   uint64 `json:"spawned"`
	Destroyed uint64 `json:"destroyed"`
	Anchors   int    `json:"anchors"`
}

// Scene сцена в памяти, реализует world.Spawner
type Scene struct {
	actors    map[world.Handle]*Actor
	anchors   map[world.Handle]*Actor
	allowed   map[tile.TypeRef]struct{}
	nextID    uint64
	spawned   uint64
	destroyed uint64
	mu        sync.RWMutex
}

// NewScene создаёт пустую сцену
func NewScene() *Scene {
	return &Scene{
		actors:  make(map[world.Handle]*Actor),
		anchors: make(map[world.Handle]*Actor),
	}
}

// RestrictTypes ограничивает создаваемые типы. Без вызова разрешены все.
func (s *Scene) RestrictTypes(types ...tile.TypeRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed = make(map[tile.TypeRef]struct{}, len(types))
	for _, t := range types {
		s.allowed[t] = struct{}{}
	}
}

// CreateAnchor создаёт пустой родительский объект в начале координат
func (s *Scene) CreateAnchor(name string) world.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := world.Handle(atomic.AddUint64(&s.nextID, 1))
	s.anchors[h] = &Actor{
		Handle:    h,
		Name:      name,
		Visible:   true,
		Transform: world.Transform{Scale: vec.One},
	}
	return h
}

// Spawn создаёт объект тайла
func (s *Scene) Spawn(ctx context.Context, req world.SpawnRequest) (world.Handle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Type == "" {
		return 0, fmt.Errorf("пустой тип объекта")
	}
	if s.allowed != nil {
		if _, ok := s.allowed[req.Type]; !ok {
			return 0, fmt.Errorf("неизвестный тип объекта %q", req.Type)
		}
	}
	if req.Parent != 0 {
		if _, ok := s.anchors[req.Parent]; !ok {
			return 0, fmt.Errorf("родитель %d не найден", req.Parent)
		}
	}

	h := world.Handle(atomic.AddUint64(&s.nextID, 1))
	s.actors[h] = &Actor{
		Handle:  h,
		Name:    fmt.Sprintf("%s_%d", req.Type, h),
		Type:    req.Type,
		Parent:  req.Parent,
		Visible: true,
		Transform: world.Transform{
			Position: req.Position,
			Yaw:      req.Yaw,
			Scale:    req.Scale,
		},
	}
	s.spawned++
	return h, nil
}

// Destroy удаляет объект
func (s *Scene) Destroy(ctx context.Context, h world.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.actors[h]; !ok {
		return fmt.Errorf("объект %d не найден", h)
	}
	delete(s.actors, h)
	s.destroyed++
	return nil
}

// ToggleVisibility переключает видимость объекта
func (s *Scene) ToggleVisibility(h world.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[h]
	if !ok {
		return fmt.Errorf("объект %d не найден", h)
	}
	a.Visible = !a.Visible
	return nil
}

// Transform возвращает преобразование объекта
func (s *Scene) Transform(h world.Handle) (world.Transform, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.actors[h]
	if !ok {
		return world.Transform{}, false
	}
	return a.Transform, true
}

// Actor возвращает копию объекта
func (s *Scene) Actor(h world.Handle) (Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.actors[h]
	if !ok {
		return Actor{}, false
	}
	return *a, true
}

// Stats возвращает счётчики сцены
func (s *Scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Live:      len(s.actors),
		Spawned:   s.spawned,
		Destroyed: s.destroyed,
		Anchors:   len(s.anchors),
	}
}
