// Package observer содержит источники позиции наблюдателя для стримера.
package observer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/storage"
	"github.com/annel0/tome/internal/util"
	"github.com/annel0/tome/internal/vec"
)

// ErrNoPosition позиция наблюдателя ещё ни разу не была получена
var ErrNoPosition = errors.New("observer position unknown")

// Static неподвижный наблюдатель
type Static struct {
	mu  sync.RWMutex
	pos vec.Vec3Float
}

// NewStatic создаёт наблюдателя в точке pos
func NewStatic(pos vec.Vec3Float) *Static {
	return &Static{pos: pos}
}

func (s *Static) Position(context.Context) (vec.Vec3Float, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pos, nil
}

// Set переносит наблюдателя
func (s *Static) Set(pos vec.Vec3Float) {
	s.mu.Lock()
	s.pos = pos
	s.mu.Unlock()
}

// Walker наблюдатель, бродящий по шуму Перлина.
// Каждый вызов Position делает горизонтальный шаг длиной speed
// и, если задан climb, вертикальный сдвиг не больше climb.
type Walker struct {
	noise *util.Noise
	speed float64
	climb float64
	mu    sync.Mutex
	pos   vec.Vec3Float
	t     float64
}

// NewWalker создаёт детерминированного по seed бродягу
func NewWalker(seed int64, start vec.Vec3Float, speed float64) *Walker {
	return &Walker{
		noise: util.NewNoise(seed),
		speed: speed,
		pos:   start,
	}
}

// SetClimb задаёт наибольший вертикальный сдвиг за шаг. 0 - ходьба по одному этажу.
func (w *Walker) SetClimb(climb float64) {
	w.mu.Lock()
	w.climb = math.Abs(climb)
	w.mu.Unlock()
}

func (w *Walker) Position(ctx context.Context) (vec.Vec3Float, error) {
	if err := ctx.Err(); err != nil {
		return vec.Vec3Float{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Шум в [0,1] переводим в угол курса
	heading := w.noise.Noise1D(w.t*0.05) * 4 * math.Pi
	w.pos = w.pos.Add(vec.Vec3Float{
		X: math.Cos(heading) * w.speed,
		Y: math.Sin(heading) * w.speed,
	})
	if w.climb > 0 {
		// Вторая ось шума отделяет подъём от курса
		w.pos.Z += (w.noise.Noise2D(w.t*0.02, 0.5)*2 - 1) * w.climb
	}
	w.t++
	return w.pos, nil
}

// RepoSource читает последнюю позицию наблюдателя из PositionRepo.
// Если запись пропала или хранилище недоступно, возвращает последнюю известную позицию.
type RepoSource struct {
	repo       storage.PositionRepo
	observerID string
	logger     *logging.Logger

	mu    sync.Mutex
	last  vec.Vec3Float
	known bool
}

// NewRepoSource создаёт источник для наблюдателя observerID
func NewRepoSource(repo storage.PositionRepo, observerID string) *RepoSource {
	return &RepoSource{
		repo:       repo,
		observerID: observerID,
		logger:     logging.GetComponentLogger("observer"),
	}
}

// Seed задаёт стартовую позицию на случай, если в хранилище ещё ничего нет
func (s *RepoSource) Seed(pos vec.Vec3Float) {
	s.mu.Lock()
	s.last = pos
	s.known = true
	s.mu.Unlock()
}

func (s *RepoSource) Position(ctx context.Context) (vec.Vec3Float, error) {
	pos, found, err := s.repo.Load(ctx, s.observerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil && found {
		s.last = pos
		s.known = true
		return pos, nil
	}

	if err != nil {
		if ctx.Err() != nil {
			return vec.Vec3Float{}, ctx.Err()
		}
		s.logger.Warn("Не удалось прочитать позицию %s: %v", s.observerID, err)
	}
	if s.known {
		return s.last, nil
	}
	if err != nil {
		return vec.Vec3Float{}, fmt.Errorf("%w: %s: %w", ErrNoPosition, s.observerID, err)
	}
	return vec.Vec3Float{}, fmt.Errorf("%w: %s", ErrNoPosition, s.observerID)
}
