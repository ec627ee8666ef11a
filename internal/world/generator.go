package world

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
)

// Rand источник случайности для выбора кандидата. *rand.Rand подходит.
type Rand interface {
	Intn(n int) int
}

// GeneratorConfig настройки генератора
type GeneratorConfig struct {
	Grid   Grid
	Origin vec.Vec3 // ячейка, где допускаются только определения с CanSpawnHere
	// SymmetricBlacklist проверяет чёрный список и со стороны уже стоящего соседа
	SymmetricBlacklist bool
	// RefreshMirroredVisibility дважды переключает видимость отражённых объектов
	RefreshMirroredVisibility bool
}

// Generator выбирает и размещает тайлы в нерешённых ячейках
type Generator struct {
	cfg     GeneratorConfig
	catalog *tile.Catalog
	store   TileStore
	spawner Spawner
	rng     Rand
	anchor  Handle
	events  EventSink
	metrics Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewGenerator создаёт генератор. Все зависимости обязательны.
func NewGenerator(cfg GeneratorConfig, catalog *tile.Catalog, store TileStore, spawner Spawner, rng Rand) (*Generator, error) {
	switch {
	case catalog == nil:
		return nil, fmt.Errorf("каталог не задан")
	case store == nil:
		return nil, fmt.Errorf("хранилище тайлов не задано")
	case spawner == nil:
		return nil, fmt.Errorf("спавнер не задан")
	case rng == nil:
		return nil, fmt.Errorf("источник случайности не задан")
	}

	return &Generator{
		cfg:     cfg,
		catalog: catalog,
		store:   store,
		spawner: spawner,
		rng:     rng,
		metrics: noopMetrics{},
		logger:  logging.GetWorldLogger(),
		now:     time.Now,
	}, nil
}

// SetAnchor задаёт родительский объект для всех тайлов
func (g *Generator) SetAnchor(h Handle) {
	g.anchor = h
}

// SetEventSink задаёт получателя событий тайлов
func (g *Generator) SetEventSink(sink EventSink) {
	g.events = sink
}

// SetMetrics задаёт приёмник метрик
func (g *Generator) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	g.metrics = m
}

// SetLogger заменяет логгер
func (g *Generator) SetLogger(l *logging.Logger) {
	g.logger = l
}

// Store возвращает карту тайлов
func (g *Generator) Store() TileStore {
	return g.store
}

// Spawner возвращает спавнер объектов
func (g *Generator) Spawner() Spawner {
	return g.spawner
}

// Catalog возвращает каталог
func (g *Generator) Catalog() *tile.Catalog {
	return g.catalog
}

// Grid возвращает сетку
func (g *Generator) Grid() Grid {
	return g.cfg.Grid
}

// GenerateTile решает ячейку: размещает случайного допустимого кандидата или
// помечает ячейку навсегда пустой. Ячейка должна быть нерешённой, повторное
// решение не проверяется.
func (g *Generator) GenerateTile(ctx context.Context, coord vec.Vec3) (TileInstance, error) {
	candidates, err := g.Candidates(coord)
	if err != nil {
		return TileInstance{}, fmt.Errorf("поиск кандидатов для %v: %w", coord, err)
	}
	g.metrics.ObserveCandidates(len(candidates))

	if len(candidates) == 0 {
		g.logger.Debug("Нет допустимых кандидатов для %v, ячейка пуста", coord)
		if err := g.store.Put(coord, EmptyTile()); err != nil {
			return TileInstance{}, fmt.Errorf("запись пустой ячейки %v: %w", coord, err)
		}
		g.publish(ctx, TileEvent{EventType: EventTypeTileEmpty, Coord: coord})
		return EmptyTile(), nil
	}

	pick := candidates[g.rng.Intn(len(candidates))]
	return g.PlaceTile(ctx, coord, pick.Rotation, pick.Scale, pick.Def)
}

func (g *Generator) publish(ctx context.Context, ev TileEvent) {
	if g.events == nil {
		return
	}
	ev.At = g.now()
	if err := g.events.PublishTile(ctx, ev); err != nil {
		g.logger.Warn("Не удалось опубликовать событие %s для %v: %v", ev.EventType, ev.Coord, err)
	}
}
