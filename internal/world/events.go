package world

import (
	"context"
	"time"

	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/vec"
)

// EventType определяет тип события тайла
type EventType uint8

const (
	EventTypeTilePlaced   EventType = iota // Ячейка занята объектом
	EventTypeTileEmpty                     // Ячейка решена пустой
	EventTypeTileUnloaded                  // Ячейка выгружена
)

func (t EventType) String() string {
	switch t {
	case EventTypeTilePlaced:
		return "placed"
	case EventTypeTileEmpty:
		return "empty"
	case EventTypeTileUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// TileEvent событие изменения карты тайлов
type TileEvent struct {
	EventType EventType
	Coord     vec.Vec3
	Key       string       // ключ определения, пусто для пустых ячеек
	Type      tile.TypeRef // тип объекта
	Rotation  tile.Rotation
	Mirrored  bool
	Handle    Handle
	At        time.Time
}

// EventSink получатель событий тайлов. Ошибки доставки не прерывают генерацию.
type EventSink interface {
	PublishTile(ctx context.Context, ev TileEvent) error
}

// EventSinkFunc адаптер функции к EventSink
type EventSinkFunc func(ctx context.Context, ev TileEvent) error

func (f EventSinkFunc) PublishTile(ctx context.Context, ev TileEvent) error {
	return f(ctx, ev)
}

// Metrics приёмник метрик генератора
type Metrics interface {
	ObserveTick(report TickReport)
	ObserveCandidates(count int)
	SpawnFailed()
	DestroyFailed()
}

type noopMetrics struct{}

func (noopMetrics) ObserveTick(TickReport) {}
func (noopMetrics) ObserveCandidates(int)  {}
func (noopMetrics) SpawnFailed()           {}
func (noopMetrics) DestroyFailed()         {}
