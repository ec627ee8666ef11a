package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/tome/internal/vec"
	"github.com/annel0/tome/internal/world"
)

// TilePayload полезная нагрузка событий тайлов (JSON)
type TilePayload struct {
	Coord    vec.Vec3  `json:"coord"`
	Key      string    `json:"key,omitempty"`
	Type     string    `json:"type,omitempty"`
	Rotation float64   `json:"rotation"`
	Mirrored bool      `json:"mirrored"`
	Handle   uint64    `json:"handle,omitempty"`
	At       time.Time `json:"at"`
}

// TilePublisher публикует решения генератора в шину; реализует world.EventSink
type TilePublisher struct {
	bus    EventBus
	source string
}

// NewTilePublisher создаёт издателя событий тайлов
func NewTilePublisher(bus EventBus, source string) *TilePublisher {
	if source == "" {
		source = "generator"
	}
	return &TilePublisher{bus: bus, source: source}
}

// TypeOf сопоставляет тип события тайла с типом события шины
func TypeOf(t world.EventType) string {
	switch t {
	case world.EventTypeTilePlaced:
		return TypeTilePlaced
	case world.EventTypeTileEmpty:
		return TypeTileEmpty
	default:
		return TypeTileUnloaded
	}
}

func (p *TilePublisher) PublishTile(ctx context.Context, ev world.TileEvent) error {
	payload, err := json.Marshal(TilePayload{
		Coord:    ev.Coord,
		Key:      ev.Key,
		Type:     string(ev.Type),
		Rotation: ev.Rotation.Degrees(),
		Mirrored: ev.Mirrored,
		Handle:   uint64(ev.Handle),
		At:       ev.At,
	})
	if err != nil {
		return fmt.Errorf("сериализация события тайла: %w", err)
	}

	env := NewEnvelope(p.source, TypeOf(ev.EventType), payload)
	env.Metadata = map[string]string{
		"coord": fmt.Sprintf("%d,%d,%d", ev.Coord.X, ev.Coord.Y, ev.Coord.Z),
	}
	// Размещение важнее выгрузки при переполнении буфера
	if ev.EventType == world.EventTypeTilePlaced {
		env.Priority = 5
	}
	return p.bus.Publish(ctx, env)
}

// DecodeTile разбирает полезную нагрузку события тайла
func DecodeTile(ev *Envelope) (TilePayload, error) {
	var p TilePayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return TilePayload{}, fmt.Errorf("событие %s: %w", ev.ID, err)
	}
	return p, nil
}
