package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Типы событий шины
const (
	TypeTilePlaced   = "TilePlaced"
	TypeTileEmpty    = "TileEmpty"
	TypeTileUnloaded = "TileUnloaded"
)

// Envelope контейнер события шины
type Envelope struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"ts"`
	Source        string            `json:"source"`
	EventType     string            `json:"type"`
	Version       int               `json:"version"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Priority      int               `json:"priority"` // 0=Low … 9=Critical
	Payload       []byte            `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope создаёт событие с новым UUID и текущим временем (UTC)
func NewEnvelope(source, eventType string, payload []byte) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Payload:   payload,
	}
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто, все типы
	Sources []string // Если пусто, все источники
}

func (f Filter) match(ev *Envelope) bool {
	return matchAny(ev.EventType, f.Types) && matchAny(ev.Source, f.Sources)
}

func matchAny(val string, arr []string) bool {
	if len(arr) == 0 {
		return true
	}
	for _, v := range arr {
		if v == val {
			return true
		}
	}
	return false
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus абстракция шины событий (память или JetStream)
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}
