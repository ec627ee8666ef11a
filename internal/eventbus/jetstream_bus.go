package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/annel0/tome/internal/logging"
)

// JetStreamBus реализует EventBus поверх NATS JetStream.
type JetStreamBus struct {
	nc        *nats.Conn
	js        nats.JetStreamContext
	stream    string
	prefix    string
	published uint64
	consumed  uint64
	dropped   uint64
}

// NewJetStreamBus подключается к NATS и гарантирует наличие стрима.
// Subjects стрима: <stream в нижнем регистре>.<тип события>.
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = "TILES"
	}

	nc, err := nats.Connect(url, nats.Name("tome-generator"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	prefix := subjectPrefix(stream)
	if _, err := js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{prefix + ".*"},
			Retention: nats.LimitsPolicy,
			MaxAge:    retention,
			Storage:   nats.MemoryStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("add stream %s: %w", stream, err)
		}
	}

	logging.GetComponentLogger("eventbus").Info("JetStream %s подключен (%s)", stream, url)
	return &JetStreamBus{nc: nc, js: js, stream: stream, prefix: prefix}, nil
}

func subjectPrefix(stream string) string {
	out := make([]byte, 0, len(stream))
	for i := 0; i < len(stream); i++ {
		c := stream[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

func (jb *JetStreamBus) subject(eventType string) string {
	return jb.prefix + "." + eventType
}

// Publish сериализует Envelope в JSON и публикует в subject <prefix>.<type>.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		atomic.AddUint64(&jb.dropped, 1)
		return fmt.Errorf("сериализация события: %w", err)
	}

	if _, err := jb.js.Publish(jb.subject(ev.EventType), data, nats.Context(ctx), nats.MsgId(ev.ID)); err != nil {
		atomic.AddUint64(&jb.dropped, 1)
		return fmt.Errorf("публикация %s: %w", ev.EventType, err)
	}
	atomic.AddUint64(&jb.published, 1)
	return nil
}

// Subscribe создаёт эфемерного consumer'а и вызывает handler асинхронно.
// Фильтр по источникам применяется на стороне клиента.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := jb.prefix + ".*"
	if len(f.Types) == 1 {
		subj = jb.subject(f.Types[0])
	}

	natSub, err := jb.js.Subscribe(subj, func(msg *nats.Msg) {
		defer func() { _ = msg.Ack() }()

		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			atomic.AddUint64(&jb.dropped, 1)
			return
		}
		if !f.match(&ev) {
			return
		}
		h(ctx, &ev)
		atomic.AddUint64(&jb.consumed, 1)
	}, nats.ManualAck(), nats.DeliverNew(), nats.AckWait(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("подписка на %s: %w", subj, err)
	}

	return &jetSub{natSub}, nil
}

// jetSub обёртка вокруг *nats.Subscription
type jetSub struct {
	s *nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	_ = j.s.Unsubscribe()
}

// Metrics возвращает текущие счётчики; очередь хранит сам JetStream.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&jb.published),
		Consumed:  atomic.LoadUint64(&jb.consumed),
		Dropped:   atomic.LoadUint64(&jb.dropped),
	}
}

// Close сливает подписки и закрывает соединение
func (jb *JetStreamBus) Close() error {
	return jb.nc.Drain()
}
