package eventbus

import (
	"context"
	"errors"
	"sync"
)

// ErrBusClosed шина закрыта
var ErrBusClosed = errors.New("event bus closed")

// MemoryBus шина в памяти процесса. Каждый подписчик получает события
// в порядке публикации через собственную очередь.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]*subscriber
	nextID      int
	statsMu     sync.Mutex
	stats       Stats
	buffer      chan *Envelope
	closed      bool
	quit        chan struct{}
	done        chan struct{}
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
	queue   chan *Envelope
}

// NewMemoryBus создаёт шину с буфером указанной ёмкости.
func NewMemoryBus(capacity int) *MemoryBus {
	if capacity <= 0 {
		capacity = 1024
	}
	mb := &MemoryBus{
		subscribers: make(map[int]*subscriber),
		buffer:      make(chan *Envelope, capacity),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

// Publish ставит событие в очередь. При переполнении низкий приоритет (<5)
// отбрасывается, высокий ждёт места или отмены контекста.
func (mb *MemoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.mu.RLock()
	closed := mb.closed
	mb.mu.RUnlock()
	if closed {
		return ErrBusClosed
	}

	// Блокировка не держится на время отправки: подписка не должна ждать издателя
	select {
	case mb.buffer <- ev:
		mb.count(&mb.stats.Published)
		return nil
	case <-mb.quit:
		return ErrBusClosed
	default:
	}

	if ev.Priority < 5 {
		mb.count(&mb.stats.Dropped)
		return nil
	}

	select {
	case mb.buffer <- ev:
		mb.count(&mb.stats.Published)
		return nil
	case <-mb.quit:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (mb *MemoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return nil, ErrBusClosed
	}

	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	sub := &subscriber{
		filter:  f,
		handler: h,
		ctx:     cctx,
		cancel:  cancel,
		queue:   make(chan *Envelope, cap(mb.buffer)),
	}
	mb.subscribers[id] = sub
	go mb.consume(sub)

	return &memSub{bus: mb, id: id}, nil
}

func (mb *MemoryBus) Metrics() Stats {
	mb.statsMu.Lock()
	defer mb.statsMu.Unlock()
	s := mb.stats
	s.InFlight = len(mb.buffer)
	return s
}

// Close останавливает рассылку и отписывает всех подписчиков
func (mb *MemoryBus) Close() error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.quit)
	mb.mu.Unlock()

	<-mb.done

	mb.mu.Lock()
	for id, sub := range mb.subscribers {
		sub.cancel()
		delete(mb.subscribers, id)
	}
	mb.mu.Unlock()
	return nil
}

func (mb *MemoryBus) count(c *uint64) {
	mb.statsMu.Lock()
	*c++
	mb.statsMu.Unlock()
}

func (mb *MemoryBus) dispatchLoop() {
	defer close(mb.done)

	for {
		var ev *Envelope
		select {
		case <-mb.quit:
			return
		case ev = <-mb.buffer:
		}

		mb.mu.RLock()
		subs := make([]*subscriber, 0, len(mb.subscribers))
		for _, sub := range mb.subscribers {
			subs = append(subs, sub)
		}
		mb.mu.RUnlock()

		for _, sub := range subs {
			if !sub.filter.match(ev) {
				continue
			}
			select {
			case sub.queue <- ev:
			default:
				// Медленный подписчик теряет событие
				mb.count(&mb.stats.Dropped)
			}
		}
	}
}

func (mb *MemoryBus) consume(s *subscriber) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.queue:
			s.handler(s.ctx, ev)
			mb.count(&mb.stats.Consumed)
		}
	}
}

type memSub struct {
	bus *MemoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
