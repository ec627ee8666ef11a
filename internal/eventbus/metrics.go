package eventbus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter периодически переносит Stats шины в метрики Prometheus.
// HTTP-эндпоинт /metrics обслуживает REST сервер.
type MetricsExporter struct {
	bus      EventBus
	interval time.Duration
	quit     chan struct{}
	done     chan struct{}
	prev     Stats

	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в reg (nil - без регистрации).
func NewMetricsExporter(bus EventBus, reg prometheus.Registerer) *MetricsExporter {
	me := &MetricsExporter{
		bus:      bus,
		interval: time.Second,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tome",
			Subsystem: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных сообщений.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tome",
			Subsystem: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных сообщений подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tome",
			Subsystem: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "Сообщений, отброшенных из-за ошибок или переполнения.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tome",
			Subsystem: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений в очереди.",
		}),
	}

	if reg != nil {
		reg.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	}
	return me
}

// Start запускает периодическое обновление в отдельной горутине
func (m *MetricsExporter) Start() {
	go m.loop()
}

// Stop останавливает обновление метрик
func (m *MetricsExporter) Stop() {
	close(m.quit)
	<-m.done
}

// Collect переносит приращения счётчиков с прошлого вызова
func (m *MetricsExporter) Collect() {
	stats := m.bus.Metrics()

	if d := stats.Published - m.prev.Published; d > 0 {
		m.published.Add(float64(d))
	}
	if d := stats.Consumed - m.prev.Consumed; d > 0 {
		m.consumed.Add(float64(d))
	}
	if d := stats.Dropped - m.prev.Dropped; d > 0 {
		m.dropped.Add(float64(d))
	}
	m.inflight.Set(float64(stats.InFlight))

	m.prev = stats
}

func (m *MetricsExporter) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer close(m.done)

	for {
		select {
		case <-ticker.C:
			m.Collect()
		case <-m.quit:
			return
		}
	}
}
