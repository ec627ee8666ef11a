// Package metrics экспортирует метрики генератора тайлов в Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/tome/internal/world"
)

// GeneratorMetrics реализует world.Metrics.
//
// Метрики:
// * tome_generator_tick_duration_seconds: histogram
// * tome_generator_tiles_total{result}: counter (placed/empty/unloaded)
// * tome_generator_cells_scanned: gauge последнего тика
// * tome_generator_candidates: histogram числа кандидатов на ячейку
// * tome_generator_failures_total{op}: counter (spawn/destroy)
type GeneratorMetrics struct {
	tickDuration prometheus.Histogram
	tiles        *prometheus.CounterVec
	scanned      prometheus.Gauge
	queued       prometheus.Gauge
	candidates   prometheus.Histogram
	failures     *prometheus.CounterVec
}

// NewGeneratorMetrics создаёт метрики и регистрирует их в reg (nil - без регистрации).
func NewGeneratorMetrics(reg prometheus.Registerer) *GeneratorMetrics {
	m := &GeneratorMetrics{
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tome",
			Subsystem: "generator",
			Name:      "tick_duration_seconds",
			Help:      "Длительность тика стримера.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25},
		}),
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tome",
			Subsystem: "generator",
			Name:      "tiles_total",
			Help:      "Решённые и выгруженные ячейки.",
		}, []string{"result"}),
		scanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tome",
			Subsystem: "generator",
			Name:      "cells_scanned",
			Help:      "Ячеек просканировано за последний тик.",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tome",
			Subsystem: "generator",
			Name:      "cells_queued",
			Help:      "Ячеек поставлено в очередь генерации за последний тик.",
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tome",
			Subsystem: "generator",
			Name:      "candidates",
			Help:      "Число кандидатов на ячейку.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tome",
			Subsystem: "generator",
			Name:      "failures_total",
			Help:      "Ошибки внешнего спавнера.",
		}, []string{"op"}),
	}

	if reg != nil {
		reg.MustRegister(m.tickDuration, m.tiles, m.scanned, m.queued, m.candidates, m.failures)
	}
	return m
}

func (m *GeneratorMetrics) ObserveTick(r world.TickReport) {
	m.tickDuration.Observe(r.Duration.Seconds())
	m.scanned.Set(float64(r.Scanned))
	m.queued.Set(float64(r.Queued))
	m.tiles.WithLabelValues("placed").Add(float64(r.Placed))
	m.tiles.WithLabelValues("empty").Add(float64(r.Empty))
	m.tiles.WithLabelValues("unloaded").Add(float64(r.Unloaded))
}

func (m *GeneratorMetrics) ObserveCandidates(count int) {
	m.candidates.Observe(float64(count))
}

func (m *GeneratorMetrics) SpawnFailed() {
	m.failures.WithLabelValues("spawn").Inc()
}

func (m *GeneratorMetrics) DestroyFailed() {
	m.failures.WithLabelValues("destroy").Inc()
}
