package world

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/tome/internal/logging"
)

// Runner выполняет тики стримера с фиксированным интервалом.
// Тик - единственный писатель; читатели работают через View.
type Runner struct {
	streamer *Streamer
	interval time.Duration
	logger   *logging.Logger

	mu       sync.RWMutex
	ticks    uint64
	failures uint64
	last     TickReport
	lastErr  error
}

// NewRunner создаёт цикл тиков
func NewRunner(streamer *Streamer, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &Runner{
		streamer: streamer,
		interval: interval,
		logger:   streamer.logger,
	}
}

// Run крутит тики до отмены контекста. Ошибка тика логируется, цикл продолжается.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Цикл генерации запущен (интервал %s)", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Цикл генерации остановлен после %d тиков", r.Ticks())
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Step(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("Ошибка тика: %v", err)
			}
		}
	}
}

// Step выполняет один тик под блокировкой записи
func (r *Runner) Step(ctx context.Context) (TickReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, err := r.streamer.Tick(ctx)
	r.ticks++
	r.last = report
	r.lastErr = err
	if err != nil {
		r.failures++
	}
	return report, err
}

// View даёт согласованный доступ на чтение к карте тайлов между тиками
func (r *Runner) View(fn func(gen *Generator)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.streamer.gen)
}

// LastReport возвращает последний отчёт и ошибку тика
func (r *Runner) LastReport() (TickReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.lastErr
}

// Ticks количество выполненных тиков
func (r *Runner) Ticks() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ticks
}

// Failures количество тиков, завершившихся ошибкой
func (r *Runner) Failures() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failures
}

// Streamer возвращает стример
func (r *Runner) Streamer() *Streamer {
	return r.streamer
}
