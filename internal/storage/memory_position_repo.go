package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/tome/internal/vec"
)

// MemoryPositionRepo реализует PositionRepo в памяти.
// Используется, когда позицию задаёт сам процесс (тесты, headless запуск),
// или как fallback без Redis/MariaDB.
type MemoryPositionRepo struct {
	mu   sync.RWMutex
	data map[string]vec.Vec3Float // observerID -> позиция
}

// NewMemoryPositionRepo создает новый репозиторий позиций в памяти.
func NewMemoryPositionRepo() *MemoryPositionRepo {
	return &MemoryPositionRepo{
		data: make(map[string]vec.Vec3Float),
	}
}

// Save сохраняет позицию наблюдателя в памяти.
func (r *MemoryPositionRepo) Save(ctx context.Context, observerID string, pos vec.Vec3Float) error {
	if err := validatePosition(observerID, pos); err != nil {
		return err
	}

	// Проверяем контекст на отмену
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[observerID] = pos
	return nil
}

// Load загружает позицию наблюдателя из памяти.
func (r *MemoryPositionRepo) Load(ctx context.Context, observerID string) (vec.Vec3Float, bool, error) {
	if observerID == "" {
		return vec.Vec3Float{}, false, fmt.Errorf("пустой идентификатор наблюдателя")
	}

	select {
	case <-ctx.Done():
		return vec.Vec3Float{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.data[observerID]
	return pos, exists, nil
}

// Delete удаляет сохраненную позицию наблюдателя из памяти.
func (r *MemoryPositionRepo) Delete(ctx context.Context, observerID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[observerID]; !exists {
		return fmt.Errorf("позиция наблюдателя %s не найдена", observerID)
	}

	delete(r.data, observerID)
	return nil
}

// BatchSave сохраняет позиции нескольких наблюдателей в памяти.
func (r *MemoryPositionRepo) BatchSave(ctx context.Context, positions map[string]vec.Vec3Float) error {
	if len(positions) == 0 {
		return nil // Нечего сохранять
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Валидация всех записей перед сохранением
	for observerID, pos := range positions {
		if err := validatePosition(observerID, pos); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for observerID, pos := range positions {
		r.data[observerID] = pos
	}

	return nil
}

// Count возвращает количество сохраненных позиций (для отладки).
func (r *MemoryPositionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
