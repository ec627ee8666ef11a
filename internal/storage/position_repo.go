package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/annel0/tome/internal/vec"
)

// ErrStoreClosed хранилище уже закрыто
var ErrStoreClosed = errors.New("store closed")

// PositionRepo определяет интерфейс для сохранения и загрузки позиций наблюдателей.
// Внешняя система (клиент, игровой сервер) пишет позицию, генератор читает её раз за тик.
type PositionRepo interface {
	// Save сохраняет позицию наблюдателя.
	// Параметры:
	//   ctx - контекст для отмены операции
	//   observerID - идентификатор наблюдателя
	//   pos - позиция в мировых единицах
	// Возвращает:
	//   error - ошибка при сохранении
	Save(ctx context.Context, observerID string, pos vec.Vec3Float) error

	// Load загружает последнюю позицию наблюдателя.
	// Возвращает:
	//   vec.Vec3Float - позиция
	//   bool - true если позиция найдена
	//   error - ошибка при загрузке
	Load(ctx context.Context, observerID string) (vec.Vec3Float, bool, error)

	// Delete удаляет сохранённую позицию наблюдателя.
	Delete(ctx context.Context, observerID string) error

	// BatchSave сохраняет позиции нескольких наблюдателей одновременно.
	BatchSave(ctx context.Context, positions map[string]vec.Vec3Float) error
}

// ObserverPosition запись позиции наблюдателя
type ObserverPosition struct {
	ObserverID string        `json:"observer_id"`
	Position   vec.Vec3Float `json:"position"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// validatePosition общая проверка входных данных для всех реализаций
func validatePosition(observerID string, pos vec.Vec3Float) error {
	if observerID == "" {
		return fmt.Errorf("пустой идентификатор наблюдателя")
	}
	for _, v := range []float64{pos.X, pos.Y, pos.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("недействительная позиция для %s: %+v", observerID, pos)
		}
	}
	return nil
}
