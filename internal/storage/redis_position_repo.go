package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/vec"
)

// RedisPositionRepository хранит позиции наблюдателей в Redis.
// Запись идёт через батч-буфер, чтение сначала смотрит в буфер.
type RedisPositionRepository struct {
	client      *redis.Client
	keyPrefix   string
	ttl         time.Duration
	batchSize   int
	batchMu     sync.Mutex
	batchBuffer map[string]*ObserverPosition
	batchTicker *time.Ticker
	shutdown    chan struct{}
	closed      bool
	wg          sync.WaitGroup
	logger      *logging.Logger
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr         string        // Адрес Redis сервера
	Password     string        // Пароль (пустой если не требуется)
	DB           int           // Номер базы данных
	KeyPrefix    string        // Префикс для ключей
	TTL          time.Duration // Время жизни записей
	BatchSize    int           // Размер батча для записи
	BatchFlushMs int           // Интервал сброса батча в миллисекундах
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "tome:observer:",
		TTL:          5 * time.Minute,
		BatchSize:    100,
		BatchFlushMs: 100,
	}
}

// NewRedisPositionRepository создаёт новый Redis репозиторий для позиций
func NewRedisPositionRepository(ctx context.Context, config *RedisConfig) (*RedisPositionRepository, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	repo := newRedisRepo(client, config)

	repo.wg.Add(1)
	go repo.batchFlusher()

	repo.logger.Info("Connected to Redis at %s", config.Addr)
	return repo, nil
}

func newRedisRepo(client *redis.Client, config *RedisConfig) *RedisPositionRepository {
	flush := config.BatchFlushMs
	if flush <= 0 {
		flush = 100
	}
	batch := config.BatchSize
	if batch <= 0 {
		batch = 1
	}
	return &RedisPositionRepository{
		client:      client,
		keyPrefix:   config.KeyPrefix,
		ttl:         config.TTL,
		batchSize:   batch,
		batchBuffer: make(map[string]*ObserverPosition),
		batchTicker: time.NewTicker(time.Duration(flush) * time.Millisecond),
		shutdown:    make(chan struct{}),
		logger:      logging.GetComponentLogger("storage"),
	}
}

func (r *RedisPositionRepository) key(observerID string) string {
	return r.keyPrefix + observerID
}

// Save буферизует позицию; при заполнении буфера сбрасывает его сразу
func (r *RedisPositionRepository) Save(ctx context.Context, observerID string, pos vec.Vec3Float) error {
	if err := validatePosition(observerID, pos); err != nil {
		return err
	}

	rec := &ObserverPosition{ObserverID: observerID, Position: pos, UpdatedAt: time.Now()}

	r.batchMu.Lock()
	if r.closed {
		r.batchMu.Unlock()
		return ErrStoreClosed
	}
	r.batchBuffer[observerID] = rec

	if len(r.batchBuffer) >= r.batchSize {
		batch := r.batchBuffer
		r.batchBuffer = make(map[string]*ObserverPosition)
		r.batchMu.Unlock()

		return r.flushBatch(ctx, batch)
	}

	r.batchMu.Unlock()
	return nil
}

// Load получает позицию наблюдателя
func (r *RedisPositionRepository) Load(ctx context.Context, observerID string) (vec.Vec3Float, bool, error) {
	r.batchMu.Lock()
	if rec, ok := r.batchBuffer[observerID]; ok {
		r.batchMu.Unlock()
		return rec.Position, true, nil
	}
	r.batchMu.Unlock()

	data, err := r.client.Get(ctx, r.key(observerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return vec.Vec3Float{}, false, nil
	} else if err != nil {
		return vec.Vec3Float{}, false, fmt.Errorf("failed to get position: %w", err)
	}

	rec, err := decodeObserverPosition(data)
	if err != nil {
		return vec.Vec3Float{}, false, err
	}
	return rec.Position, true, nil
}

// Delete удаляет позицию наблюдателя
func (r *RedisPositionRepository) Delete(ctx context.Context, observerID string) error {
	r.batchMu.Lock()
	delete(r.batchBuffer, observerID)
	r.batchMu.Unlock()

	if err := r.client.Del(ctx, r.key(observerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

// BatchSave пишет позиции сразу, минуя буфер
func (r *RedisPositionRepository) BatchSave(ctx context.Context, positions map[string]vec.Vec3Float) error {
	batch := make(map[string]*ObserverPosition, len(positions))
	now := time.Now()
	for observerID, pos := range positions {
		if err := validatePosition(observerID, pos); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		batch[observerID] = &ObserverPosition{ObserverID: observerID, Position: pos, UpdatedAt: now}
	}
	return r.flushBatch(ctx, batch)
}

// Close сбрасывает буфер и закрывает соединение с Redis
func (r *RedisPositionRepository) Close() error {
	r.batchMu.Lock()
	if r.closed {
		r.batchMu.Unlock()
		return nil
	}
	r.closed = true
	batch := r.batchBuffer
	r.batchBuffer = make(map[string]*ObserverPosition)
	r.batchMu.Unlock()

	close(r.shutdown)
	r.wg.Wait()
	r.batchTicker.Stop()

	if err := r.flushBatch(context.Background(), batch); err != nil {
		r.logger.Warn("Failed to flush batch on close: %v", err)
	}
	return r.client.Close()
}

// batchFlusher периодически сбрасывает батч-буфер
func (r *RedisPositionRepository) batchFlusher() {
	defer r.wg.Done()

	for {
		select {
		case <-r.shutdown:
			return
		case <-r.batchTicker.C:
			r.batchMu.Lock()
			if len(r.batchBuffer) == 0 {
				r.batchMu.Unlock()
				continue
			}
			batch := r.batchBuffer
			r.batchBuffer = make(map[string]*ObserverPosition)
			r.batchMu.Unlock()

			if err := r.flushBatch(context.Background(), batch); err != nil {
				r.logger.Error("Failed to flush batch: %v", err)
			}
		}
	}
}

// flushBatch записывает батч позиций в Redis одним пайплайном
func (r *RedisPositionRepository) flushBatch(ctx context.Context, batch map[string]*ObserverPosition) error {
	if len(batch) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for observerID, rec := range batch {
		data, err := json.Marshal(rec)
		if err != nil {
			r.logger.Warn("Failed to marshal position for %s: %v", observerID, err)
			continue
		}
		pipe.Set(ctx, r.key(observerID), data, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

func decodeObserverPosition(data []byte) (*ObserverPosition, error) {
	var rec ObserverPosition
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	return &rec, nil
}
