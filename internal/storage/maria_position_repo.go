package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/tome/internal/vec"
)

// MariaPositionRepo реализует PositionRepo для базы данных MariaDB/MySQL.
// Использует таблицу observer_positions.
type MariaPositionRepo struct {
	db *sql.DB
}

const upsertObserverPosition = `
		INSERT INTO observer_positions (observer_id, x, y, z)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			x = VALUES(x),
			y = VALUES(y),
			z = VALUES(z),
			updated_at = CURRENT_TIMESTAMP
	`

// NewMariaPositionRepo создает новый репозиторий позиций для MariaDB.
// Автоматически создает таблицу, если она не существует.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
func NewMariaPositionRepo(ctx context.Context, dsn string) (*MariaPositionRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaPositionRepo{db: db}

	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return repo, nil
}

// createTable создает таблицу observer_positions, если она не существует.
func (r *MariaPositionRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS observer_positions (
			observer_id VARCHAR(64) PRIMARY KEY,
			x           DOUBLE      NOT NULL,
			y           DOUBLE      NOT NULL,
			z           DOUBLE      NOT NULL,
			updated_at  TIMESTAMP   DEFAULT CURRENT_TIMESTAMP
			            ON UPDATE   CURRENT_TIMESTAMP,
			INDEX idx_updated_at (updated_at)
		) ENGINE=InnoDB
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы observer_positions: %w", err)
	}
	return nil
}

// Save сохраняет позицию наблюдателя.
// Использует INSERT ... ON DUPLICATE KEY UPDATE для обновления существующих записей.
func (r *MariaPositionRepo) Save(ctx context.Context, observerID string, pos vec.Vec3Float) error {
	if err := validatePosition(observerID, pos); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, upsertObserverPosition, observerID, pos.X, pos.Y, pos.Z); err != nil {
		return fmt.Errorf("ошибка сохранения позиции наблюдателя %s: %w", observerID, err)
	}
	return nil
}

// Load загружает позицию наблюдателя.
func (r *MariaPositionRepo) Load(ctx context.Context, observerID string) (vec.Vec3Float, bool, error) {
	query := `SELECT x, y, z FROM observer_positions WHERE observer_id = ?`

	var pos vec.Vec3Float
	err := r.db.QueryRowContext(ctx, query, observerID).Scan(&pos.X, &pos.Y, &pos.Z)
	if errors.Is(err, sql.ErrNoRows) {
		return vec.Vec3Float{}, false, nil
	}
	if err != nil {
		return vec.Vec3Float{}, false, fmt.Errorf("ошибка загрузки позиции наблюдателя %s: %w", observerID, err)
	}

	return pos, true, nil
}

// Delete удаляет сохраненную позицию наблюдателя.
func (r *MariaPositionRepo) Delete(ctx context.Context, observerID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM observer_positions WHERE observer_id = ?`, observerID)
	if err != nil {
		return fmt.Errorf("ошибка удаления позиции наблюдателя %s: %w", observerID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("позиция наблюдателя %s не найдена", observerID)
	}
	return nil
}

// BatchSave сохраняет позиции нескольких наблюдателей в одной транзакции.
func (r *MariaPositionRepo) BatchSave(ctx context.Context, positions map[string]vec.Vec3Float) error {
	if len(positions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertObserverPosition)
	if err != nil {
		return fmt.Errorf("ошибка подготовки запроса: %w", err)
	}
	defer stmt.Close()

	for observerID, pos := range positions {
		if err := validatePosition(observerID, pos); err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, observerID, pos.X, pos.Y, pos.Z); err != nil {
			return fmt.Errorf("ошибка сохранения позиции наблюдателя %s в batch: %w", observerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой данных.
func (r *MariaPositionRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
