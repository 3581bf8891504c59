package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
)

const createStateTable = `
    CREATE TABLE IF NOT EXISTS storefront_state (
        key        TEXT PRIMARY KEY,
        value      BYTEA NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`

type postgresStateRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresStateRepository(db *sql.DB, logger *logrus.Logger) domain.StateRepository {
	return &postgresStateRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresStateRepository) Initialize(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createStateTable); err != nil {
		r.log.Errorf("Repository: Failed to create storefront_state table: %v", err)
		return fmt.Errorf("could not create state table: %w", err)
	}
	r.log.Info("Repository: Postgres state store initialized")
	return nil
}

func (r *postgresStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
        SELECT value
        FROM storefront_state
        WHERE key = $1`

	var value []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		r.log.Errorf("Repository: Failed to get state key '%s': %v", key, err)
		return nil, fmt.Errorf("could not get state key %s: %w", key, err)
	}
	return value, nil
}

func (r *postgresStateRepository) Set(ctx context.Context, key string, value []byte) error {
	query := `
        INSERT INTO storefront_state (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		r.log.Errorf("Repository: Failed to set state key '%s': %v", key, err)
		return fmt.Errorf("could not set state key %s: %w", key, err)
	}
	r.log.Debugf("Repository: Stored %d bytes under key '%s'", len(value), key)
	return nil
}

func (r *postgresStateRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM storefront_state WHERE key = $1`, key); err != nil {
		r.log.Errorf("Repository: Failed to delete state key '%s': %v", key, err)
		return fmt.Errorf("could not delete state key %s: %w", key, err)
	}
	return nil
}

func (r *postgresStateRepository) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(pingCtx) == nil
}

func (r *postgresStateRepository) Close() error {
	r.log.Info("Repository: Closing Postgres connection")
	return r.db.Close()
}
