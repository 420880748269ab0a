package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// Schema is applied by InitDB so a fresh database works without a migration step.
const Schema = `
CREATE TABLE IF NOT EXISTS lease_analyses (
	lease_id      TEXT PRIMARY KEY,
	run_id        UUID NOT NULL,
	lease_name    TEXT,
	lease_json    JSONB NOT NULL,
	analysis_json JSONB NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// InitDB initializes the database connection pool and ensures the schema exists.
func InitDB(ctx context.Context, dbURL string) error {
	var err error
	once.Do(func() {
		if dbURL == "" {
			err = fmt.Errorf("database url not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			err = fmt.Errorf("failed to open database pool: %w", err)
			return
		}
		if _, execErr := pool.Exec(ctx, Schema); execErr != nil {
			err = fmt.Errorf("failed to ensure schema: %w", execErr)
		}
	})
	return err
}

// GetPool returns the database connection pool
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}
