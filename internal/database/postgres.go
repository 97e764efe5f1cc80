// Package database opens the snapshot stores and owns their schemas.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stwalsh4118/schoolter/internal/config"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		run_id       TEXT PRIMARY KEY,
		mode         TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		sources      JSONB NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL,
		published_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schools (
		urn           TEXT PRIMARY KEY,
		id            INTEGER NOT NULL,
		run_id        TEXT NOT NULL REFERENCES snapshots(run_id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		borough       TEXT NOT NULL,
		phase         TEXT NOT NULL,
		sector        TEXT NOT NULL,
		ofsted_rating TEXT NOT NULL,
		pupils        INTEGER NOT NULL,
		payload       JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schools_borough ON schools (LOWER(borough));
	CREATE INDEX IF NOT EXISTS idx_schools_phase ON schools (phase);
	CREATE INDEX IF NOT EXISTS idx_schools_name ON schools (name, urn);
`

// Database wraps the pgx connection pool.
type Database struct {
	Pool *pgxpool.Pool
}

// NewPostgresPool creates a PostgreSQL connection pool, checks that the
// server answers and makes sure the snapshot schema exists.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.PathEscape(cfg.User),
		url.PathEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MinConns = int32(cfg.PoolMin)
	poolConfig.MaxConns = int32(cfg.PoolMax)
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Second
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{Pool: pool}, nil
}

// Ping checks if the database connection is alive.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close waits for connections to be returned and closes the pool.
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Stats returns pool statistics.
func (db *Database) Stats() *pgxpool.Stat {
	if db.Pool == nil {
		return nil
	}
	return db.Pool.Stat()
}
