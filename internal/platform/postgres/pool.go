package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"clubgate/internal/platform/config"
)

// NewPool opens a pgx connection pool and verifies connectivity.
// Returns nil if no URL is configured (Postgres not in use).
func NewPool(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}
