package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clubgate/internal/identity"
	"clubgate/pkg/platform/sentinel"
)

// PostgresStore persists identities in a single table keyed by session ID.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the identities table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS identities (
			session_id TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("migrate identities: %w", err)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context, sessionID string) (identity.Identity, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM identities WHERE session_id = $1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.Identity{}, sentinel.ErrNotFound
	}
	if err != nil {
		return identity.Identity{}, fmt.Errorf("read identity: %w", err)
	}
	var ident identity.Identity
	if err := json.Unmarshal(raw, &ident); err != nil {
		return identity.Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return ident, nil
}

func (s *PostgresStore) Write(ctx context.Context, sessionID string, ident identity.Identity) error {
	raw, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO identities (session_id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (session_id) DO UPDATE SET payload = $2, updated_at = now()`,
		sessionID, raw)
	if err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM identities WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}
