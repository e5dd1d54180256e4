// Package store persists the resolved identity across gateway restarts.
//
// The Redis and Postgres implementations are durable: a session cookie issued
// before a restart still resolves to its identity afterwards. The memory
// implementation exists for tests and single-node development.
package store

import (
	"context"

	"clubgate/internal/identity"
)

// Store owns the persisted identity for each gateway session. Clear must be
// immediate: after it returns, no reader may observe the old identity.
type Store interface {
	Read(ctx context.Context, sessionID string) (identity.Identity, error)
	Write(ctx context.Context, sessionID string, ident identity.Identity) error
	Clear(ctx context.Context, sessionID string) error
}
