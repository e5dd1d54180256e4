package httptransport

import (
	"context"
	"errors"
	"log/slog"

	"clubgate/internal/identity/store"
	"clubgate/internal/platform/requestctx"
	"clubgate/internal/upstream"
	"clubgate/pkg/platform/sentinel"
)

// CredentialClearHook is the upstream 401 callback: the persisted identity
// for the session on the context is cleared immediately, before any caller
// sees the rejection. Cookie teardown happens at the edge.
func CredentialClearHook(identities store.Store, logger *slog.Logger) upstream.AuthRejectHook {
	return func(ctx context.Context) {
		sessionID := requestctx.SessionID(ctx)
		if sessionID == "" {
			return
		}
		if err := identities.Clear(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			logger.WarnContext(ctx, "credential clear failed",
				"session_id", sessionID,
				"error", err,
			)
			return
		}
		logger.InfoContext(ctx, "credential cleared after upstream rejection",
			"session_id", sessionID,
		)
	}
}
