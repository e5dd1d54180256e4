// Package audit records the gateway's security-relevant actions: credential
// lifecycle, navigation verdicts and route injection. Events are emitted from
// domain logic and fanned out to stores and sinks.
package audit

import (
	"context"
	"time"
)

// Action names what happened. Values are stable; downstream consumers key on
// them.
type Action string

const (
	// Credential lifecycle
	ActionLogin              Action = "login"
	ActionLoginFailed        Action = "login_failed"
	ActionLogout             Action = "logout"
	ActionCredentialRejected Action = "credential_rejected"

	// Navigation verdicts
	ActionNavigationAllowed    Action = "navigation_allowed"
	ActionNavigationRedirected Action = "navigation_redirected"

	// Session routing
	ActionRoutesRegistered Action = "routes_registered"
	ActionMenuFallback     Action = "menu_fallback"
)

// Event is one audit record. Keep it transport-agnostic so stores and sinks
// can fan out.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId,omitempty"`
	UserID    int64     `json:"userId,omitempty"`
	Action    Action    `json:"action"`
	Path      string    `json:"path,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	At        time.Time `json:"at"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySession(ctx context.Context, sessionID string) ([]Event, error)
}
