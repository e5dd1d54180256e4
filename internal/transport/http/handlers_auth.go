package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"clubgate/internal/identity"
	"clubgate/internal/identity/store"
	"clubgate/internal/nav"
	"clubgate/internal/platform/metrics"
	"clubgate/internal/platform/requestctx"
	"clubgate/internal/token"
	"clubgate/internal/upstream"
	"clubgate/pkg/platform/audit"
	"clubgate/pkg/platform/audit/publisher"
	"clubgate/pkg/platform/sentinel"
)

const sessionCookie = "clubgate_session"

// Handler owns the gateway's API surface and the navigation entrypoint.
type Handler struct {
	logger     *slog.Logger
	upstream   *upstream.Client
	identities store.Store
	tokens     *token.Service
	sessions   *SessionRegistry
	guard      *nav.Guard
	audit      *publisher.Publisher
	metrics    *metrics.Metrics
	cookieTTL  time.Duration
}

func NewHandler(
	logger *slog.Logger,
	up *upstream.Client,
	identities store.Store,
	tokens *token.Service,
	sessions *SessionRegistry,
	guard *nav.Guard,
	auditPub *publisher.Publisher,
	m *metrics.Metrics,
	cookieTTL time.Duration,
) *Handler {
	return &Handler{
		logger:     logger,
		upstream:   up,
		identities: identities,
		tokens:     tokens,
		sessions:   sessions,
		guard:      guard,
		audit:      auditPub,
		metrics:    m,
		cookieTTL:  cookieTTL,
	}
}

type loginRequest struct {
	JobNumber string `json:"jobNumber"`
	Password  string `json:"password"`
}

type profileResponse struct {
	UserID         int64  `json:"userId"`
	RoleID         int    `json:"roleId"`
	RoleName       string `json:"roleName"`
	ClubID         int64  `json:"clubId,omitempty"`
	DepartmentID   int64  `json:"departmentId,omitempty"`
	NickName       string `json:"nickName,omitempty"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	CanAccessAdmin bool   `json:"canAccessAdmin"`
}

func toProfileResponse(ident identity.Identity) profileResponse {
	return profileResponse{
		UserID:         ident.UserID,
		RoleID:         ident.RoleID,
		RoleName:       ident.RoleName(),
		ClubID:         ident.ClubID,
		DepartmentID:   ident.DepartmentID,
		NickName:       ident.NickName,
		AvatarURL:      ident.AvatarURL,
		CanAccessAdmin: ident.CanAccessAdmin(),
	}
}

// handleLogin exchanges credentials upstream, persists the resolved identity
// under a fresh session ID and sets the session cookie. A fresh session ID on
// every login is what gives registration its once-per-session lifetime.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobNumber == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "jobNumber and password are required"})
		return
	}

	bearer, err := h.upstream.Login(ctx, req.JobNumber, req.Password)
	if err != nil {
		h.metrics.LoginFailures.Inc()
		h.emitAudit(ctx, audit.Event{
			Action: audit.ActionLoginFailed,
			Detail: req.JobNumber,
		})
		if errors.Is(err, sentinel.ErrAuthRejected) {
			writeError(w, err, "invalid credentials")
			return
		}
		h.logger.ErrorContext(ctx, "upstream login failed", "error", err)
		writeError(w, err, "login is temporarily unavailable")
		return
	}

	ident, err := h.upstream.FetchProfile(ctx, bearer)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile fetch after login failed", "error", err)
		writeError(w, err, "login is temporarily unavailable")
		return
	}
	ident.Device = deviceLabel(r.UserAgent())

	sessionID := uuid.NewString()
	if err := h.identities.Write(ctx, sessionID, ident); err != nil {
		h.logger.ErrorContext(ctx, "identity persist failed", "error", err, "session_id", sessionID)
		writeError(w, err, "login is temporarily unavailable")
		return
	}

	signed, err := h.tokens.Mint(sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "session token mint failed", "error", err)
		writeError(w, err, "login is temporarily unavailable")
		return
	}
	h.setSessionCookie(w, signed)

	h.metrics.Logins.Inc()
	h.emitAudit(ctx, audit.Event{
		SessionID: sessionID,
		UserID:    ident.UserID,
		Action:    audit.ActionLogin,
		Detail:    ident.Device,
	})
	h.logger.InfoContext(ctx, "login",
		"session_id", sessionID,
		"user_id", ident.UserID,
		"role_id", ident.RoleID,
	)

	writeJSON(w, http.StatusOK, toProfileResponse(ident))
}

// handleLogout clears the persisted identity, drops the in-process session
// and expires the cookie. Idempotent: a missing session is still a 204.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, ident, ok := h.identify(r)
	if ok {
		if err := h.identities.Clear(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			h.logger.WarnContext(ctx, "identity clear failed", "error", err, "session_id", sessionID)
		}
		if sess, found := h.sessions.Peek(sessionID); found {
			sess.Cache.Clear()
		}
		h.sessions.Drop(sessionID)
		h.metrics.Logouts.Inc()
		h.emitAudit(ctx, audit.Event{
			SessionID: sessionID,
			UserID:    ident.UserID,
			Action:    audit.ActionLogout,
		})
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleUnload is the beacon fired as the page goes away. It arms the
// one-shot reload flag; the next navigation consumes it.
func (h *Handler) handleUnload(w http.ResponseWriter, r *http.Request) {
	if sessionID, _, ok := h.identify(r); ok {
		if sess, found := h.sessions.Peek(sessionID); found {
			sess.ArmReload()
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// identify resolves the session cookie to the persisted identity. A missing
// or invalid cookie, or a cleared identity, yields ok=false; callers decide
// whether that is an error.
func (h *Handler) identify(r *http.Request) (string, identity.Identity, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", identity.Identity{}, false
	}
	sessionID, err := h.tokens.SessionID(cookie.Value)
	if err != nil {
		return "", identity.Identity{}, false
	}
	ident, err := h.identities.Read(r.Context(), sessionID)
	if err != nil {
		return sessionID, identity.Identity{}, false
	}
	return sessionID, ident, true
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) emitAudit(ctx context.Context, event audit.Event) {
	if event.RequestID == "" {
		event.RequestID = requestctx.RequestID(ctx)
	}
	if err := h.audit.Emit(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// deviceLabel condenses the user agent into a short display string for the
// session's audit trail.
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	browser, version := ua.Browser()
	parts := make([]string, 0, 3)
	if browser != "" {
		if version != "" {
			parts = append(parts, browser+" "+version)
		} else {
			parts = append(parts, browser)
		}
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, " on ")
}
