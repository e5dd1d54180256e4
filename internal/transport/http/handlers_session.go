package httptransport

import (
	"net/http"

	"clubgate/internal/menu"
	"clubgate/internal/platform/requestctx"
	"clubgate/pkg/platform/sentinel"
)

type menusResponse struct {
	Menus    []menu.Node `json:"menus"`
	Degraded bool        `json:"degraded"`
}

// handleMenus returns the hydrated menu tree for the session, hydrating on
// first call. The degraded flag tells the shell it is looking at the static
// fallback dataset.
func (h *Handler) handleMenus(w http.ResponseWriter, r *http.Request) {
	sessionID, ident, ok := h.identify(r)
	if !ok {
		writeError(w, sentinel.ErrAuthRejected, "not authenticated")
		return
	}
	ctx := requestctx.WithSessionID(r.Context(), sessionID)

	sess := h.sessions.Get(sessionID)
	if err := sess.Cache.Hydrate(ctx, ident); err != nil {
		h.clearSessionCookie(w)
		h.sessions.Drop(sessionID)
		writeError(w, err, "session expired")
		return
	}

	writeJSON(w, http.StatusOK, menusResponse{
		Menus:    sess.Cache.Tree(),
		Degraded: sess.Cache.Degraded(),
	})
}

type permissionCheckResponse struct {
	Code    string `json:"code"`
	Allowed bool   `json:"allowed"`
}

// handlePermissionCheck answers whether the session holds one permission
// code. Unknown and empty codes are false, never errors.
func (h *Handler) handlePermissionCheck(w http.ResponseWriter, r *http.Request) {
	sessionID, ident, ok := h.identify(r)
	if !ok {
		writeError(w, sentinel.ErrAuthRejected, "not authenticated")
		return
	}
	ctx := requestctx.WithSessionID(r.Context(), sessionID)

	sess := h.sessions.Get(sessionID)
	if err := sess.Cache.Hydrate(ctx, ident); err != nil {
		h.clearSessionCookie(w)
		h.sessions.Drop(sessionID)
		writeError(w, err, "session expired")
		return
	}

	code := r.URL.Query().Get("code")
	writeJSON(w, http.StatusOK, permissionCheckResponse{
		Code:    code,
		Allowed: sess.Cache.CheckPermission(code),
	})
}

// handleProfile returns the persisted identity, without the upstream bearer.
func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	_, ident, ok := h.identify(r)
	if !ok {
		writeError(w, sentinel.ErrAuthRejected, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(ident))
}
