package httptransport

import (
	"net/http"
	"strings"

	"clubgate/internal/nav"
	"clubgate/internal/platform/requestctx"
	"clubgate/pkg/platform/audit"
)

const (
	// navigationTypeHeader carries the client's navigation-timing hint;
	// "reload" marks a hard reload.
	navigationTypeHeader = "X-Navigation-Type"

	// noticeHeader carries a transient, non-blocking user notice alongside a
	// redirect.
	noticeHeader = "X-Console-Notice"

	// anonymousSession is the shared navigation context for requests without
	// a resolvable session. It only ever serves the constant pages.
	anonymousSession = ""
)

// serveNavigation is the catch-all entrypoint: every page request runs the
// guard, then either follows a redirect or is dispatched against the
// session's live route table.
func (h *Handler) serveNavigation(w http.ResponseWriter, r *http.Request) {
	sessionID, ident, authed := h.identify(r)

	ctx := r.Context()
	var sess *nav.Session
	if authed {
		ctx = requestctx.WithSessionID(ctx, sessionID)
		ctx = requestctx.WithUserID(ctx, ident.UserID)
		sess = h.sessions.Get(sessionID)
	} else {
		sess = h.sessions.Get(anonymousSession)
	}

	att := nav.Attempt{
		Path:       r.URL.Path,
		ReloadHint: strings.EqualFold(r.Header.Get(navigationTypeHeader), "reload"),
	}

	for {
		decision := h.guard.Evaluate(ctx, sess, ident, att)

		switch decision.Action {
		case nav.ActionReplay:
			// Dynamic routes were just registered; resolve the same path once
			// more against the updated table.
			att.Replayed = true
			continue

		case nav.ActionRedirect:
			if decision.Rule == nav.RuleHydrationExpired {
				// The upstream rejected the stored credential mid-session. The
				// persisted identity was already cleared by the upstream
				// hook; finish the teardown at the edge.
				h.clearSessionCookie(w)
				h.sessions.Drop(sessionID)
				h.emitAudit(ctx, audit.Event{
					SessionID: sessionID,
					UserID:    ident.UserID,
					Action:    audit.ActionCredentialRejected,
					Path:      att.Path,
				})
			}
			if decision.Notice != "" {
				w.Header().Set(noticeHeader, decision.Notice)
			}
			if authed {
				h.emitAudit(ctx, audit.Event{
					SessionID: sessionID,
					UserID:    ident.UserID,
					Action:    audit.ActionNavigationRedirected,
					Path:      att.Path,
					Detail:    decision.Rule,
				})
			}
			http.Redirect(w, r, decision.Location, http.StatusFound)
			return

		default:
			if authed {
				h.emitAudit(ctx, audit.Event{
					SessionID: sessionID,
					UserID:    ident.UserID,
					Action:    audit.ActionNavigationAllowed,
					Path:      att.Path,
				})
			}
			sess.Routes.ServeHTTP(w, r.WithContext(ctx))
			return
		}
	}
}
