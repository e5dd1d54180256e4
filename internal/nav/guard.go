package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"clubgate/internal/identity"
	"clubgate/internal/nav/views"
	"clubgate/pkg/platform/sentinel"
)

var guardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "clubgate_guard_decisions_total",
	Help: "Navigation guard decisions by the rule that fired",
}, []string{"rule"})

// Rules, in evaluation order. The ordering is load-bearing: reload detection
// precedes the auth check, hydration precedes registration, registration
// precedes the permission check.
const (
	RuleReloadCollapse   = "reload_collapse"
	RuleAuthGate         = "auth_gate"
	RuleAdminDenied      = "admin_denied"
	RuleHydrationExpired = "hydration_auth_rejected"
	RuleHydrationFailed  = "hydration_failed"
	RuleReplay           = "replay"
	RulePermissionDenied = "permission_denied"
	RuleRoleDispatch     = "role_dispatch"
	RuleAlreadyAuthed    = "already_authenticated"
	RuleProceed          = "proceed"
)

const (
	adminPathPrefix = "/admin"
	loginPath       = "/login"
	homePath        = "/"
)

// Action is the guard's verdict for one navigation attempt.
type Action int

const (
	ActionProceed Action = iota
	ActionRedirect
	ActionReplay
)

// Decision is the outcome of one pass through the rule chain. Every failure
// branch resolves to a redirect or a degraded-but-functional proceed; nothing
// escapes the guard as an error.
type Decision struct {
	Action   Action
	Location string // set when Action == ActionRedirect
	Notice   string // transient user-visible notice, non-blocking
	Rule     string // which rule fired, for logs and metrics
}

// Attempt is one navigation to evaluate.
type Attempt struct {
	Path       string
	ReloadHint bool // client navigation-timing signal
	Replayed   bool // set when re-resolving after dynamic registration
}

// Guard sequences reload detection, authentication, menu hydration, dynamic
// route registration, permission checking and role dispatch for every
// navigation attempt. First matching rule wins.
type Guard struct {
	registry *views.Registry
	logger   *slog.Logger
}

func NewGuard(registry *views.Registry, logger *slog.Logger) *Guard {
	return &Guard{registry: registry, logger: logger}
}

// Evaluate runs the rule chain for one attempt against the session context
// and the identity read from the persisted store (zero value when absent).
func (g *Guard) Evaluate(ctx context.Context, sess *Session, ident identity.Identity, att Attempt) Decision {
	ctx, span := otel.Tracer("clubgate/nav").Start(ctx, "guard.Evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("nav.path", att.Path))

	target := sess.Routes.Lookup(att.Path)
	hasToken := ident.HasToken()

	// Rule 1: a hard reload loses all dynamically-registered routes, so deep
	// links collapse to the root. The flag is consumed here even when the
	// timing hint already decided, keeping it one-shot.
	pending := sess.ConsumeReload()
	if IsPageReload(att.ReloadHint, pending) && ShouldRedirectToHome(att.Path, hasToken) {
		return g.decide(ctx, att, Decision{Action: ActionRedirect, Location: homePath, Rule: RuleReloadCollapse})
	}

	// Rule 2: authentication, carrying the target for post-login resumption.
	if target.RequiresAuth && !hasToken {
		return g.decide(ctx, att, Decision{
			Action:   ActionRedirect,
			Location: loginPath + "?redirect=" + att.Path,
			Rule:     RuleAuthGate,
		})
	}

	if target.RequiresAuth {
		if d, done := g.evaluateAuthenticated(ctx, sess, ident, att, &target); done {
			return g.decide(ctx, att, d)
		}
		return g.decide(ctx, att, Decision{Action: ActionProceed, Rule: RuleProceed})
	}

	// Rule 8: an authenticated visit to login/register bounces home.
	if IsAlwaysPublic(att.Path) && hasToken {
		return g.decide(ctx, att, Decision{Action: ActionRedirect, Location: homePath, Rule: RuleAlreadyAuthed})
	}

	// Rule 9.
	return g.decide(ctx, att, Decision{Action: ActionProceed, Rule: RuleProceed})
}

// evaluateAuthenticated runs rules 3 through 7. It reports done=false when no
// rule matched and the navigation should proceed.
func (g *Guard) evaluateAuthenticated(ctx context.Context, sess *Session, ident identity.Identity, att Attempt, target *Target) (Decision, bool) {
	// Rule 3: the administrative area is silently closed to non-admin roles.
	if strings.HasPrefix(att.Path, adminPathPrefix) && !ident.CanAccessAdmin() {
		return Decision{Action: ActionRedirect, Location: homePath, Rule: RuleAdminDenied}, true
	}

	// Rule 4: first navigation of the session hydrates menus and permissions.
	if !sess.Cache.Initialized() {
		if err := sess.Cache.Hydrate(ctx, ident); err != nil {
			if errors.Is(err, sentinel.ErrAuthRejected) {
				// Credential-clear already ran in the transport collaborator.
				return Decision{
					Action:   ActionRedirect,
					Location: loginPath + "?redirect=" + att.Path,
					Rule:     RuleHydrationExpired,
				}, true
			}
			return Decision{
				Action:   ActionRedirect,
				Location: homePath,
				Notice:   "Navigation menus could not be loaded; some features may be unavailable",
				Rule:     RuleHydrationFailed,
			}, true
		}
	}

	// Rule 5: inject dynamic routes once per session, then replay the attempt
	// if it targets one of the paths that just became routable — the router
	// could not have matched it before registration completed.
	if sess.Registration() == RegistrationNotStarted {
		if tree := sess.Cache.Tree(); len(tree) > 0 {
			sess.SetRegistration(RegistrationInProgress)
			entries := Materialize(tree, g.registry)
			result := Register(sess.Routes, entries, g.logger)
			sess.SetRegistration(RegistrationDone)

			g.logger.InfoContext(ctx, "dynamic routes registered",
				"session_id", sess.ID,
				"added", len(result.AddedPaths),
				"failed", len(result.FailedPaths),
			)
			if len(result.FailedPaths) > 0 {
				g.logger.WarnContext(ctx, "some dynamic routes failed to register",
					"session_id", sess.ID,
					"paths", result.FailedPaths,
				)
			}

			refreshed := sess.Routes.Lookup(att.Path)
			*target = refreshed
			if refreshed.Dynamic && !att.Replayed {
				return Decision{Action: ActionReplay, Rule: RuleReplay}, true
			}
		}
	}

	// Rule 6: permission check against the hydrated set.
	if target.PermissionCode != "" && !sess.Cache.CheckPermission(target.PermissionCode) {
		return Decision{Action: ActionRedirect, Location: homePath, Rule: RulePermissionDenied}, true
	}

	// Rule 7: the admin root is a forwarding rule, not a page.
	if att.Path == adminPathPrefix {
		return Decision{
			Action:   ActionRedirect,
			Location: adminLanding(ident),
			Rule:     RuleRoleDispatch,
		}, true
	}

	return Decision{}, false
}

// adminLanding resolves the role-specific landing page behind /admin.
func adminLanding(ident identity.Identity) string {
	switch {
	case ident.RoleID == identity.RoleTeacher:
		return "/admin/club"
	case ident.RoleID >= identity.RolePresident && ident.RoleID <= identity.RoleVicePresident && ident.ClubID != 0:
		return fmt.Sprintf("/admin/club/%d/dashboard", ident.ClubID)
	case ident.RoleID >= identity.RoleDeptHead && ident.RoleID <= identity.RoleDeputyHead && ident.ClubID != 0:
		return fmt.Sprintf("/admin/club/%d/departments", ident.ClubID)
	case ident.RoleID == identity.RoleStaff && ident.ClubID != 0:
		return fmt.Sprintf("/admin/club/%d/activities", ident.ClubID)
	default:
		return homePath
	}
}

func (g *Guard) decide(ctx context.Context, att Attempt, d Decision) Decision {
	guardDecisions.WithLabelValues(d.Rule).Inc()
	if d.Action == ActionRedirect {
		g.logger.DebugContext(ctx, "navigation redirected",
			"path", att.Path,
			"to", d.Location,
			"rule", d.Rule,
		)
	}
	return d
}
