package nav

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubgate/internal/identity"
	"clubgate/internal/menu"
	"clubgate/internal/nav/views"
	"clubgate/pkg/platform/sentinel"
)

type stubMenuFetcher struct {
	tree  []menu.Node
	err   error
	calls int
}

func (s *stubMenuFetcher) FetchUserMenuTree(ctx context.Context, bearer string) ([]menu.Node, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tree, nil
}

func newGuardFixture(t *testing.T, fetcher menu.Fetcher) (*Guard, *Session) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	sess := NewSession("test-session", menu.NewCache(fetcher, logger), newTestTable(t))
	return NewGuard(views.Default(), logger), sess
}

func teacherIdentity() identity.Identity {
	return identity.Identity{Token: "tok", UserID: 1, RoleID: identity.RoleTeacher}
}

func TestGuardRedirectsUnauthenticatedToLoginWithTarget(t *testing.T) {
	guard, sess := newGuardFixture(t, &stubMenuFetcher{})

	d := guard.Evaluate(context.Background(), sess, identity.Identity{}, Attempt{Path: "/admin/club/5/dashboard"})

	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/login?redirect=/admin/club/5/dashboard", d.Location)
	assert.Equal(t, RuleAuthGate, d.Rule)
}

func TestGuardAllowsPublicPathWithoutToken(t *testing.T) {
	fetcher := &stubMenuFetcher{}
	guard, sess := newGuardFixture(t, fetcher)

	d := guard.Evaluate(context.Background(), sess, identity.Identity{}, Attempt{Path: "/login"})

	assert.Equal(t, ActionProceed, d.Action)
	assert.Equal(t, RuleProceed, d.Rule)
	assert.Zero(t, fetcher.calls, "public navigation never hydrates")
}

func TestGuardBouncesAuthenticatedOffLogin(t *testing.T) {
	guard, sess := newGuardFixture(t, &stubMenuFetcher{})

	d := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/login"})

	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/", d.Location)
	assert.Equal(t, RuleAlreadyAuthed, d.Rule)
}

func TestGuardCollapsesDeepLinkOnReload(t *testing.T) {
	guard, sess := newGuardFixture(t, &stubMenuFetcher{})

	d := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{
		Path:       "/admin/club/5/dashboard",
		ReloadHint: true,
	})

	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/", d.Location)
	assert.Equal(t, RuleReloadCollapse, d.Rule)
}

func TestGuardCollapsesOnArmedBeaconAndConsumesIt(t *testing.T) {
	guard, sess := newGuardFixture(t, &stubMenuFetcher{tree: materializeFixture()})
	sess.ArmReload()

	first := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/admin/club"})
	assert.Equal(t, RuleReloadCollapse, first.Rule)

	second := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/admin/club"})
	assert.NotEqual(t, RuleReloadCollapse, second.Rule, "the beacon flag is consumed by the first pass")
}

func TestGuardReloadOnRootProceedsWithoutRedirectLoop(t *testing.T) {
	guard, sess := newGuardFixture(t, &stubMenuFetcher{})

	d := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/", ReloadHint: true})

	assert.NotEqual(t, RuleReloadCollapse, d.Rule)
	assert.NotEqual(t, ActionReplay, d.Action)
}

func TestGuardDeniesAdminAreaToStudentMember(t *testing.T) {
	fetcher := &stubMenuFetcher{}
	guard, sess := newGuardFixture(t, fetcher)
	ident := identity.Identity{Token: "tok", UserID: 9, RoleID: identity.RoleStudentMember}

	d := guard.Evaluate(context.Background(), sess, ident, Attempt{Path: "/admin/club"})

	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/", d.Location)
	assert.Equal(t, RuleAdminDenied, d.Rule)
	assert.Zero(t, fetcher.calls, "role denial short-circuits before hydration")
}

func TestGuardHydratesRegistersAndReplaysDynamicTarget(t *testing.T) {
	fetcher := &stubMenuFetcher{tree: materializeFixture()}
	guard, sess := newGuardFixture(t, fetcher)

	first := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/admin/system/user"})
	require.Equal(t, ActionReplay, first.Action)
	assert.Equal(t, RuleReplay, first.Rule)
	assert.Equal(t, RegistrationDone, sess.Registration())
	assert.True(t, sess.Routes.Lookup("/admin/system/user").Dynamic)

	second := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/admin/system/user", Replayed: true})
	assert.Equal(t, ActionProceed, second.Action)
	assert.Equal(t, RuleProceed, second.Rule)

	assert.Equal(t, 1, fetcher.calls, "hydration and registration happen once per session")
}

func TestGuardRegistersOnlyOncePerSession(t *testing.T) {
	fetcher := &stubMenuFetcher{tree: materializeFixture()}
	guard, sess := newGuardFixture(t, fetcher)

	guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/admin/club"})
	before := len(sess.Routes.DynamicPaths())

	guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/admin/club", Replayed: true})
	guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/admin/club/members"})

	assert.Equal(t, before, len(sess.Routes.DynamicPaths()))
	assert.Equal(t, 1, fetcher.calls)
}

func TestGuardRoleDispatchFromAdminRoot(t *testing.T) {
	cases := []struct {
		roleID int
		clubID int64
		want   string
	}{
		{identity.RoleTeacher, 0, "/admin/club"},
		{identity.RolePresident, 5, "/admin/club/5/dashboard"},
		{identity.RoleVicePresident, 5, "/admin/club/5/dashboard"},
		{identity.RoleDeptHead, 5, "/admin/club/5/departments"},
		{identity.RoleDeputyHead, 5, "/admin/club/5/departments"},
		{identity.RoleStaff, 5, "/admin/club/5/activities"},
		{identity.RolePresident, 0, "/"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("role %d club %d", tc.roleID, tc.clubID), func(t *testing.T) {
			guard, sess := newGuardFixture(t, &stubMenuFetcher{})
			ident := identity.Identity{Token: "tok", UserID: 2, RoleID: tc.roleID, ClubID: tc.clubID}

			d := guard.Evaluate(context.Background(), sess, ident, Attempt{Path: "/admin"})

			assert.Equal(t, ActionRedirect, d.Action)
			assert.Equal(t, tc.want, d.Location)
			assert.Equal(t, RuleRoleDispatch, d.Rule)
		})
	}
}

func TestGuardDegradesToFallbackWhenUpstreamUnavailable(t *testing.T) {
	fetcher := &stubMenuFetcher{err: sentinel.ErrUnavailable}
	guard, sess := newGuardFixture(t, fetcher)
	ident := identity.Identity{Token: "tok", UserID: 3, RoleID: identity.RolePresident, ClubID: 7}

	d := guard.Evaluate(context.Background(), sess, ident, Attempt{Path: "/"})

	assert.Equal(t, ActionProceed, d.Action)
	assert.True(t, sess.Cache.Initialized())
	assert.True(t, sess.Cache.Degraded())
	assert.True(t, sess.Cache.CheckPermission("club:manage"))
}

func TestGuardRedirectsToLoginWhenHydrationRejectsCredential(t *testing.T) {
	fetcher := &stubMenuFetcher{err: sentinel.ErrAuthRejected}
	guard, sess := newGuardFixture(t, fetcher)

	d := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/user/profile"})

	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/login?redirect=/user/profile", d.Location)
	assert.Equal(t, RuleHydrationExpired, d.Rule)
	assert.False(t, sess.Cache.Initialized(), "a rejected credential never installs a dataset")
}

func TestGuardDeniesNavigationWithoutPermission(t *testing.T) {
	// Routes registered under an older, broader permission grant; the current
	// hydration no longer carries the gating code.
	fetcher := &stubMenuFetcher{tree: nil}
	guard, sess := newGuardFixture(t, fetcher)

	registry := views.Default()
	require.NoError(t, sess.Routes.Attach(RouteEntry{
		Path:    "/admin/club",
		RouteID: "menu-1",
		Load:    registry.Resolve("admin/club/ClubManage"),
		Meta:    Meta{PermissionCode: "admin:manageAllClubs", RequiresAuth: true},
	}))
	sess.SetRegistration(RegistrationDone)

	d := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/admin/club"})

	assert.Equal(t, ActionRedirect, d.Action)
	assert.Equal(t, "/", d.Location)
	assert.Equal(t, RulePermissionDenied, d.Rule)
}

func TestGuardHydrationFailureNoticeKeepsSessionUsable(t *testing.T) {
	// ErrInvalidState is neither an auth rejection nor plain unavailability;
	// the cache still degrades to the fallback, so the guard proceeds.
	fetcher := &stubMenuFetcher{err: sentinel.ErrInvalidState}
	guard, sess := newGuardFixture(t, fetcher)

	d := guard.Evaluate(context.Background(), sess, teacherIdentity(), Attempt{Path: "/"})

	assert.Equal(t, ActionProceed, d.Action)
	assert.True(t, sess.Cache.Degraded())
}
