package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubgate/internal/identity"
	"clubgate/internal/identity/store"
	"clubgate/internal/menu"
	"clubgate/internal/nav"
	"clubgate/internal/nav/views"
	"clubgate/internal/platform/metrics"
	"clubgate/internal/token"
	"clubgate/internal/upstream"
	"clubgate/pkg/platform/audit"
	auditmem "clubgate/pkg/platform/audit/store/memory"
	"clubgate/pkg/platform/audit/publisher"
)

// fakeUpstream is a scriptable stand-in for the club-management API.
type fakeUpstream struct {
	mu          sync.Mutex
	rejectLogin bool
	menusMode   string // "", "unavailable", "unauthorized"
	roleID      int
	clubID      int64
	tree        []menu.Node
	menuCalls   int
}

func (f *fakeUpstream) setMenusMode(mode string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menusMode = mode
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/users/login":
		if f.rejectLogin {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeUpstreamEnvelope(w, map[string]string{"token": "upstream-bearer"})

	case r.Method == http.MethodGet && r.URL.Path == "/users/info":
		if r.Header.Get("Authorization") != "Bearer upstream-bearer" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeUpstreamEnvelope(w, map[string]any{
			"userId":   int64(42),
			"roleId":   f.roleID,
			"clubId":   f.clubID,
			"nickName": "Wei",
		})

	case r.Method == http.MethodGet && r.URL.Path == "/menus/tree":
		f.menuCalls++
		switch f.menusMode {
		case "unavailable":
			w.WriteHeader(http.StatusInternalServerError)
		case "unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			writeUpstreamEnvelope(w, f.tree)
		}

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeUpstreamEnvelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

func upstreamTree() []menu.Node {
	return []menu.Node{
		{
			ID: 1, Name: "Club Admin", Path: "/admin/club", ComponentKey: "admin/club/ClubManage",
			PermissionCode: "admin:manageAllClubs", Kind: menu.KindRoutable, Status: menu.StatusEnabled,
			Children: []menu.Node{
				{
					ID: 2, ParentID: 1, Name: "Members", Path: "/admin/club/members",
					ComponentKey: "admin/club/members/MemberManage",
					PermissionCode: "club:member:list", Kind: menu.KindRoutable, Status: menu.StatusEnabled,
				},
			},
		},
	}
}

type fixture struct {
	router     http.Handler
	upstream   *fakeUpstream
	identities *store.InMemoryStore
	auditStore *auditmem.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	fu := &fakeUpstream{roleID: identity.RoleTeacher, tree: upstreamTree()}
	upstreamSrv := httptest.NewServer(fu)
	t.Cleanup(upstreamSrv.Close)

	identities := store.NewInMemory()
	up := upstream.New(upstreamSrv.URL, logger,
		upstream.WithAuthRejectHook(CredentialClearHook(identities, logger)),
	)

	tokens := token.NewService("test-signing-key", "clubgate-test", time.Hour)
	sessions := NewSessionRegistry(DefaultSessionBuilder(up, logger))
	guard := nav.NewGuard(views.Default(), logger)

	auditStore := auditmem.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	t.Cleanup(pub.Close)

	m := metrics.New(prometheus.NewRegistry())
	h := NewHandler(logger, up, identities, tokens, sessions, guard, pub, m, time.Hour)

	return &fixture{
		router:     NewRouter(h, logger, m),
		upstream:   fu,
		identities: identities,
		auditStore: auditStore,
	}
}

func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"jobNumber":"20230001","password":"secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0 Safari/537.36")
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func (f *fixture) get(path string, cookie *http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestLoginReturnsProfileAndSetsCookie(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"jobNumber":"20230001","password":"secret"}`))
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var profile profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, int64(42), profile.UserID)
	assert.Equal(t, identity.RoleTeacher, profile.RoleID)
	assert.Equal(t, "Teacher", profile.RoleName)
	assert.True(t, profile.CanAccessAdmin)
	assert.NotContains(t, rec.Body.String(), "upstream-bearer", "the upstream token never reaches the client")

	var sessionSet bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			sessionSet = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, sessionSet)
}

func TestLoginRejectedByUpstream(t *testing.T) {
	f := newFixture(t)
	f.upstream.rejectLogin = true

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"jobNumber":"20230001","password":"wrong"}`))
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	events, err := f.auditStore.ListAll(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, audit.ActionLoginFailed, events[0].Action)
}

func TestLoginMissingFields(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"jobNumber":""}`))
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavigationUnauthenticatedDeepLinkRedirectsToLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/admin/club/5/dashboard", nil, nil)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=/admin/club/5/dashboard", rec.Header().Get("Location"))
}

func TestNavigationPublicPageWithoutSession(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/login", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var view views.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "common/Login", view.Component)
}

func TestNavigationHydratesRegistersAndServesDynamicRoute(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	rec := f.get("/admin/club", cookie, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var view views.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "admin/club/ClubManage", view.Component)
	assert.Equal(t, "default", rec.Header().Get("X-Console-Layout"))
	assert.Equal(t, 1, f.upstream.menuCalls)

	// Second navigation reuses the hydrated session.
	rec = f.get("/admin/club/members", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.upstream.menuCalls)
}

func TestNavigationAdminRootDispatchesByRole(t *testing.T) {
	f := newFixture(t)
	f.upstream.roleID = identity.RolePresident
	f.upstream.clubID = 5
	cookie := f.login(t)

	rec := f.get("/admin", cookie, nil)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/club/5/dashboard", rec.Header().Get("Location"))
}

func TestNavigationAdminDeniedToStudentMember(t *testing.T) {
	f := newFixture(t)
	f.upstream.roleID = identity.RoleStudentMember
	cookie := f.login(t)

	rec := f.get("/admin/club", cookie, nil)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestNavigationReloadCollapsesDeepLink(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	rec := f.get("/admin/club", cookie, map[string]string{navigationTypeHeader: "reload"})

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestUnloadBeaconArmsOneShotReload(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	// Hydrate and register first so the session exists in-process.
	rec := f.get("/admin/club", cookie, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	beacon := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/nav/unload", nil)
	req.AddCookie(cookie)
	f.router.ServeHTTP(beacon, req)
	require.Equal(t, http.StatusNoContent, beacon.Code)

	rec = f.get("/admin/club", cookie, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// The flag is one-shot: the next navigation goes through.
	rec = f.get("/admin/club", cookie, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNavigationDegradedWhenMenusUnavailable(t *testing.T) {
	f := newFixture(t)
	f.upstream.roleID = identity.RolePresident
	f.upstream.clubID = 7
	cookie := f.login(t)
	f.upstream.setMenusMode("unavailable")

	rec := f.get("/", cookie, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	menus := f.get("/session/menus", cookie, nil)
	require.Equal(t, http.StatusOK, menus.Code)
	var resp menusResponse
	require.NoError(t, json.Unmarshal(menus.Body.Bytes(), &resp))
	assert.True(t, resp.Degraded)
	assert.NotEmpty(t, resp.Menus)
}

func TestNavigationCredentialRejectedMidSession(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)
	f.upstream.setMenusMode("unauthorized")

	rec := f.get("/admin/club", cookie, nil)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=/admin/club", rec.Header().Get("Location"))

	// The persisted identity is gone; the profile endpoint now rejects.
	profile := f.get("/session/profile", cookie, nil)
	assert.Equal(t, http.StatusUnauthorized, profile.Code)
}

func TestSessionMenusRequiresAuthentication(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/session/menus", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionPermissionCheck(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	allowed := f.get("/session/permissions/check?code=admin:manageAllClubs", cookie, nil)
	require.Equal(t, http.StatusOK, allowed.Code)
	var resp permissionCheckResponse
	require.NoError(t, json.Unmarshal(allowed.Body.Bytes(), &resp))
	assert.True(t, resp.Allowed)

	denied := f.get("/session/permissions/check?code=not:a:permission", cookie, nil)
	require.Equal(t, http.StatusOK, denied.Code)
	require.NoError(t, json.Unmarshal(denied.Body.Bytes(), &resp))
	assert.False(t, resp.Allowed)
}

func TestLogoutClearsSessionAndCookie(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must expire the session cookie")

	profile := f.get("/session/profile", cookie, nil)
	assert.Equal(t, http.StatusUnauthorized, profile.Code)
}

func TestAuthenticatedLoginPageBouncesHome(t *testing.T) {
	f := newFixture(t)
	cookie := f.login(t)

	rec := f.get("/login", cookie, nil)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/healthz", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
