package nav

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"clubgate/internal/nav/views"
)

// Renderer serves a resolved view; the transport layer decides the wire shape.
type Renderer func(w http.ResponseWriter, r *http.Request, status int, view views.View)

// Middleware is the layout chrome wrapped around every authenticated page.
type Middleware func(http.Handler) http.Handler

// RouteTable owns one session's live router: the constant pages plus the
// layout subtree dynamic entries attach to. Dynamic entries are always
// children of the layout, never top-level, so every dynamic view shares the
// console shell.
//
// Navigations within a session are serialized by the host router; the mutex
// only protects the lookup maps against concurrent sessions endpoints.
type RouteTable struct {
	mux        *chi.Mux
	dynMatcher *chi.Mux
	chrome     Middleware
	render     Renderer

	mu      sync.RWMutex
	static  map[string]StaticPage
	dynamic map[string]RouteEntry
}

// NewRouteTable builds the route table with the given constant pages.
func NewRouteTable(pages []StaticPage, registry *views.Registry, chrome Middleware, render Renderer) *RouteTable {
	if chrome == nil {
		chrome = func(next http.Handler) http.Handler { return next }
	}
	t := &RouteTable{
		mux:        chi.NewRouter(),
		dynMatcher: chi.NewRouter(),
		chrome:     chrome,
		render:     render,
		static:     make(map[string]StaticPage, len(pages)),
		dynamic:    make(map[string]RouteEntry),
	}

	for _, page := range pages {
		t.static[page.Path] = page
		load := registry.Resolve(page.Component)
		handler := t.viewHandler(load, page.Title)
		if page.RequiresAuth {
			t.mux.With(chrome).Get(page.Path, handler)
		} else {
			t.mux.Get(page.Path, handler)
		}
	}

	notFound := registry.Resolve("common/NotFound")
	t.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusNotFound, notFound("Not Found"))
	})

	return t
}

func (t *RouteTable) viewHandler(load views.Loader, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.render(w, r, http.StatusOK, load(title))
	}
}

// Attach registers a dynamic entry as a child of the layout. A malformed
// pattern makes the underlying router panic; that is converted into an error
// so one bad entry never aborts its siblings.
func (t *RouteTable) Attach(entry RouteEntry) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("register route %q: %v", entry.Path, rec)
		}
	}()

	handler := t.viewHandler(entry.Load, entry.Meta.Title)
	t.mux.With(t.chrome).Get(entry.Path, handler)
	t.dynMatcher.Get(entry.Path, func(http.ResponseWriter, *http.Request) {})

	t.mu.Lock()
	t.dynamic[entry.Path] = entry
	t.mu.Unlock()
	return nil
}

// Lookup resolves what the guard needs to know about a path. Statically
// registered pages carry their own flags; registered dynamic entries carry
// their menu metadata; anything else is an unregistered dynamic candidate and
// requires authentication.
func (t *RouteTable) Lookup(path string) Target {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if page, ok := t.static[path]; ok {
		return Target{
			RequiresAuth:   page.RequiresAuth,
			PermissionCode: page.PermissionCode,
			Static:         true,
		}
	}

	rctx := chi.NewRouteContext()
	if t.dynMatcher.Match(rctx, http.MethodGet, path) {
		entry := t.dynamic[rctx.RoutePattern()]
		return Target{
			RequiresAuth:   entry.Meta.RequiresAuth,
			PermissionCode: entry.Meta.PermissionCode,
			Dynamic:        true,
		}
	}

	return Target{RequiresAuth: true}
}

// DynamicPaths returns the registered dynamic patterns, for diagnostics.
func (t *RouteTable) DynamicPaths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.dynamic))
	for p := range t.dynamic {
		out = append(out, p)
	}
	return out
}

// ServeHTTP dispatches a proceeding navigation against the live router. The
// route context is reset so routing state from a host router never leaks in.
func (t *RouteTable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, chi.NewRouteContext())
	t.mux.ServeHTTP(w, r.WithContext(ctx))
}
