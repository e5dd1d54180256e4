package httptransport

import (
	"log/slog"
	"net/http"
	"sync"

	"clubgate/internal/menu"
	"clubgate/internal/nav"
	"clubgate/internal/nav/views"
	"clubgate/internal/upstream"
)

// SessionBuilder constructs the navigation context for a session ID: a fresh
// menu cache and a route table seeded with the constant pages.
type SessionBuilder func(id string) *nav.Session

// SessionRegistry holds the in-process navigation state per gateway session.
// Identity survives restarts through the persisted store; this state does
// not, which is exactly the reload semantics the guard builds on.
type SessionRegistry struct {
	build SessionBuilder

	mu       sync.Mutex
	sessions map[string]*nav.Session
}

func NewSessionRegistry(build SessionBuilder) *SessionRegistry {
	return &SessionRegistry{
		build:    build,
		sessions: make(map[string]*nav.Session),
	}
}

// Get returns the session context, creating it on first use. A session seen
// for the first time after a restart starts with an empty cache and
// RegistrationNotStarted, which the guard then repopulates.
func (r *SessionRegistry) Get(id string) *nav.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		return sess
	}
	sess := r.build(id)
	r.sessions[id] = sess
	return sess
}

// Peek returns the session context without creating one.
func (r *SessionRegistry) Peek(id string) (*nav.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Drop discards the session context. The next login builds a new one, which
// is what resets the once-per-session registration.
func (r *SessionRegistry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// DefaultSessionBuilder builds sessions over the shared component registry,
// with a menu cache backed by the upstream client and a route table seeded
// with the constant pages.
func DefaultSessionBuilder(up *upstream.Client, logger *slog.Logger) SessionBuilder {
	registry := views.Default()
	return func(id string) *nav.Session {
		table := nav.NewRouteTable(nav.DefaultStaticPages(), registry, consoleChrome, renderView)
		return nav.NewSession(id, menu.NewCache(up, logger), table)
	}
}

// consoleChrome marks responses rendered inside the authenticated console
// shell. Public pages render bare.
func consoleChrome(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Console-Layout", "default")
		next.ServeHTTP(w, r)
	})
}

func renderView(w http.ResponseWriter, r *http.Request, status int, view views.View) {
	writeJSON(w, status, view)
}
