// Package nav is the menu-driven dynamic authorization and routing core: it
// materializes the role-scoped menu tree into live routes, registers them
// under the console layout, and gates every navigation through the guard.
package nav

import (
	"fmt"

	"clubgate/internal/nav/views"
)

// Meta carries the routing metadata attached to each entry.
type Meta struct {
	Title          string
	Icon           string
	PermissionCode string
	MenuID         int64
	RequiresAuth   bool
}

// RouteEntry is a navigable path derived from one routable menu node. It is
// ephemeral: rebuilt from the menu tree once per session.
type RouteEntry struct {
	Path    string // absolute, leading '/'
	RouteID string // derived from the menu node ID, unique per tree
	Load    views.Loader
	Meta    Meta
}

// RegistrationState tracks whether this session's dynamic routes have been
// injected into the live router. It moves NotStarted -> Done exactly once per
// session and resets only when the session is rebuilt (process restart or
// fresh login).
type RegistrationState int

const (
	RegistrationNotStarted RegistrationState = iota
	RegistrationInProgress
	RegistrationDone
)

func (s RegistrationState) String() string {
	switch s {
	case RegistrationNotStarted:
		return "not_started"
	case RegistrationInProgress:
		return "in_progress"
	case RegistrationDone:
		return "done"
	default:
		return fmt.Sprintf("RegistrationState(%d)", int(s))
	}
}

// StaticPage describes an always-registered route that survives restarts
// without menu hydration.
type StaticPage struct {
	Path           string
	Title          string
	Component      string
	RequiresAuth   bool
	PermissionCode string
}

// DefaultStaticPages returns the console's constant routes. The root is the
// safe landing point the reload sentinel collapses to.
func DefaultStaticPages() []StaticPage {
	return []StaticPage{
		{Path: "/login", Title: "Login", Component: "common/Login"},
		{Path: "/register", Title: "Register", Component: "common/Register"},
		{Path: "/", Title: "Home", Component: "common/Home", RequiresAuth: true},
		{Path: "/user/profile", Title: "Profile", Component: "user/Profile", RequiresAuth: true},
	}
}

// Target is what the guard knows about a navigation destination before
// deciding. Unknown paths are treated as dynamic candidates: everything not
// statically registered lives under the authenticated layout.
type Target struct {
	RequiresAuth   bool
	PermissionCode string
	Static         bool
	Dynamic        bool
}
