// Package views maps opaque component keys from menu entries onto the view
// descriptors the console shell renders. The registry is closed and total: a
// key missing from the table resolves to a diagnostic placeholder instead of
// failing, so one bad menu entry never blocks the rest.
package views

import "sort"

// View is the JSON payload served for a navigable page. UI rendering is the
// shell's concern; the gateway only names the component and its title.
type View struct {
	Component string `json:"component"`
	Title     string `json:"title,omitempty"`

	// Placeholder fields, set only when the component key was unresolved.
	Placeholder     bool     `json:"placeholder,omitempty"`
	MissingKey      string   `json:"missingComponent,omitempty"`
	KnownComponents []string `json:"knownComponents,omitempty"`
}

// Loader lazily produces a view; materialization stores loaders, not views.
type Loader func(title string) View

// Registry is the closed component-key table.
type Registry struct {
	known map[string]struct{}
}

// Default returns the console's component registry.
func Default() *Registry {
	keys := []string{
		"admin/club/ClubManage",
		"admin/club/ClubDashboard",
		"admin/club/departments/DepartmentManage",
		"admin/club/departments/DepartmentDetail",
		"admin/club/activities/ActivityManage",
		"admin/club/activities/ActivityDetail",
		"admin/club/activities/ActivityEdit",
		"admin/club/files/FileManage",
		"admin/club/members/MemberManage",
		"admin/system/UserManage",
		"admin/system/RoleManage",
		"admin/system/PermissionManage",
		"common/Home",
		"common/Login",
		"common/Register",
		"common/NotFound",
		"user/Profile",
		"layout/BlankLayout",
	}
	known := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		known[k] = struct{}{}
	}
	return &Registry{known: known}
}

// NewRegistry builds a registry over an explicit key set, used by tests.
func NewRegistry(keys ...string) *Registry {
	known := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		known[k] = struct{}{}
	}
	return &Registry{known: known}
}

// Known reports whether the key is in the table.
func (r *Registry) Known(key string) bool {
	_, ok := r.known[key]
	return ok
}

// Keys returns the registered keys, sorted.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.known))
	for k := range r.known {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve returns a loader for the key. Unknown keys get a placeholder loader
// carrying the unresolved key and the list of known keys.
func (r *Registry) Resolve(key string) Loader {
	if r.Known(key) {
		return func(title string) View {
			return View{Component: key, Title: title}
		}
	}
	keys := r.Keys()
	return func(title string) View {
		return View{
			Component:       key,
			Title:           title,
			Placeholder:     true,
			MissingKey:      key,
			KnownComponents: keys,
		}
	}
}
