package nav

import (
	"fmt"
	"strings"

	"clubgate/internal/menu"
	"clubgate/internal/nav/views"
)

// Materialize converts a menu tree into the flat list of routable entries.
// Pure and deterministic: same tree and registry, same output.
//
// Emission rules, per node:
//   - disabled nodes are pruned together with everything beneath them
//   - action nodes never route and are not traversed further
//   - directory nodes are traversed into but not emitted
//   - routable nodes are emitted, then traversed
//
// Component keys resolve through the closed registry; an unknown key becomes
// a diagnostic placeholder view rather than a failed materialization, so one
// bad menu entry never blocks its siblings.
func Materialize(tree []menu.Node, registry *views.Registry) []RouteEntry {
	var entries []RouteEntry
	var walk func(nodes []menu.Node)
	walk = func(nodes []menu.Node) {
		for _, n := range nodes {
			if !n.Enabled() {
				continue
			}
			if n.Kind == menu.KindAction {
				continue
			}
			if n.Kind == menu.KindRoutable {
				entries = append(entries, RouteEntry{
					Path:    normalizePath(n.Path),
					RouteID: fmt.Sprintf("menu-%d", n.ID),
					Load:    registry.Resolve(n.ComponentKey),
					Meta: Meta{
						Title:          n.Name,
						Icon:           n.Icon,
						PermissionCode: n.PermissionCode,
						MenuID:         n.ID,
						RequiresAuth:   true,
					},
				})
			}
			walk(n.Children)
		}
	}
	walk(tree)
	return entries
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
