// Package menu models the role-scoped menu tree served by the upstream
// platform and derives the flat permission set the navigation layer gates on.
package menu

// Kind discriminates what a menu node is on the wire (menuType).
type Kind int

const (
	KindDirectory Kind = 1 // groups children, has no view of its own
	KindRoutable  Kind = 2 // becomes a navigable route
	KindAction    Kind = 3 // button-level entry, never routes
)

// Status is the wire encoding of node enablement.
type Status int

const (
	StatusDisabled Status = 0
	StatusEnabled  Status = 1
)

// Node is one entry of the server-defined menu tree. Field names follow the
// upstream JSON contract.
type Node struct {
	ID             int64  `json:"menuId"`
	ParentID       int64  `json:"parentId"`
	Name           string `json:"menuName"`
	Path           string `json:"path"`
	ComponentKey   string `json:"component"`
	PermissionCode string `json:"permissionCode"`
	Icon           string `json:"icon"`
	SortOrder      int    `json:"sortOrder"`
	Kind           Kind   `json:"menuType"`
	Status         Status `json:"status"`
	Children       []Node `json:"children,omitempty"`
}

// Enabled reports whether the node survives pruning.
func (n Node) Enabled() bool { return n.Status == StatusEnabled }

// PermissionSet is the flat set of permission codes derived from a tree.
type PermissionSet map[string]struct{}

// Has reports whether the code is present. Empty codes are never present.
func (p PermissionSet) Has(code string) bool {
	if code == "" {
		return false
	}
	_, ok := p[code]
	return ok
}

// Codes returns the set as a slice, order unspecified.
func (p PermissionSet) Codes() []string {
	out := make([]string, 0, len(p))
	for code := range p {
		out = append(out, code)
	}
	return out
}

// Permissions collects every non-empty permissionCode in the tree. A node's
// code gates only itself; nothing is inherited, so the derivation is a plain
// traversal with set semantics.
func Permissions(tree []Node) PermissionSet {
	set := make(PermissionSet)
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			if n.PermissionCode != "" {
				set[n.PermissionCode] = struct{}{}
			}
			walk(n.Children)
		}
	}
	walk(tree)
	return set
}

// NewPermissionSet builds a set from explicit codes, used by the fallback
// datasets whose permissions are broader than their menus.
func NewPermissionSet(codes []string) PermissionSet {
	set := make(PermissionSet, len(codes))
	for _, code := range codes {
		if code != "" {
			set[code] = struct{}{}
		}
	}
	return set
}

// Flatten returns the tree in depth-first order, parents before children.
func Flatten(tree []Node) []Node {
	var out []Node
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(tree)
	return out
}

// FindByPath returns the first node whose path matches, or nil.
func FindByPath(tree []Node, path string) *Node {
	for i := range tree {
		if tree[i].Path == path {
			return &tree[i]
		}
		if found := FindByPath(tree[i].Children, path); found != nil {
			return found
		}
	}
	return nil
}
