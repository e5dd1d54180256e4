package menu

import (
	"fmt"

	"clubgate/internal/identity"
)

// Fallback is the static, role-indexed dataset served when the upstream menu
// source is unreachable. It deliberately trades strict correctness for
// availability: a conservative default beats blocking every navigation on a
// transient fetch failure. The permission lists are broader than what the
// fallback menus alone would derive, matching what the upstream grants each
// role.
type Fallback struct {
	Menus       []Node
	Permissions []string
}

var teacherPermissions = []string{
	"common:viewHome",
	"admin:access",
	"admin:manageAllClubs",
	"sys:manage",
	"sys:manageUsers",
	"sys:manageRoles",
	"sys:managePermissions",
	"club:manage",
	"dept:manageDepartment",
	"activity:manage",
	"file:manage",
	"member:manage",
}

var clubOfficerPermissions = []string{
	"common:viewHome",
	"admin:access",
	"club:manage",
}

// FallbackFor builds the degraded dataset for the identity's role. Club
// officers get their own club's dashboard entry, so the club ID is taken from
// the cached identity rather than the unreachable upstream.
func FallbackFor(ident identity.Identity) Fallback {
	menus := []Node{homeMenu()}

	switch {
	case ident.RoleID == identity.RoleTeacher:
		menus = append(menus, teacherAdminMenu())
		return Fallback{Menus: menus, Permissions: teacherPermissions}
	case ident.CanAccessAdmin():
		menus = append(menus, clubOfficerAdminMenu(ident.ClubID))
		return Fallback{Menus: menus, Permissions: clubOfficerPermissions}
	default:
		return Fallback{Menus: menus, Permissions: []string{"common:viewHome"}}
	}
}

func homeMenu() Node {
	return Node{
		ID:             1,
		ParentID:       0,
		Name:           "Home",
		Path:           "home",
		ComponentKey:   "common/Home",
		PermissionCode: "common:viewHome",
		Icon:           "Home",
		SortOrder:      1,
		Kind:           KindRoutable,
		Status:         StatusEnabled,
	}
}

func teacherAdminMenu() Node {
	return Node{
		ID:             2,
		ParentID:       0,
		Name:           "Administration",
		Path:           "admin",
		ComponentKey:   "layout/BlankLayout",
		PermissionCode: "admin:access",
		Icon:           "Setting",
		SortOrder:      2,
		Kind:           KindDirectory,
		Status:         StatusEnabled,
		Children: []Node{
			{
				ID:             3,
				ParentID:       2,
				Name:           "Club Management",
				Path:           "admin/club",
				ComponentKey:   "admin/club/ClubManage",
				PermissionCode: "admin:manageAllClubs",
				Icon:           "ShoppingBag",
				SortOrder:      1,
				Kind:           KindRoutable,
				Status:         StatusEnabled,
			},
			{
				ID:             9,
				ParentID:       2,
				Name:           "System Management",
				Path:           "admin/system",
				ComponentKey:   "layout/BlankLayout",
				PermissionCode: "sys:manage",
				Icon:           "Lock",
				SortOrder:      99,
				Kind:           KindDirectory,
				Status:         StatusEnabled,
				Children: []Node{
					{
						ID:             10,
						ParentID:       9,
						Name:           "User Management",
						Path:           "admin/system/users",
						ComponentKey:   "admin/system/UserManage",
						PermissionCode: "sys:manageUsers",
						Icon:           "User",
						SortOrder:      1,
						Kind:           KindRoutable,
						Status:         StatusEnabled,
					},
					{
						ID:             11,
						ParentID:       9,
						Name:           "Role Management",
						Path:           "admin/system/roles",
						ComponentKey:   "admin/system/RoleManage",
						PermissionCode: "sys:manageRoles",
						Icon:           "UserFilled",
						SortOrder:      2,
						Kind:           KindRoutable,
						Status:         StatusEnabled,
					},
					{
						ID:             12,
						ParentID:       9,
						Name:           "Permission Management",
						Path:           "admin/system/permissions",
						ComponentKey:   "admin/system/PermissionManage",
						PermissionCode: "sys:managePermissions",
						Icon:           "Lock",
						SortOrder:      3,
						Kind:           KindRoutable,
						Status:         StatusEnabled,
					},
				},
			},
		},
	}
}

func clubOfficerAdminMenu(clubID int64) Node {
	return Node{
		ID:             2,
		ParentID:       0,
		Name:           "Administration",
		Path:           "admin",
		ComponentKey:   "layout/BlankLayout",
		PermissionCode: "admin:access",
		Icon:           "Setting",
		SortOrder:      2,
		Kind:           KindDirectory,
		Status:         StatusEnabled,
		Children: []Node{
			{
				ID:             4,
				ParentID:       2,
				Name:           "My Club",
				Path:           fmt.Sprintf("admin/club/%d/dashboard", clubID),
				ComponentKey:   "admin/club/ClubDashboard",
				PermissionCode: "club:manage",
				Icon:           "Management",
				SortOrder:      2,
				Kind:           KindRoutable,
				Status:         StatusEnabled,
			},
		},
	}
}
