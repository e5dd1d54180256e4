package identity

// Role IDs as assigned by the upstream club-management platform.
const (
	RoleTeacher       = 1
	RolePresident     = 2
	RoleVicePresident = 3
	RoleDeptHead      = 4
	RoleDeputyHead    = 5
	RoleStaff         = 6
	RoleStudentMember = 7
)

var roleNames = map[int]string{
	RoleTeacher:       "Teacher",
	RolePresident:     "President",
	RoleVicePresident: "Vice President",
	RoleDeptHead:      "Department Head",
	RoleDeputyHead:    "Deputy Head",
	RoleStaff:         "Staff",
	RoleStudentMember: "Student Member",
}

// Identity is the resolved user profile plus the upstream bearer credential.
// It is owned exclusively by the persisted identity store; everything else
// reads a copy and mutates only through the store's Write/Clear.
type Identity struct {
	Token        string `json:"token"`
	UserID       int64  `json:"userId"`
	RoleID       int    `json:"roleId"`
	ClubID       int64  `json:"clubId,omitempty"`
	DepartmentID int64  `json:"departmentId,omitempty"`
	NickName     string `json:"nickName,omitempty"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	Device       string `json:"device,omitempty"`
}

// HasToken reports whether a bearer credential is present.
func (i Identity) HasToken() bool { return i.Token != "" }

// CanAccessAdmin reports whether the role may enter the administrative area.
// Roles 1 through 6 are admin-eligible; student members are not.
func (i Identity) CanAccessAdmin() bool {
	return i.RoleID >= RoleTeacher && i.RoleID <= RoleStaff
}

// IsTeacher reports whether this identity manages all clubs.
func (i Identity) IsTeacher() bool { return i.RoleID == RoleTeacher }

// RoleName returns the display name for the identity's role.
func (i Identity) RoleName() string {
	if name, ok := roleNames[i.RoleID]; ok {
		return name
	}
	return "Unknown"
}
