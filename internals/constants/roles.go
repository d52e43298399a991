package constants

// Application roles. A user has exactly one.
const (
	RoleSuperadmin  = "superadmin"
	RoleSchoolAdmin = "school_admin"
	RoleTeacher     = "teacher"
)

func IsValidRole(r string) bool {
	switch r {
	case RoleSuperadmin, RoleSchoolAdmin, RoleTeacher:
		return true
	}
	return false
}
