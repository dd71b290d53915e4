package models

// Roles in ascending order of authority. RoleSP is district-wide and not
// bound to any station.
const (
	RoleWriter = "writer"
	RoleSHO    = "sho"
	RoleSP     = "sp"
)

// Actor is the authenticated caller as seen by the authorization layer:
// one role, one home station. Station is meaningless for RoleSP.
type Actor struct {
	Role    string `json:"role"`
	Station string `json:"station"`
}

// ValidRole reports whether role is one of the three known ranks
func ValidRole(role string) bool {
	switch role {
	case RoleWriter, RoleSHO, RoleSP:
		return true
	}
	return false
}
