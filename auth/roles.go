package auth

// The four ordered privilege tiers. Authorization checks are tier-inclusive:
// an endpoint requiring admin accepts admin, superAdmin and kamisama.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superAdmin"
	RoleKamisama   = "kamisama"
)

var tierRank = map[string]int{
	RoleUser:       0,
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
	RoleKamisama:   3,
}

// TierAtLeast reports whether role meets the required tier. Unknown roles
// (including the empty string for a missing user/role) never qualify, so
// callers fail closed.
func TierAtLeast(role, required string) bool {
	have, ok := tierRank[role]
	if !ok {
		return false
	}
	want, ok := tierRank[required]
	if !ok {
		return false
	}
	return have >= want
}
