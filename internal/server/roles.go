package server

import "fmt"

// Role is the closed set of account roles. Authorization checks match
// exhaustively against these constants; adding a role is a code change,
// not a data change.
type Role string

const (
	RoleUser     Role = "user"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a stored or claimed role string onto the closed set.
// Unknown values are an error so that callers fail closed.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleEmployee:
		return RoleEmployee, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// In reports whether r is a member of the given set. An empty set means
// any role is acceptable.
func (r Role) In(set ...Role) bool {
	if len(set) == 0 {
		return true
	}
	for _, allowed := range set {
		if r == allowed {
			return true
		}
	}
	return false
}
