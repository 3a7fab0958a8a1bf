package actor

import "fmt"

// Role is the marketplace-wide principal kind. Every engine operation
// receives the acting principal explicitly; nothing reads identity from
// ambient state.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

type Actor struct {
	ID   string
	Role Role
}
