package domain

import "fmt"

// Role is the closed set of roles carried in access tokens.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

var knownRoles = map[Role]struct{}{
	RoleCustomer: {},
	RoleManager:  {},
	RoleAdmin:    {},
}

func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r Role) String() string { return string(r) }

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
