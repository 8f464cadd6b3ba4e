package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the platform role of an account.
type Role string

const (
	RoleDonor   Role = "donor"
	RoleCharity Role = "charity"
	RoleVendor  Role = "vendor"
	RoleAdmin   Role = "admin"
)

var validRoles = []Role{RoleDonor, RoleCharity, RoleVendor, RoleAdmin}

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Actor is the explicit identity every marketplace operation acts on behalf of.
type Actor struct {
	ID    uuid.UUID
	Role  Role
	Name  string
	Email string
}

// Is reports whether the actor holds role r.
func (a Actor) Is(r Role) bool {
	return a.Role == r
}
