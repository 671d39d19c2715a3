package types

import "fmt"

// Role represents the standing of a user in the review pipeline.
// It is a closed set: access resolution and notification fanout switch
// exhaustively over these values, so adding a role is a single-point change.
type Role string

const (
	// RoleClient is the party that filed the application.
	RoleClient Role = "client"
	// RoleStaff is a reviewer that can be assigned to cases.
	RoleStaff Role = "staff"
	// RoleAdmin can see and act on every case.
	RoleAdmin Role = "admin"
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{
		RoleClient,
		RoleStaff,
		RoleAdmin,
	}
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a string into a Role
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return role, nil
}
