package domain

import (
	"fmt"
	"time"
)

// UserRole enumerates the single role carried by each user.
type UserRole string

const (
	UserRoleRequester UserRole = "REQUESTER"
	UserRoleAgent     UserRole = "AGENT"
	UserRoleManager   UserRole = "MANAGER"
)

// ParseUserRole converts a raw string into a UserRole.
func ParseUserRole(raw string) (UserRole, error) {
	role := UserRole(raw)
	switch role {
	case UserRoleRequester, UserRoleAgent, UserRoleManager:
		return role, nil
	}
	return "", fmt.Errorf("unknown user role %q", raw)
}

// User is the domain model for everyone who interacts with tickets.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}
