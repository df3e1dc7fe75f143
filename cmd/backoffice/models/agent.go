package models

import (
	"time"

	"github.com/google/uuid"
)

// Role gates what an agent may do in the back office
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// AtLeast reports whether the role grants at least the given level
func (r Role) AtLeast(min Role) bool {
	return roleRank(r) >= roleRank(min)
}

func roleRank(r Role) int {
	switch r {
	case RoleSuperadmin:
		return 3
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// Agent is an internal staff identity layered over an external auth user.
// At most one agent exists per external user_id.
// Maps to: agent table
type Agent struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      string    `db:"email" json:"email"`
	Team       *string   `db:"team" json:"team,omitempty"`
	TeamNumber *int      `db:"team_number" json:"team_number,omitempty"`
	Role       Role      `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FullName returns "First Last" for display
func (a *Agent) FullName() string {
	return a.FirstName + " " + a.LastName
}

// CreateAgentRequest is the payload for registering a new agent
type CreateAgentRequest struct {
	UserID     string  `json:"user_id" validate:"required"`
	FirstName  string  `json:"first_name" validate:"required"`
	LastName   string  `json:"last_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Team       *string `json:"team,omitempty"`
	TeamNumber *int    `json:"team_number,omitempty"`
	Role       Role    `json:"role,omitempty"`
}

// UpdateAgentRoleRequest changes an agent's role
type UpdateAgentRoleRequest struct {
	Role Role `json:"role" validate:"required"`
}
