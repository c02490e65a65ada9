package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleCreator = "CREATOR"
	RoleAdmin   = "ADMIN"
	RoleMember  = "MEMBER"
)

type TeamMember struct {
	bun.BaseModel `bun:"table:team_members"`

	EventID string    `bun:"event_id,pk" json:"event_id"`
	UserID  string    `bun:"user_id,pk" json:"user_id"`
	Role    string    `bun:"role,notnull" json:"role"`
	AddedAt time.Time `bun:"added_at,notnull" json:"added_at"`
	AddedBy string    `bun:"added_by,nullzero" json:"added_by,omitempty"`
}

// IsOrganizer reports whether the member may perform organizer-only
// operations (approve, check-in, edit, team administration).
func (m *TeamMember) IsOrganizer() bool {
	return m.Role == RoleCreator || m.Role == RoleAdmin
}

type AddTeamMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type UpdateTeamMemberRequest struct {
	Role string `json:"role"`
}
