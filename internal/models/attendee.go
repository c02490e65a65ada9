package models

import (
	"time"

	"github.com/uptrace/bun"
)

// NotCheckedIn is the sentinel stored in check_in_date for attendees who
// have not been scanned at the door.
const NotCheckedIn = "Not checked in"

type Attendee struct {
	bun.BaseModel `bun:"table:attendees"`

	ID      string `bun:"id,pk" json:"id"`
	EventID string `bun:"event_id,notnull,unique:attendees_event_user_key" json:"event_id"`
	UserID  string `bun:"user_id,notnull,unique:attendees_event_user_key" json:"user_id"`

	Name  string `bun:"name,notnull" json:"name"`
	Email string `bun:"email,notnull" json:"email"`

	IsApproved bool `bun:"is_approved" json:"is_approved"`

	// TicketID and TicketCode are either both set or both empty. A ticket
	// exists only for approved attendees of venue events.
	TicketID   string `bun:"ticket_id,nullzero" json:"ticket_id,omitempty"`
	TicketCode string `bun:"ticket_code,nullzero" json:"ticket_code,omitempty"`

	CheckInDate  string    `bun:"check_in_date,notnull" json:"check_in_date"`
	RegisteredAt time.Time `bun:"registered_at,notnull" json:"registered_at"`
}

// HasTicket reports whether a venue admission credential has been issued.
func (a *Attendee) HasTicket() bool {
	return a.TicketID != ""
}

type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ApproveAttendeesRequest struct {
	AttendeeIDs []string `json:"attendee_ids"`
}

type RemoveAttendeesRequest struct {
	AttendeeIDs []string `json:"attendee_ids"`
}

// CheckInRequest honors exactly one lookup key, in priority order:
// attendee ID, then ticket code, then email.
type CheckInRequest struct {
	AttendeeID string `json:"attendee_id,omitempty"`
	TicketCode string `json:"ticket_code,omitempty"`
	Email      string `json:"email,omitempty"`
}

type UncheckInRequest struct {
	TicketCode string `json:"ticket_code"`
}

type SpotsResponse struct {
	Capacity  int  `json:"capacity"`
	SpotsUsed int  `json:"spots_used"`
	SpotsLeft int  `json:"spots_left"`
	Unlimited bool `json:"unlimited"`
}
