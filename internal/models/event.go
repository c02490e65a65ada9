package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	LocationTypeVenue  = "VENUE"
	LocationTypeOnline = "ONLINE"
)

const (
	VisibilityPublic  = "PUBLIC"
	VisibilityPrivate = "PRIVATE"
)

const (
	PriceTypeFree = "FREE"
	PriceTypePaid = "PAID"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID string `bun:"id,pk" json:"id"`

	Name string `bun:"name,notnull" json:"name"`
	// Description is an opaque rich-text JSON blob; the service stores and
	// returns it without inspecting it.
	Description string `bun:"description,nullzero" json:"description,omitempty"`

	StartDate time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate   time.Time `bun:"end_date,notnull" json:"end_date"`

	// Capacity is the upper bound on approved attendees. Zero means no limit.
	Capacity        int    `bun:"capacity,nullzero" json:"capacity,omitempty"`
	RequireApproval bool   `bun:"require_approval" json:"require_approval"`
	LocationType    string `bun:"location_type,notnull" json:"location_type"`

	Visibility string  `bun:"visibility,notnull" json:"visibility"`
	PriceType  string  `bun:"price_type,notnull" json:"price_type"`
	Price      float64 `bun:"price,nullzero" json:"price,omitempty"`

	CreatedBy string    `bun:"created_by,notnull" json:"created_by"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// HasCapacity reports whether the event limits its approved attendee count.
func (e *Event) HasCapacity() bool {
	return e.Capacity > 0
}

type EventRequest struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Capacity        int       `json:"capacity"`
	RequireApproval bool      `json:"require_approval"`
	LocationType    string    `json:"location_type"`
	Visibility      string    `json:"visibility"`
	PriceType       string    `json:"price_type"`
	Price           float64   `json:"price"`
	Location        *Location `json:"location,omitempty"`
}

// EventUpdate carries the fields an organizer may change on an existing
// event. Pointers distinguish "not sent" from zero values.
type EventUpdate struct {
	Name            *string    `json:"name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Capacity        *int       `json:"capacity,omitempty"`
	RequireApproval *bool      `json:"require_approval,omitempty"`
	LocationType    *string    `json:"location_type,omitempty"`
	Visibility      *string    `json:"visibility,omitempty"`
	PriceType       *string    `json:"price_type,omitempty"`
	Price           *float64   `json:"price,omitempty"`
}
