package models

import "github.com/uptrace/bun"

type Location struct {
	bun.BaseModel `bun:"table:locations"`

	EventID string `bun:"event_id,pk" json:"event_id"`
	Type    string `bun:"type,notnull" json:"type"`

	// Venue fields.
	Address string `bun:"address,nullzero" json:"address,omitempty"`
	City    string `bun:"city,nullzero" json:"city,omitempty"`
	Country string `bun:"country,nullzero" json:"country,omitempty"`

	// Online field.
	MeetingURL string `bun:"meeting_url,nullzero" json:"meeting_url,omitempty"`
}
