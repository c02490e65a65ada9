package models

import "github.com/uptrace/bun"

type ContactPerson struct {
	bun.BaseModel `bun:"table:contact_persons"`

	ID      string `bun:"id,pk" json:"id"`
	EventID string `bun:"event_id,notnull" json:"event_id"`
	Name    string `bun:"name,notnull" json:"name"`
	Email   string `bun:"email,nullzero" json:"email,omitempty"`
	Phone   string `bun:"phone,nullzero" json:"phone,omitempty"`
}
