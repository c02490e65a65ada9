package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-events/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

type DB struct {
	Bun *bun.DB
}

// CreateEvent inserts the event, its creator's CREATOR team membership and
// the location row in one transaction, so an event is never visible without
// its implicit team.
func (d *DB) CreateEvent(ctx context.Context, event models.Event, location *models.Location) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&event).Exec(ctx); err != nil {
			return err
		}

		creator := models.TeamMember{
			EventID: event.ID,
			UserID:  event.CreatedBy,
			Role:    models.RoleCreator,
			AddedAt: event.CreatedAt,
		}
		if _, err := tx.NewInsert().Model(&creator).Exec(ctx); err != nil {
			return err
		}

		if location != nil {
			location.EventID = event.ID
			if _, err := tx.NewInsert().Model(location).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetLocation(ctx context.Context, eventID string) (*models.Location, error) {
	var location models.Location
	err := d.Bun.NewSelect().
		Model(&location).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

func (d *DB) ListEvents(ctx context.Context, visibility string) ([]models.Event, error) {
	var events []models.Event
	q := d.Bun.NewSelect().Model(&events).Order("start_date ASC")
	if visibility != "" {
		q = q.Where("visibility = ?", visibility)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteEvent removes the event and everything hanging off it: attendees,
// team members, contact persons and the location.
func (d *DB) DeleteEvent(ctx context.Context, eventID string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Attendee)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.TeamMember)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.ContactPerson)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*models.Location)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", eventID).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrEventNotFound
		}
		return nil
	})
}

// ---------------- CONTACT PERSONS ----------------

func (d *DB) ListContacts(ctx context.Context, eventID string) ([]models.ContactPerson, error) {
	var contacts []models.ContactPerson
	err := d.Bun.NewSelect().
		Model(&contacts).
		Where("event_id = ?", eventID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func (d *DB) AddContact(ctx context.Context, contact models.ContactPerson) error {
	_, err := d.Bun.NewInsert().Model(&contact).Exec(ctx)
	return err
}

func (d *DB) RemoveContact(ctx context.Context, eventID, contactID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.ContactPerson)(nil)).
		Where("event_id = ? AND id = ?", eventID, contactID).
		Exec(ctx)
	return err
}
