package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"ms-events/internal/models"
	"ms-events/internal/tickets"
)

// Business-rule outcomes of the registration engine. They are expected,
// user-facing results, not systemic errors, and are reported verbatim.
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrAttendeeNotFound  = errors.New("attendee not found")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrEventFull         = errors.New("event is full")
	ErrNotApproved       = errors.New("attendee is not approved")
	ErrInvalidEventType  = errors.New("check-in is only available for venue events")
)

type DB struct {
	Bun *bun.DB
}

// Capacity decisions rest on a count-then-insert inside the transaction, so
// READ COMMITTED is not enough: two registrations for the last spot can both
// pass the count. Serializable isolation makes Postgres abort one of them
// with SQLSTATE 40001, which is safe to retry from the top.
const serializationRetries = 3

// runEngineTx runs fn in a serializable transaction, retrying serialization
// failures. SQLite transactions are serializable already and its drivers
// reject explicit isolation levels, so the option is only set on Postgres.
func (d *DB) runEngineTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	var opts *sql.TxOptions
	if d.Bun.Dialect().Name() == dialect.PG {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}

	var err error
	for attempt := 0; attempt < serializationRetries; attempt++ {
		err = d.Bun.RunInTx(ctx, opts, fn)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

// ---------------- REGISTRATION ----------------

// RegisterAttendee creates an attendee row for (eventID, userID), applying
// the capacity and approval rules inside a single transaction. The unique
// (event_id, user_id) index backs the duplicate check against concurrent
// registrations.
func (d *DB) RegisterAttendee(ctx context.Context, eventID, userID, name, email string) (*models.Attendee, error) {
	var created models.Attendee

	err := d.runEngineTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Attendee)(nil)).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRegistered
		}

		event, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}

		if event.HasCapacity() {
			used, err := countAttendees(ctx, tx, eventID, event.RequireApproval)
			if err != nil {
				return err
			}
			if used >= event.Capacity {
				return ErrEventFull
			}
		}

		created = models.Attendee{
			ID:           tickets.NewTicketID(),
			EventID:      eventID,
			UserID:       userID,
			Name:         name,
			Email:        email,
			IsApproved:   !event.RequireApproval,
			CheckInDate:  models.NotCheckedIn,
			RegisteredAt: time.Now(),
		}
		if created.IsApproved && event.LocationType == models.LocationTypeVenue {
			created.TicketID = tickets.NewTicketID()
			created.TicketCode = tickets.NewTicketCode()
		}

		if _, err := tx.NewInsert().Model(&created).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ApproveAttendees approves the given attendees of an event in one batch
// transaction. Venue events get a fresh ticket pair per newly approved
// attendee; an attendee that is already approved is left untouched, so an
// existing ticket is never rotated.
func (d *DB) ApproveAttendees(ctx context.Context, eventID string, attendeeIDs []string) ([]models.Attendee, error) {
	var approved []models.Attendee

	err := d.runEngineTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		event, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}

		for _, id := range attendeeIDs {
			var attendee models.Attendee
			err := tx.NewSelect().
				Model(&attendee).
				Where("id = ? AND event_id = ?", id, eventID).
				Limit(1).
				Scan(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: %s", ErrAttendeeNotFound, id)
				}
				return err
			}

			if attendee.IsApproved {
				approved = append(approved, attendee)
				continue
			}

			attendee.IsApproved = true
			if event.LocationType == models.LocationTypeVenue && !attendee.HasTicket() {
				attendee.TicketID = tickets.NewTicketID()
				attendee.TicketCode = tickets.NewTicketCode()
			}

			if _, err := tx.NewUpdate().
				Model(&attendee).
				Column("is_approved", "ticket_id", "ticket_code").
				Where("id = ?", attendee.ID).
				Exec(ctx); err != nil {
				return err
			}
			approved = append(approved, attendee)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// RemoveAttendees deletes attendee rows outright. There is no REJECTED
// state; removal returns the registration to square one.
func (d *DB) RemoveAttendees(ctx context.Context, eventID string, attendeeIDs []string) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Attendee)(nil)).
		Where("event_id = ?", eventID).
		Where("id IN (?)", bun.In(attendeeIDs)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---------------- EVENT EDIT SIDE EFFECTS ----------------

// ReconcileEventUpdate persists an event edit together with the attendee
// remediation it requires, in one transaction. The attendee snapshot is
// computed from the pre-edit event row:
//
//   - ONLINE -> VENUE: approved ticketless attendees receive a ticket pair.
//   - requireApproval true -> false: pending attendees become approved, plus
//     a ticket when the post-edit location type is VENUE.
//
// Attendee updates are applied before the event row so no state is ever
// observable where the event claims the new configuration while attendees
// still reflect the old one.
func (d *DB) ReconcileEventUpdate(ctx context.Context, updated models.Event) error {
	return d.runEngineTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		current, err := getEvent(ctx, tx, updated.ID)
		if err != nil {
			return err
		}

		wentVenue := current.LocationType == models.LocationTypeOnline &&
			updated.LocationType == models.LocationTypeVenue
		droppedApproval := current.RequireApproval && !updated.RequireApproval

		if wentVenue {
			var approved []models.Attendee
			err := tx.NewSelect().
				Model(&approved).
				Where("event_id = ? AND is_approved = ? AND ticket_id IS NULL", updated.ID, true).
				Scan(ctx)
			if err != nil {
				return err
			}
			for i := range approved {
				approved[i].TicketID = tickets.NewTicketID()
				approved[i].TicketCode = tickets.NewTicketCode()
				if _, err := tx.NewUpdate().
					Model(&approved[i]).
					Column("ticket_id", "ticket_code").
					Where("id = ?", approved[i].ID).
					Exec(ctx); err != nil {
					return err
				}
			}
		}

		if droppedApproval {
			var pending []models.Attendee
			err := tx.NewSelect().
				Model(&pending).
				Where("event_id = ? AND is_approved = ?", updated.ID, false).
				Scan(ctx)
			if err != nil {
				return err
			}
			for i := range pending {
				pending[i].IsApproved = true
				if updated.LocationType == models.LocationTypeVenue && !pending[i].HasTicket() {
					pending[i].TicketID = tickets.NewTicketID()
					pending[i].TicketCode = tickets.NewTicketCode()
				}
				if _, err := tx.NewUpdate().
					Model(&pending[i]).
					Column("is_approved", "ticket_id", "ticket_code").
					Where("id = ?", pending[i].ID).
					Exec(ctx); err != nil {
					return err
				}
			}
		}

		_, err = tx.NewUpdate().
			Model(&updated).
			Column("name", "description", "start_date", "end_date", "capacity",
				"require_approval", "location_type", "visibility", "price_type",
				"price", "updated_at").
			Where("id = ?", updated.ID).
			Exec(ctx)
		return err
	})
}

// ---------------- CHECK-IN ----------------

// FindForCheckIn resolves an attendee by one lookup key, in priority order:
// attendee ID, then ticket code, then email. The ticket-code path requires a
// non-empty ticket ID on the row, which rejects stale or forged codes.
func (d *DB) FindForCheckIn(ctx context.Context, eventID string, req models.CheckInRequest) (*models.Attendee, error) {
	var attendee models.Attendee
	q := d.Bun.NewSelect().Model(&attendee).Where("event_id = ?", eventID)

	switch {
	case req.AttendeeID != "":
		q = q.Where("id = ?", req.AttendeeID)
	case req.TicketCode != "":
		q = q.Where("ticket_code = ? AND ticket_id IS NOT NULL", req.TicketCode)
	case req.Email != "":
		q = q.Where("email = ?", req.Email)
	default:
		return nil, ErrAttendeeNotFound
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttendeeNotFound
		}
		return nil, err
	}
	return &attendee, nil
}

// SetCheckInDate writes the check-in column for a single attendee.
func (d *DB) SetCheckInDate(ctx context.Context, attendeeID, value string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Attendee)(nil)).
		Set("check_in_date = ?", value).
		Where("id = ?", attendeeID).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAttendeeNotFound
	}
	return nil
}

// ---------------- QUERIES ----------------

func (d *DB) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return getEvent(ctx, d.Bun, eventID)
}

func (d *DB) GetAttendeeByID(ctx context.Context, eventID, attendeeID string) (*models.Attendee, error) {
	var attendee models.Attendee
	err := d.Bun.NewSelect().
		Model(&attendee).
		Where("id = ? AND event_id = ?", attendeeID, eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttendeeNotFound
		}
		return nil, err
	}
	return &attendee, nil
}

func (d *DB) ListAttendees(ctx context.Context, eventID string) ([]models.Attendee, error) {
	var attendees []models.Attendee
	err := d.Bun.NewSelect().
		Model(&attendees).
		Where("event_id = ?", eventID).
		Order("registered_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

// CountApproved returns the number of spots used, i.e. approved attendees.
func (d *DB) CountApproved(ctx context.Context, eventID string) (int, error) {
	return countAttendees(ctx, d.Bun, eventID, true)
}

// ---------------- HELPERS ----------------

func getEvent(ctx context.Context, idb bun.IDB, eventID string) (*models.Event, error) {
	var event models.Event
	err := idb.NewSelect().
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

// countAttendees counts approved rows when approvedOnly is set, all rows
// otherwise. Without an approval requirement every registration is approved
// on insert, so all rows count toward capacity pre-emptively.
func countAttendees(ctx context.Context, idb bun.IDB, eventID string, approvedOnly bool) (int, error) {
	q := idb.NewSelect().
		Model((*models.Attendee)(nil)).
		Where("event_id = ?", eventID)
	if approvedOnly {
		q = q.Where("is_approved = ?", true)
	}
	return q.Count(ctx)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// lib/pq reports SQLSTATE 23505; the sqlite shim used in tests reports
	// "UNIQUE constraint failed".
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// Postgres reports SQLSTATE 40001 ("could not serialize access").
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "could not serialize")
}
