package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/registration/db"
)

// Re-exported storage outcomes so callers depend on this package only.
var (
	ErrEventNotFound     = db.ErrEventNotFound
	ErrAttendeeNotFound  = db.ErrAttendeeNotFound
	ErrAlreadyRegistered = db.ErrAlreadyRegistered
	ErrEventFull         = db.ErrEventFull
	ErrNotApproved       = db.ErrNotApproved
	ErrInvalidEventType  = db.ErrInvalidEventType
)

type DBLayer interface {
	RegisterAttendee(ctx context.Context, eventID, userID, name, email string) (*models.Attendee, error)
	ApproveAttendees(ctx context.Context, eventID string, attendeeIDs []string) ([]models.Attendee, error)
	RemoveAttendees(ctx context.Context, eventID string, attendeeIDs []string) (int64, error)
	FindForCheckIn(ctx context.Context, eventID string, req models.CheckInRequest) (*models.Attendee, error)
	SetCheckInDate(ctx context.Context, attendeeID, value string) error
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetAttendeeByID(ctx context.Context, eventID, attendeeID string) (*models.Attendee, error)
	ListAttendees(ctx context.Context, eventID string) ([]models.Attendee, error)
	CountApproved(ctx context.Context, eventID string) (int, error)
}

// SpotsCache serves spots-left reads for the public event page. Registration
// correctness never depends on it; the database transaction is the only
// concurrency guarantee.
type SpotsCache interface {
	GetSpotsUsed(ctx context.Context, eventID string) (int, bool)
	SetSpotsUsed(ctx context.Context, eventID string, used int)
	Invalidate(ctx context.Context, eventID string)
}

type Publisher interface {
	PublishAttendeeRegistered(attendee models.Attendee) error
	PublishAttendeeApproved(attendee models.Attendee) error
	PublishAttendeeCheckedIn(attendee models.Attendee) error
	PublishAttendeesRemoved(eventID string, attendeeIDs []string) error
}

type Service struct {
	DB     DBLayer
	Cache  SpotsCache
	Kafka  Publisher
	Logger *logger.Logger
}

func NewService(dbLayer DBLayer, cache SpotsCache, kafka Publisher, log *logger.Logger) *Service {
	return &Service{DB: dbLayer, Cache: cache, Kafka: kafka, Logger: log}
}

// Register creates an attendee row for an authenticated user. The capacity
// and approval rules run inside one storage transaction; exactly one of
// success, ErrAlreadyRegistered, ErrEventFull or ErrEventNotFound occurs.
func (s *Service) Register(ctx context.Context, eventID, userID, name, email string) (*models.Attendee, error) {
	attendee, err := s.DB.RegisterAttendee(ctx, eventID, userID, name, email)
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, eventID)

	if err := s.Kafka.PublishAttendeeRegistered(*attendee); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish attendee registered event: %v", err))
	}
	return attendee, nil
}

// AddAttendee registers a walk-in on behalf of an organizer. The walk-in has
// no account with the identity provider, so a synthetic user ID keeps the
// one-row-per-(event, user) invariant intact.
func (s *Service) AddAttendee(ctx context.Context, eventID, name, email string) (*models.Attendee, error) {
	return s.Register(ctx, eventID, uuid.NewString(), name, email)
}

// Approve transitions the given attendees to approved as one batch; either
// all of them transition or none do. Re-approving an already-approved
// attendee is a no-op and never rotates an existing ticket.
func (s *Service) Approve(ctx context.Context, eventID string, attendeeIDs []string) ([]models.Attendee, error) {
	if len(attendeeIDs) == 0 {
		return nil, fmt.Errorf("no attendees to approve")
	}

	approved, err := s.DB.ApproveAttendees(ctx, eventID, attendeeIDs)
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, eventID)

	for _, attendee := range approved {
		if err := s.Kafka.PublishAttendeeApproved(attendee); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish attendee approved event: %v", err))
		}
	}
	return approved, nil
}

// Remove deletes registrations outright. Removal is the only negative
// outcome an organizer has; there is no REJECTED state.
func (s *Service) Remove(ctx context.Context, eventID string, attendeeIDs []string) (int64, error) {
	if len(attendeeIDs) == 0 {
		return 0, fmt.Errorf("no attendees to remove")
	}

	removed, err := s.DB.RemoveAttendees(ctx, eventID, attendeeIDs)
	if err != nil {
		return 0, err
	}

	s.Cache.Invalidate(ctx, eventID)

	if err := s.Kafka.PublishAttendeesRemoved(eventID, attendeeIDs); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish attendees removed event: %v", err))
	}
	return removed, nil
}

// CheckIn marks an approved attendee of a venue event as present. A repeat
// check-in overwrites the timestamp: the last scan wins.
func (s *Service) CheckIn(ctx context.Context, eventID string, req models.CheckInRequest) (*models.Attendee, error) {
	event, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.LocationType != models.LocationTypeVenue {
		return nil, ErrInvalidEventType
	}

	attendee, err := s.DB.FindForCheckIn(ctx, eventID, req)
	if err != nil {
		return nil, err
	}
	if !attendee.IsApproved {
		return nil, ErrNotApproved
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := s.DB.SetCheckInDate(ctx, attendee.ID, now); err != nil {
		return nil, err
	}
	attendee.CheckInDate = now

	if err := s.Kafka.PublishAttendeeCheckedIn(*attendee); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish attendee checked-in event: %v", err))
	}
	return attendee, nil
}

// UncheckIn reverses a check-in by ticket code. No approval check applies to
// the reversal.
func (s *Service) UncheckIn(ctx context.Context, eventID, ticketCode string) (*models.Attendee, error) {
	attendee, err := s.DB.FindForCheckIn(ctx, eventID, models.CheckInRequest{TicketCode: ticketCode})
	if err != nil {
		return nil, err
	}

	if err := s.DB.SetCheckInDate(ctx, attendee.ID, models.NotCheckedIn); err != nil {
		return nil, err
	}
	attendee.CheckInDate = models.NotCheckedIn
	return attendee, nil
}

func (s *Service) ListAttendees(ctx context.Context, eventID string) ([]models.Attendee, error) {
	return s.DB.ListAttendees(ctx, eventID)
}

func (s *Service) GetAttendee(ctx context.Context, eventID, attendeeID string) (*models.Attendee, error) {
	return s.DB.GetAttendeeByID(ctx, eventID, attendeeID)
}

// Spots reports capacity accounting for an event: spots used is the count of
// approved attendees. Reads go through the short-lived cache.
func (s *Service) Spots(ctx context.Context, eventID string) (*models.SpotsResponse, error) {
	event, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	used, ok := s.Cache.GetSpotsUsed(ctx, eventID)
	if !ok {
		used, err = s.DB.CountApproved(ctx, eventID)
		if err != nil {
			return nil, err
		}
		s.Cache.SetSpotsUsed(ctx, eventID, used)
	}

	resp := &models.SpotsResponse{
		Capacity:  event.Capacity,
		SpotsUsed: used,
		Unlimited: !event.HasCapacity(),
	}
	if event.HasCapacity() {
		resp.SpotsLeft = event.Capacity - used
		if resp.SpotsLeft < 0 {
			resp.SpotsLeft = 0
		}
	}
	return resp, nil
}
