package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-events/internal/events/db"
	"ms-events/internal/logger"
	"ms-events/internal/models"
)

var (
	ErrEventNotFound = db.ErrEventNotFound
	ErrInvalidDates  = errors.New("end date must be after start date")
	ErrInvalidInput  = errors.New("invalid event input")
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event models.Event, location *models.Location) error
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetLocation(ctx context.Context, eventID string) (*models.Location, error)
	ListEvents(ctx context.Context, visibility string) ([]models.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	ListContacts(ctx context.Context, eventID string) ([]models.ContactPerson, error)
	AddContact(ctx context.Context, contact models.ContactPerson) error
	RemoveContact(ctx context.Context, eventID, contactID string) error
}

// Reconciler persists an event edit atomically with the attendee remediation
// the configuration change requires. Implemented by the registration engine's
// storage layer.
type Reconciler interface {
	ReconcileEventUpdate(ctx context.Context, updated models.Event) error
}

type Publisher interface {
	PublishEventUpdated(event models.Event) error
}

// SpotsInvalidator drops an event's cached spot count. Edits can change the
// approved count (approval-drop remediation) and the capacity, so the cache
// entry is stale after any successful reconcile.
type SpotsInvalidator interface {
	Invalidate(ctx context.Context, eventID string)
}

type Service struct {
	DB        DBLayer
	Registrar Reconciler
	Cache     SpotsInvalidator
	Kafka     Publisher
	Logger    *logger.Logger
}

func NewService(dbLayer DBLayer, registrar Reconciler, cache SpotsInvalidator, kafka Publisher, log *logger.Logger) *Service {
	return &Service{DB: dbLayer, Registrar: registrar, Cache: cache, Kafka: kafka, Logger: log}
}

// Create validates the request and persists the event with its implicit
// team. The creator becomes CREATOR.
func (s *Service) Create(ctx context.Context, creatorID string, req models.EventRequest) (*models.Event, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, ErrInvalidDates
	}
	if req.LocationType != models.LocationTypeVenue && req.LocationType != models.LocationTypeOnline {
		return nil, fmt.Errorf("%w: location type must be VENUE or ONLINE", ErrInvalidInput)
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	priceType := req.PriceType
	if priceType == "" {
		priceType = models.PriceTypeFree
	}

	event := models.Event{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Capacity:        req.Capacity,
		RequireApproval: req.RequireApproval,
		LocationType:    req.LocationType,
		Visibility:      visibility,
		PriceType:       priceType,
		Price:           req.Price,
		CreatedBy:       creatorID,
		CreatedAt:       time.Now(),
	}

	if err := s.DB.CreateEvent(ctx, event, req.Location); err != nil {
		return nil, err
	}

	s.Logger.Info("EVENTS", fmt.Sprintf("Event %s created by %s", event.ID, creatorID))
	return &event, nil
}

func (s *Service) Get(ctx context.Context, eventID string) (*models.Event, error) {
	return s.DB.GetEvent(ctx, eventID)
}

func (s *Service) GetLocation(ctx context.Context, eventID string) (*models.Location, error) {
	return s.DB.GetLocation(ctx, eventID)
}

func (s *Service) List(ctx context.Context, visibility string) ([]models.Event, error) {
	return s.DB.ListEvents(ctx, visibility)
}

// Edit applies an organizer's changes. When the edit flips the location type
// to VENUE or drops the approval requirement, existing attendees are
// remediated in the same transaction that updates the event row.
func (s *Service) Edit(ctx context.Context, eventID string, update models.EventUpdate) (*models.Event, error) {
	current, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if update.StartDate != nil {
		updated.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		updated.EndDate = *update.EndDate
	}
	if update.Capacity != nil {
		updated.Capacity = *update.Capacity
	}
	if update.RequireApproval != nil {
		updated.RequireApproval = *update.RequireApproval
	}
	if update.LocationType != nil {
		lt := *update.LocationType
		if lt != models.LocationTypeVenue && lt != models.LocationTypeOnline {
			return nil, fmt.Errorf("%w: location type must be VENUE or ONLINE", ErrInvalidInput)
		}
		updated.LocationType = lt
	}
	if update.Visibility != nil {
		updated.Visibility = *update.Visibility
	}
	if update.PriceType != nil {
		updated.PriceType = *update.PriceType
	}
	if update.Price != nil {
		updated.Price = *update.Price
	}

	if !updated.EndDate.After(updated.StartDate) {
		return nil, ErrInvalidDates
	}
	updated.UpdatedAt = time.Now()

	if err := s.Registrar.ReconcileEventUpdate(ctx, updated); err != nil {
		return nil, err
	}
	s.Cache.Invalidate(ctx, eventID)

	if err := s.Kafka.PublishEventUpdated(updated); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish event updated: %v", err))
	}
	return &updated, nil
}

// Delete removes the event and cascades to its attendees, team, contacts
// and location. Callers must hold CREATOR; the handler enforces that.
func (s *Service) Delete(ctx context.Context, eventID string) error {
	if err := s.DB.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, eventID)
	s.Logger.Info("EVENTS", fmt.Sprintf("Event %s deleted", eventID))
	return nil
}

// ---------------- CONTACT PERSONS ----------------

func (s *Service) ListContacts(ctx context.Context, eventID string) ([]models.ContactPerson, error) {
	return s.DB.ListContacts(ctx, eventID)
}

func (s *Service) AddContact(ctx context.Context, eventID, name, email, phone string) (*models.ContactPerson, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: contact name is required", ErrInvalidInput)
	}
	contact := models.ContactPerson{
		ID:      uuid.NewString(),
		EventID: eventID,
		Name:    name,
		Email:   email,
		Phone:   phone,
	}
	if err := s.DB.AddContact(ctx, contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *Service) RemoveContact(ctx context.Context, eventID, contactID string) error {
	return s.DB.RemoveContact(ctx, eventID, contactID)
}
