package events_test

import (
	"context"
	"ms-events/internal/events"
	"ms-events/internal/logger"
	"ms-events/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateEvent(ctx context.Context, event models.Event, location *models.Location) error {
	args := m.Called(ctx, event, location)
	return args.Error(0)
}

func (m *MockDBLayer) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetLocation(ctx context.Context, eventID string) (*models.Location, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockDBLayer) ListEvents(ctx context.Context, visibility string) ([]models.Event, error) {
	args := m.Called(ctx, visibility)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockDBLayer) DeleteEvent(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockDBLayer) ListContacts(ctx context.Context, eventID string) ([]models.ContactPerson, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContactPerson), args.Error(1)
}

func (m *MockDBLayer) AddContact(ctx context.Context, contact models.ContactPerson) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockDBLayer) RemoveContact(ctx context.Context, eventID, contactID string) error {
	args := m.Called(ctx, eventID, contactID)
	return args.Error(0)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileEventUpdate(ctx context.Context, updated models.Event) error {
	args := m.Called(ctx, updated)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEventUpdated(event models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

type MockSpotsInvalidator struct {
	mock.Mock
}

func (m *MockSpotsInvalidator) Invalidate(ctx context.Context, eventID string) {
	m.Called(ctx, eventID)
}

func setupService() (*events.Service, *MockDBLayer, *MockReconciler, *MockSpotsInvalidator, *MockPublisher) {
	mockDB := new(MockDBLayer)
	mockReconciler := new(MockReconciler)
	mockCache := new(MockSpotsInvalidator)
	mockKafka := new(MockPublisher)
	svc := events.NewService(mockDB, mockReconciler, mockCache, mockKafka, logger.NewLogger())
	return svc, mockDB, mockReconciler, mockCache, mockKafka
}

func validRequest() models.EventRequest {
	start := time.Now().Add(24 * time.Hour)
	return models.EventRequest{
		Name:         "Launch Party",
		StartDate:    start,
		EndDate:      start.Add(3 * time.Hour),
		LocationType: models.LocationTypeVenue,
	}
}

func TestCreateEvent(t *testing.T) {
	svc, mockDB, _, _, _ := setupService()

	mockDB.On("CreateEvent", mock.Anything, mock.AnythingOfType("models.Event"), (*models.Location)(nil)).Return(nil)

	event, err := svc.Create(context.Background(), "creator1", validRequest())
	assert.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "creator1", event.CreatedBy)

	// Unset fields fall back to defaults
	assert.Equal(t, models.VisibilityPublic, event.Visibility)
	assert.Equal(t, models.PriceTypeFree, event.PriceType)
}

func TestCreateEventMissingName(t *testing.T) {
	svc, _, _, _, _ := setupService()

	req := validRequest()
	req.Name = ""

	_, err := svc.Create(context.Background(), "creator1", req)
	assert.ErrorIs(t, err, events.ErrInvalidInput)
}

func TestCreateEventInvalidDates(t *testing.T) {
	svc, _, _, _, _ := setupService()

	req := validRequest()
	req.EndDate = req.StartDate

	_, err := svc.Create(context.Background(), "creator1", req)
	assert.ErrorIs(t, err, events.ErrInvalidDates)
}

func TestCreateEventInvalidLocationType(t *testing.T) {
	svc, _, _, _, _ := setupService()

	req := validRequest()
	req.LocationType = "HYBRID"

	_, err := svc.Create(context.Background(), "creator1", req)
	assert.ErrorIs(t, err, events.ErrInvalidInput)
}

func TestEditMergesPartialUpdate(t *testing.T) {
	svc, mockDB, mockReconciler, mockCache, mockKafka := setupService()

	current := &models.Event{
		ID:           "event1",
		Name:         "Old Name",
		StartDate:    time.Now().Add(24 * time.Hour),
		EndDate:      time.Now().Add(27 * time.Hour),
		Capacity:     50,
		LocationType: models.LocationTypeOnline,
		Visibility:   models.VisibilityPublic,
		PriceType:    models.PriceTypeFree,
	}

	mockDB.On("GetEvent", mock.Anything, "event1").Return(current, nil)
	mockReconciler.On("ReconcileEventUpdate", mock.Anything, mock.AnythingOfType("models.Event")).Return(nil)
	mockCache.On("Invalidate", mock.Anything, "event1").Return()
	mockKafka.On("PublishEventUpdated", mock.AnythingOfType("models.Event")).Return(nil)

	newName := "New Name"
	updated, err := svc.Edit(context.Background(), "event1", models.EventUpdate{Name: &newName})
	assert.NoError(t, err)

	// Only the sent field changed
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, 50, updated.Capacity)
	assert.Equal(t, models.LocationTypeOnline, updated.LocationType)
	assert.False(t, updated.UpdatedAt.IsZero())
	mockReconciler.AssertExpectations(t)
}

func TestEditLocationFlipGoesThroughReconciler(t *testing.T) {
	svc, mockDB, mockReconciler, mockCache, mockKafka := setupService()

	current := &models.Event{
		ID:           "event1",
		Name:         "Meetup",
		StartDate:    time.Now().Add(24 * time.Hour),
		EndDate:      time.Now().Add(27 * time.Hour),
		LocationType: models.LocationTypeOnline,
	}

	mockDB.On("GetEvent", mock.Anything, "event1").Return(current, nil)
	mockReconciler.On("ReconcileEventUpdate", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.LocationType == models.LocationTypeVenue
	})).Return(nil)
	mockCache.On("Invalidate", mock.Anything, "event1").Return()
	mockKafka.On("PublishEventUpdated", mock.AnythingOfType("models.Event")).Return(nil)

	venue := models.LocationTypeVenue
	updated, err := svc.Edit(context.Background(), "event1", models.EventUpdate{LocationType: &venue})
	assert.NoError(t, err)
	assert.Equal(t, models.LocationTypeVenue, updated.LocationType)
	mockReconciler.AssertExpectations(t)
}

func TestEditDropApprovalInvalidatesSpotsCache(t *testing.T) {
	svc, mockDB, mockReconciler, mockCache, mockKafka := setupService()

	// Dropping the approval requirement approves pending attendees inside the
	// reconcile, so a cached spot count taken before the edit is stale. The
	// edit must drop the cache entry so the next read recounts.
	current := &models.Event{
		ID:              "event1",
		Name:            "Meetup",
		StartDate:       time.Now().Add(24 * time.Hour),
		EndDate:         time.Now().Add(27 * time.Hour),
		Capacity:        10,
		RequireApproval: true,
		LocationType:    models.LocationTypeVenue,
	}

	mockDB.On("GetEvent", mock.Anything, "event1").Return(current, nil)
	mockReconciler.On("ReconcileEventUpdate", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return !e.RequireApproval
	})).Return(nil)
	mockCache.On("Invalidate", mock.Anything, "event1").Return()
	mockKafka.On("PublishEventUpdated", mock.AnythingOfType("models.Event")).Return(nil)

	noApproval := false
	_, err := svc.Edit(context.Background(), "event1", models.EventUpdate{RequireApproval: &noApproval})
	assert.NoError(t, err)
	mockCache.AssertCalled(t, "Invalidate", mock.Anything, "event1")
}

func TestEditFailedReconcileKeepsCache(t *testing.T) {
	svc, mockDB, mockReconciler, mockCache, _ := setupService()

	current := &models.Event{
		ID:        "event1",
		Name:      "Meetup",
		StartDate: time.Now().Add(24 * time.Hour),
		EndDate:   time.Now().Add(27 * time.Hour),
	}
	mockDB.On("GetEvent", mock.Anything, "event1").Return(current, nil)
	mockReconciler.On("ReconcileEventUpdate", mock.Anything, mock.AnythingOfType("models.Event")).
		Return(assert.AnError)

	name := "New Name"
	_, err := svc.Edit(context.Background(), "event1", models.EventUpdate{Name: &name})
	assert.Error(t, err)
	mockCache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestDeleteInvalidatesSpotsCache(t *testing.T) {
	svc, mockDB, _, mockCache, _ := setupService()

	mockDB.On("DeleteEvent", mock.Anything, "event1").Return(nil)
	mockCache.On("Invalidate", mock.Anything, "event1").Return()

	err := svc.Delete(context.Background(), "event1")
	assert.NoError(t, err)
	mockCache.AssertCalled(t, "Invalidate", mock.Anything, "event1")
}

func TestEditRejectsInvalidDates(t *testing.T) {
	svc, mockDB, mockReconciler, _, _ := setupService()

	current := &models.Event{
		ID:        "event1",
		Name:      "Meetup",
		StartDate: time.Now().Add(24 * time.Hour),
		EndDate:   time.Now().Add(27 * time.Hour),
	}
	mockDB.On("GetEvent", mock.Anything, "event1").Return(current, nil)

	badEnd := current.StartDate.Add(-time.Hour)
	_, err := svc.Edit(context.Background(), "event1", models.EventUpdate{EndDate: &badEnd})
	assert.ErrorIs(t, err, events.ErrInvalidDates)
	mockReconciler.AssertNotCalled(t, "ReconcileEventUpdate", mock.Anything, mock.Anything)
}

func TestEditEventNotFound(t *testing.T) {
	svc, mockDB, _, _, _ := setupService()

	mockDB.On("GetEvent", mock.Anything, "missing").Return(nil, events.ErrEventNotFound)

	name := "anything"
	_, err := svc.Edit(context.Background(), "missing", models.EventUpdate{Name: &name})
	assert.ErrorIs(t, err, events.ErrEventNotFound)
}

func TestAddContact(t *testing.T) {
	svc, mockDB, _, _, _ := setupService()

	mockDB.On("AddContact", mock.Anything, mock.AnythingOfType("models.ContactPerson")).Return(nil)

	contact, err := svc.AddContact(context.Background(), "event1", "Support", "help@example.com", "+123456")
	assert.NoError(t, err)
	assert.NotEmpty(t, contact.ID)
	assert.Equal(t, "event1", contact.EventID)

	_, err = svc.AddContact(context.Background(), "event1", "", "help@example.com", "")
	assert.ErrorIs(t, err, events.ErrInvalidInput)
}
