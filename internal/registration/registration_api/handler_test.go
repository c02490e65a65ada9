package registration_api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"ms-events/internal/auth"
	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/registration"
	regdb "ms-events/internal/registration/db"
	"ms-events/internal/registration/registration_api"
	"ms-events/internal/team"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

// noopCache satisfies the spots cache without a Redis instance.
type noopCache struct{}

func (noopCache) GetSpotsUsed(ctx context.Context, eventID string) (int, bool) { return 0, false }
func (noopCache) SetSpotsUsed(ctx context.Context, eventID string, used int) {}
func (noopCache) Invalidate(ctx context.Context, eventID string) {}

// noopPublisher satisfies the Kafka surface without a broker.
type noopPublisher struct{}

func (noopPublisher) PublishAttendeeRegistered(attendee models.Attendee) error { return nil }
func (noopPublisher) PublishAttendeeApproved(attendee models.Attendee) error { return nil }
func (noopPublisher) PublishAttendeeCheckedIn(attendee models.Attendee) error { return nil }
func (noopPublisher) PublishAttendeesRemoved(eventID string, attendeeIDs []string) error {
	return nil
}

// stubAuthorizer grants organizer rights to a fixed set of users.
type stubAuthorizer struct {
	organizers map[string]bool
}

func (s *stubAuthorizer) RequireOrganizer(ctx context.Context, eventID, userID string) error {
	if s.organizers[userID] {
		return nil
	}
	return team.ErrUnauthorized
}

type testEnv struct {
	router    *chi.Mux
	bunDB     *bun.DB
	regDB     *regdb.DB
	organizer string
}

func setupHandler(t *testing.T) *testEnv {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// A single connection keeps every query on the same in-memory database
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Event)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create events table: %v", err)
	}
	_, err = bunDB.NewCreateTable().Model((*models.Attendee)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create attendees table: %v", err)
	}

	storage := &regdb.DB{Bun: bunDB}
	svc := registration.NewService(storage, noopCache{}, noopPublisher{}, logger.NewLogger())
	authorizer := &stubAuthorizer{organizers: map[string]bool{"organizer1": true}}
	handler := registration_api.NewHandler(svc, authorizer, logger.NewLogger())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return &testEnv{router: router, bunDB: bunDB, regDB: storage, organizer: "organizer1"}
}

func (env *testEnv) insertEvent(t *testing.T, event models.Event) models.Event {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Name == "" {
		event.Name = "Test Event"
	}
	if event.LocationType == "" {
		event.LocationType = models.LocationTypeVenue
	}
	if event.Visibility == "" {
		event.Visibility = models.VisibilityPublic
	}
	if event.PriceType == "" {
		event.PriceType = models.PriceTypeFree
	}
	if event.StartDate.IsZero() {
		event.StartDate = time.Now().Add(24 * time.Hour)
		event.EndDate = event.StartDate.Add(2 * time.Hour)
	}
	if event.CreatedBy == "" {
		event.CreatedBy = env.organizer
	}
	event.CreatedAt = time.Now()

	_, err := env.bunDB.NewInsert().Model(&event).Exec(context.Background())
	assert.NoError(t, err)
	return event
}

// do issues a request with the given user injected the way the auth
// middleware would.
func (env *testEnv) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{})

	rec := env.do("POST", fmt.Sprintf("/event/%s/register", event.ID), "user1",
		models.RegisterRequest{Name: "Alice", Email: "alice@example.com"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	var attendee models.Attendee
	err := json.Unmarshal(rec.Body.Bytes(), &attendee)
	assert.NoError(t, err)
	assert.Equal(t, "user1", attendee.UserID)
	assert.True(t, attendee.IsApproved)

	// A second registration by the same user conflicts
	rec = env.do("POST", fmt.Sprintf("/event/%s/register", event.ID), "user1",
		models.RegisterRequest{Name: "Alice", Email: "alice@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpointEventNotFound(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	rec := env.do("POST", "/event/missing/register", "user1",
		models.RegisterRequest{Name: "Alice", Email: "alice@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterEndpointFullEvent(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{Capacity: 1})

	rec := env.do("POST", fmt.Sprintf("/event/%s/register", event.ID), "user1",
		models.RegisterRequest{Name: "Alice", Email: "alice@example.com"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do("POST", fmt.Sprintf("/event/%s/register", event.ID), "user2",
		models.RegisterRequest{Name: "Bob", Email: "bob@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApproveEndpointRequiresOrganizer(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{RequireApproval: true})

	rec := env.do("POST", fmt.Sprintf("/event/%s/approve-attendees", event.ID), "random-user",
		models.ApproveAttendeesRequest{AttendeeIDs: []string{"a1"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApproveEndpoint(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{RequireApproval: true})

	attendee, err := env.regDB.RegisterAttendee(context.Background(), event.ID, "user1", "Alice", "alice@example.com")
	assert.NoError(t, err)

	rec := env.do("POST", fmt.Sprintf("/event/%s/approve-attendees", event.ID), env.organizer,
		models.ApproveAttendeesRequest{AttendeeIDs: []string{attendee.ID}})
	assert.Equal(t, http.StatusOK, rec.Code)

	var approved []models.Attendee
	err = json.Unmarshal(rec.Body.Bytes(), &approved)
	assert.NoError(t, err)
	assert.Len(t, approved, 1)
	assert.True(t, approved[0].IsApproved)
	assert.NotEmpty(t, approved[0].TicketCode)
}

func TestCheckInEndpoint(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{LocationType: models.LocationTypeVenue})

	attendee, err := env.regDB.RegisterAttendee(context.Background(), event.ID, "user1", "Alice", "alice@example.com")
	assert.NoError(t, err)

	rec := env.do("POST", fmt.Sprintf("/event/%s/check-in", event.ID), env.organizer,
		models.CheckInRequest{TicketCode: attendee.TicketCode})
	assert.Equal(t, http.StatusOK, rec.Code)

	var checked models.Attendee
	err = json.Unmarshal(rec.Body.Bytes(), &checked)
	assert.NoError(t, err)
	assert.NotEqual(t, models.NotCheckedIn, checked.CheckInDate)

	// The written timestamp parses as RFC3339
	_, err = time.Parse(time.RFC3339, checked.CheckInDate)
	assert.NoError(t, err)
}

func TestCheckInEndpointOnlineEvent(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{LocationType: models.LocationTypeOnline})

	_, err := env.regDB.RegisterAttendee(context.Background(), event.ID, "user1", "Alice", "alice@example.com")
	assert.NoError(t, err)

	rec := env.do("POST", fmt.Sprintf("/event/%s/check-in", event.ID), env.organizer,
		models.CheckInRequest{Email: "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInEndpointPendingAttendee(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{
		LocationType:    models.LocationTypeVenue,
		RequireApproval: true,
	})

	_, err := env.regDB.RegisterAttendee(context.Background(), event.ID, "user1", "Alice", "alice@example.com")
	assert.NoError(t, err)

	rec := env.do("POST", fmt.Sprintf("/event/%s/check-in", event.ID), env.organizer,
		models.CheckInRequest{Email: "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUncheckInEndpoint(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{LocationType: models.LocationTypeVenue})

	attendee, err := env.regDB.RegisterAttendee(context.Background(), event.ID, "user1", "Alice", "alice@example.com")
	assert.NoError(t, err)

	rec := env.do("POST", fmt.Sprintf("/event/%s/check-in", event.ID), env.organizer,
		models.CheckInRequest{TicketCode: attendee.TicketCode})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do("POST", fmt.Sprintf("/event/%s/uncheck-in", event.ID), env.organizer,
		models.UncheckInRequest{TicketCode: attendee.TicketCode})
	assert.Equal(t, http.StatusOK, rec.Code)

	var reverted models.Attendee
	err = json.Unmarshal(rec.Body.Bytes(), &reverted)
	assert.NoError(t, err)
	assert.Equal(t, models.NotCheckedIn, reverted.CheckInDate)
}

func TestSpotsEndpoint(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{Capacity: 10})

	_, err := env.regDB.RegisterAttendee(context.Background(), event.ID, "user1", "Alice", "alice@example.com")
	assert.NoError(t, err)

	rec := env.do("GET", fmt.Sprintf("/event/%s/spots", event.ID), "anyone", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var spots models.SpotsResponse
	err = json.Unmarshal(rec.Body.Bytes(), &spots)
	assert.NoError(t, err)
	assert.Equal(t, 10, spots.Capacity)
	assert.Equal(t, 1, spots.SpotsUsed)
	assert.Equal(t, 9, spots.SpotsLeft)
}

func TestTicketQREndpoint(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{LocationType: models.LocationTypeVenue})

	attendee, err := env.regDB.RegisterAttendee(context.Background(), event.ID, "user1", "Alice", "alice@example.com")
	assert.NoError(t, err)

	// The attendee may fetch their own QR
	rec := env.do("GET", fmt.Sprintf("/event/%s/attendee/%s/qr", event.ID, attendee.ID), "user1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	// A stranger may not
	rec = env.do("GET", fmt.Sprintf("/event/%s/attendee/%s/qr", event.ID, attendee.ID), "stranger", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// An organizer may
	rec = env.do("GET", fmt.Sprintf("/event/%s/attendee/%s/qr", event.ID, attendee.ID), env.organizer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListAttendeesEndpoint(t *testing.T) {
	env := setupHandler(t)
	defer env.bunDB.Close()

	event := env.insertEvent(t, models.Event{})

	rec := env.do("GET", fmt.Sprintf("/event/%s/attendees", event.ID), env.organizer, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var attendees []models.Attendee
	err := json.Unmarshal(rec.Body.Bytes(), &attendees)
	assert.NoError(t, err)
	assert.Len(t, attendees, 0)
}
