package registration_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/auth"
	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/registration"
	"ms-events/internal/team"
	"ms-events/internal/tickets"
	"ms-events/internal/utils"
)

// Authorizer gates organizer-only routes before any mutation happens.
type Authorizer interface {
	RequireOrganizer(ctx context.Context, eventID, userID string) error
}

type Handler struct {
	Service *registration.Service
	Team    Authorizer
	Logger  *logger.Logger
}

func NewHandler(service *registration.Service, team Authorizer, log *logger.Logger) *Handler {
	return &Handler{Service: service, Team: team, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/event/{eventId}", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/attendee", h.AddAttendee)
		r.Post("/approve-attendees", h.ApproveAttendees)
		r.Post("/remove-attendees", h.RemoveAttendees)
		r.Post("/check-in", h.CheckIn)
		r.Post("/uncheck-in", h.UncheckIn)
		r.Get("/attendees", h.ListAttendees)
		r.Get("/spots", h.Spots)
		r.Get("/attendee/{attendeeId}/qr", h.TicketQR)
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())
	h.Logger.LogRegistration("REGISTER", eventID, userID)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	attendee, err := h.Service.Register(r.Context(), eventID, userID, req.Name, req.Email)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, attendee)
}

func (h *Handler) AddAttendee(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" {
		utils.WriteError(w, http.StatusBadRequest, "Attendee email is required")
		return
	}

	attendee, err := h.Service.AddAttendee(r.Context(), eventID, req.Name, req.Email)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, attendee)
}

func (h *Handler) ApproveAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	var req models.ApproveAttendeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.AttendeeIDs) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "attendee_ids must not be empty")
		return
	}

	approved, err := h.Service.Approve(r.Context(), eventID, req.AttendeeIDs)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Approved %d attendees for event %s", len(approved), eventID))
	utils.WriteJSON(w, http.StatusOK, approved)
}

func (h *Handler) RemoveAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	var req models.RemoveAttendeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.AttendeeIDs) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "attendee_ids must not be empty")
		return
	}

	removed, err := h.Service.Remove(r.Context(), eventID, req.AttendeeIDs)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	var req models.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	attendee, err := h.Service.CheckIn(r.Context(), eventID, req)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	h.Logger.LogCheckIn(eventID, attendee.ID, "checked in")
	utils.WriteJSON(w, http.StatusOK, attendee)
}

func (h *Handler) UncheckIn(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	var req models.UncheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.TicketCode == "" {
		utils.WriteError(w, http.StatusBadRequest, "ticket_code is required")
		return
	}

	attendee, err := h.Service.UncheckIn(r.Context(), eventID, req.TicketCode)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	h.Logger.LogCheckIn(eventID, attendee.ID, "check-in reversed")
	utils.WriteJSON(w, http.StatusOK, attendee)
}

func (h *Handler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	attendees, err := h.Service.ListAttendees(r.Context(), eventID)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}
	if attendees == nil {
		attendees = []models.Attendee{}
	}

	utils.WriteJSON(w, http.StatusOK, attendees)
}

func (h *Handler) Spots(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	spots, err := h.Service.Spots(r.Context(), eventID)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, spots)
}

// TicketQR renders the attendee's admission code as a PNG. Only the attendee
// themselves or an organizer may fetch it.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	attendeeID := chi.URLParam(r, "attendeeId")
	userID := auth.UserID(r.Context())

	attendee, err := h.Service.GetAttendee(r.Context(), eventID, attendeeID)
	if err != nil {
		h.writeRegistrationError(w, err)
		return
	}

	if attendee.UserID != userID {
		if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
			h.writeRegistrationError(w, err)
			return
		}
	}

	if !attendee.HasTicket() {
		utils.WriteError(w, http.StatusNotFound, "Attendee has no ticket")
		return
	}

	png, err := tickets.GenerateQR(eventID, attendee.TicketCode)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Failed to render QR for attendee %s: %v", attendeeID, err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// writeRegistrationError maps the engine's business-rule outcomes to HTTP
// statuses: violations are expected results, not server failures.
func (h *Handler) writeRegistrationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registration.ErrAlreadyRegistered):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, registration.ErrEventFull):
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, registration.ErrEventNotFound),
		errors.Is(err, registration.ErrAttendeeNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, registration.ErrNotApproved),
		errors.Is(err, registration.ErrInvalidEventType):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, team.ErrUnauthorized):
		utils.WriteError(w, http.StatusForbidden, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("Unexpected error: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
