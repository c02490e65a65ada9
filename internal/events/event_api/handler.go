package event_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/auth"
	"ms-events/internal/events"
	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/team"
	"ms-events/internal/utils"
)

type Authorizer interface {
	RequireOrganizer(ctx context.Context, eventID, userID string) error
	RequireCreator(ctx context.Context, eventID, userID string) error
}

type Handler struct {
	Service *events.Service
	Team    Authorizer
	Logger  *logger.Logger
}

func NewHandler(service *events.Service, teamSvc Authorizer, log *logger.Logger) *Handler {
	return &Handler{Service: service, Team: teamSvc, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/event", h.CreateEvent)
	r.Get("/events", h.ListEvents)
	r.Route("/event/{eventId}", func(r chi.Router) {
		r.Get("/", h.GetEvent)
		r.Patch("/edit", h.EditEvent)
		r.Delete("/", h.DeleteEvent)
		r.Get("/contacts", h.ListContacts)
		r.Post("/contacts", h.AddContact)
		r.Delete("/contacts/{contactId}", h.RemoveContact)
	})
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	event, err := h.Service.Create(r.Context(), userID, req)
	if err != nil {
		h.writeEventError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateEvent: event %s created", event.ID))
	utils.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	event, err := h.Service.Get(r.Context(), eventID)
	if err != nil {
		h.writeEventError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	visibility := r.URL.Query().Get("visibility")

	list, err := h.Service.List(r.Context(), visibility)
	if err != nil {
		h.writeEventError(w, err)
		return
	}
	if list == nil {
		list = []models.Event{}
	}

	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeEventError(w, err)
		return
	}

	var update models.EventUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	event, err := h.Service.Edit(r.Context(), eventID, update)
	if err != nil {
		h.writeEventError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("EditEvent: event %s updated", eventID))
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	// Deletion is reserved for the creator, not mere admins.
	if err := h.Team.RequireCreator(r.Context(), eventID, userID); err != nil {
		h.writeEventError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), eventID); err != nil {
		h.writeEventError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	contacts, err := h.Service.ListContacts(r.Context(), eventID)
	if err != nil {
		h.writeEventError(w, err)
		return
	}
	if contacts == nil {
		contacts = []models.ContactPerson{}
	}

	utils.WriteJSON(w, http.StatusOK, contacts)
}

func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeEventError(w, err)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	contact, err := h.Service.AddContact(r.Context(), eventID, req.Name, req.Email, req.Phone)
	if err != nil {
		h.writeEventError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, contact)
}

func (h *Handler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	contactID := chi.URLParam(r, "contactId")
	userID := auth.UserID(r.Context())

	if err := h.Team.RequireOrganizer(r.Context(), eventID, userID); err != nil {
		h.writeEventError(w, err)
		return
	}

	if err := h.Service.RemoveContact(r.Context(), eventID, contactID); err != nil {
		h.writeEventError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, events.ErrEventNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, events.ErrInvalidDates), errors.Is(err, events.ErrInvalidInput):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, team.ErrUnauthorized):
		utils.WriteError(w, http.StatusForbidden, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("Unexpected error: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
