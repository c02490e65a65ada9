package team_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/auth"
	"ms-events/internal/logger"
	"ms-events/internal/models"
	"ms-events/internal/team"
	"ms-events/internal/utils"
)

type Handler struct {
	Service *team.Service
	Logger  *logger.Logger
}

func NewHandler(service *team.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/event/{eventId}/team", func(r chi.Router) {
		r.Get("/", h.ListMembers)
		r.Post("/", h.AddMember)
		r.Patch("/{userId}", h.UpdateRole)
		r.Delete("/{userId}", h.RemoveMember)
	})
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	callerID := auth.UserID(r.Context())

	if err := h.Service.RequireOrganizer(r.Context(), eventID, callerID); err != nil {
		h.writeTeamError(w, err)
		return
	}

	members, err := h.Service.ListMembers(r.Context(), eventID)
	if err != nil {
		h.writeTeamError(w, err)
		return
	}
	if members == nil {
		members = []models.TeamMember{}
	}

	utils.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	callerID := auth.UserID(r.Context())

	var req models.AddTeamMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		utils.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	member, err := h.Service.AddMember(r.Context(), eventID, callerID, req.UserID, req.Role)
	if err != nil {
		h.writeTeamError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("Team member %s added to event %s", req.UserID, eventID))
	utils.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := chi.URLParam(r, "userId")
	callerID := auth.UserID(r.Context())

	var req models.UpdateTeamMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.Service.UpdateRole(r.Context(), eventID, callerID, userID, req.Role); err != nil {
		h.writeTeamError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := chi.URLParam(r, "userId")
	callerID := auth.UserID(r.Context())

	if err := h.Service.RemoveMember(r.Context(), eventID, callerID, userID); err != nil {
		h.writeTeamError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeTeamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, team.ErrUnauthorized):
		utils.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, team.ErrMemberNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, team.ErrAlreadyMember),
		errors.Is(err, team.ErrCannotModifyCreator),
		errors.Is(err, team.ErrInvalidRole):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("Unexpected error: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
