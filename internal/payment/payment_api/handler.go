package payment_api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-events/internal/auth"
	"ms-events/internal/events"
	"ms-events/internal/logger"
	"ms-events/internal/payment"
	"ms-events/internal/utils"
)

type Handler struct {
	Service *payment.Service
	Logger  *logger.Logger
}

func NewHandler(service *payment.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/event/{eventId}/payment-intent", h.CreatePaymentIntent)
}

func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	userID := auth.UserID(r.Context())

	intent, err := h.Service.CreatePaymentIntent(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrFreeEvent):
			utils.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, events.ErrEventNotFound):
			utils.WriteError(w, http.StatusNotFound, err.Error())
		default:
			h.Logger.Error("PAYMENT", fmt.Sprintf("Failed to create payment intent: %v", err))
			utils.WriteError(w, http.StatusInternalServerError, "Failed to create payment intent")
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]string{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
	})
}
