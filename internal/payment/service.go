package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"ms-events/internal/logger"
	"ms-events/internal/models"
)

var ErrFreeEvent = errors.New("event does not require payment")

type EventGetter interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
}

type Service struct {
	Events   EventGetter
	Currency string
	Logger   *logger.Logger
}

func NewService(events EventGetter, secretKey, currency string, log *logger.Logger) *Service {
	stripe.Key = secretKey
	return &Service{Events: events, Currency: currency, Logger: log}
}

// CreatePaymentIntent builds a Stripe payment intent for a paid event. The
// amount comes from the event row, never from the client.
func (s *Service) CreatePaymentIntent(ctx context.Context, eventID, userID string) (*stripe.PaymentIntent, error) {
	event, err := s.Events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.PriceType != models.PriceTypePaid || event.Price <= 0 {
		return nil, ErrFreeEvent
	}

	amountInCents := int64(event.Price * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(s.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("event_id", eventID)
	params.AddMetadata("user_id", userID)

	intent, err := paymentintent.New(params)
	if err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("Failed to create payment intent for event %s: %v", eventID, err))
		return nil, err
	}

	s.Logger.Info("PAYMENT", fmt.Sprintf("Created payment intent %s for event %s", intent.ID, eventID))
	return intent, nil
}
