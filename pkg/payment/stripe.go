// Package payment wraps the Stripe client behind a small interface so booking
// flows can refund payments without knowing the provider.
package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	stripeclient "github.com/stripe/stripe-go/v78/client"

	"ceramico/pkg/logger"
)

// Refunder issues a refund for a captured payment intent. The bookingID keys
// idempotency, so retrying a failed cancellation never double-refunds.
type Refunder interface {
	Refund(ctx context.Context, paymentIntentID, bookingID string) error
}

// StripeRefunder talks to the Stripe API.
type StripeRefunder struct {
	api *stripeclient.API
	log *logger.Logger
}

func NewStripeRefunder(apiKey string, log *logger.Logger) *StripeRefunder {
	api := &stripeclient.API{}
	api.Init(apiKey, nil)
	return &StripeRefunder{api: api, log: log}
}

func (s *StripeRefunder) Refund(ctx context.Context, paymentIntentID, bookingID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + bookingID)

	refund, err := s.api.Refunds.New(params)
	if err != nil {
		return fmt.Errorf("stripe refund for booking %s: %w", bookingID, err)
	}

	s.log.Info("Refund issued",
		"booking_id", bookingID,
		"payment_intent_id", paymentIntentID,
		"refund_id", refund.ID,
		"status", refund.Status)
	return nil
}
