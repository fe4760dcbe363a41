// Package payments charges riders through Stripe.
package payments

import (
	"context"
	"math"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripePSP opens a PaymentIntent per paid request. The rider's client
// confirms it with the returned reference.
type StripePSP struct {
	currency string
	create   func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	cancel   func(string, *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// NewStripePSP configures the Stripe client with apiKey.
func NewStripePSP(apiKey, currency string) *StripePSP {
	stripe.Key = apiKey
	return &StripePSP{currency: strings.ToLower(currency), create: paymentintent.New, cancel: paymentintent.Cancel}
}

// Charge creates a PaymentIntent for amount in major units,
// tagged with the ride request reference. It returns the PaymentIntent ID.
func (s *StripePSP) Charge(ctx context.Context, amount float64, reference string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(s.currency),
	}
	params.Context = ctx
	params.SetIdempotencyKey("carpool-payment-" + reference)
	params.AddMetadata("ride_request_id", reference)

	pi, err := s.create(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// Void cancels the PaymentIntent so the rider cannot confirm a charge the
// service never recorded.
func (s *StripePSP) Void(ctx context.Context, providerRef string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx
	_, err := s.cancel(providerRef, params)
	return err
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
