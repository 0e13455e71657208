package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
)

// Outcome is what a provider notification asks the reconciler to do.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "ignored"
	}
}

// PaymentIDKey is the PaymentIntent metadata key carrying our payment id.
const PaymentIDKey = "payment_id"

var ErrWebhookDisabled = errors.New("stripe webhook secret not configured")

// Notification is a verified provider event reduced to our payment id.
type Notification struct {
	EventID   string
	EventType string
	Outcome   Outcome
	PaymentID int64
}

type StripeWebhook struct {
	secret string
}

func NewStripeWebhook(secret string) *StripeWebhook {
	return &StripeWebhook{secret: secret}
}

func (w *StripeWebhook) Enabled() bool {
	return w != nil && w.secret != ""
}

// Parse verifies the Stripe-Signature header and extracts the payment id.
// Events other than payment_intent.succeeded and payment_intent.payment_failed
// come back with OutcomeIgnored.
func (w *StripeWebhook) Parse(payload []byte, sigHeader string) (*Notification, error) {
	if !w.Enabled() {
		return nil, ErrWebhookDisabled
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, w.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	n := &Notification{EventID: event.ID, EventType: string(event.Type)}
	switch n.EventType {
	case "payment_intent.succeeded":
		n.Outcome = OutcomeSucceeded
	case "payment_intent.payment_failed":
		n.Outcome = OutcomeFailed
	default:
		return n, nil
	}

	if event.Data == nil {
		return nil, errors.New("stripe event has no data")
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("unmarshal payment intent: %w", err)
	}
	raw, ok := pi.Metadata[PaymentIDKey]
	if !ok {
		return nil, fmt.Errorf("payment intent %s has no %s metadata", pi.ID, PaymentIDKey)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("payment intent %s: bad %s %q", pi.ID, PaymentIDKey, raw)
	}
	n.PaymentID = id
	return n, nil
}
