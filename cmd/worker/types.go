package main

// WorkerMessage is a provider payment confirmation delivered through SQS.
// Type is events.TypePaymentConfirmed or events.TypePaymentFailed.
type WorkerMessage struct {
	Type              string `json:"type"`
	PaymentID         int64  `json:"payment_id"`
	ProviderOrderID   string `json:"provider_order_id,omitempty"`
	ProviderPaymentID string `json:"provider_payment_id,omitempty"`
	Signature         string `json:"signature,omitempty"`
	CorrelationID     string `json:"correlation_id,omitempty"`
}

// Outcomes recorded against a delivery in the idempotency table.
const (
	outcomeSettled        = "settled"
	outcomeUnchanged      = "unchanged"
	outcomeRejected       = "rejected"
	outcomeUnknownPayment = "unknown_payment"
	outcomeIgnored        = "ignored"
)
