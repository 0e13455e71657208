package events

import (
	"context"
	"time"
)

// Event types published after a core operation commits.
const (
	TypeOrderPlaced      = "order.placed"
	TypePaymentInitiated = "payment.initiated"
	TypePaymentVerified  = "payment.verified"
	TypePaymentFailed    = "payment.failed"
	TypePaymentConfirmed = "payment.confirmed" // inbound, from the provider relay
)

// Event is the envelope sent to the events queue.
type Event struct {
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"-"`
	Payload    interface{}       `json:"payload"`
}

// Publisher delivers events. Delivery is best effort: callers log failures
// and never roll back a committed transaction because of them.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Metrics records business counters.
type Metrics interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// NopMetrics discards every data point.
type NopMetrics struct{}

func (NopMetrics) RecordCount(context.Context, string, map[string]string) error { return nil }

// Metric names
const (
	MetricOrdersPlaced      = "OrdersPlaced"
	MetricCheckoutRejected  = "CheckoutRejected"
	MetricPaymentsInitiated = "PaymentsInitiated"
	MetricPaymentsVerified  = "PaymentsVerified"
	MetricPaymentsFailed    = "PaymentsFailed"
)

// OrderPlaced is the payload of TypeOrderPlaced.
type OrderPlaced struct {
	OrderID     int64  `json:"order_id"`
	UserID      int64  `json:"user_id"`
	TotalAmount string `json:"total_amount"`
	Items       int    `json:"items"`
}

// PaymentChanged is the payload of the payment.* events.
type PaymentChanged struct {
	PaymentID int64  `json:"payment_id"`
	OrderID   int64  `json:"order_id"`
	Amount    string `json:"amount"`
	Mode      string `json:"mode"`
	Status    string `json:"status"`
}
