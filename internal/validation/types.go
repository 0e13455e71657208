package validation

import "github.com/shopspring/decimal"

// PlaceOrderRequest is the payload for POST /orders.
type PlaceOrderRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// InitiatePaymentRequest is the payload for POST /payments. Amount accepts a
// JSON number or string; its rules live in the struct-level validation.
type InitiatePaymentRequest struct {
	OrderID int64           `json:"order_id" validate:"required,gt=0"`
	Amount  decimal.Decimal `json:"amount"`
	Mode    string          `json:"mode" validate:"omitempty,max=50"`
}

// VerifyPaymentRequest is the payload for POST /payments/verify. The provider
// fields come together or not at all.
type VerifyPaymentRequest struct {
	PaymentID         int64  `json:"payment_id" validate:"required,gt=0"`
	ProviderOrderID   string `json:"provider_order_id,omitempty" validate:"omitempty,max=100"`
	ProviderPaymentID string `json:"provider_payment_id,omitempty" validate:"omitempty,max=100"`
	Signature         string `json:"signature,omitempty" validate:"omitempty,hexadecimal"`
}

// AddToCartRequest is the payload for POST /cart/add. Quantity defaults to 1.
type AddToCartRequest struct {
	UserID    int64 `json:"user_id" validate:"required,gt=0"`
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,min=1,max=1000"`
}

// RemoveFromCartRequest is the payload for DELETE /cart/remove.
type RemoveFromCartRequest struct {
	UserID    int64 `json:"user_id" validate:"required,gt=0"`
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}
