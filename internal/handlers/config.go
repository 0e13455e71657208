package handlers

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/auth"
	"github.com/imrishuroy/go-checkout-orderflow/internal/cart"
	"github.com/imrishuroy/go-checkout-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/imrishuroy/go-checkout-orderflow/internal/provider"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID int64) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

type PaymentService interface {
	InitiatePayment(ctx context.Context, orderID int64, amount decimal.Decimal, mode string) (*models.Payment, error)
	VerifyPayment(ctx context.Context, paymentID int64) (bool, error)
	FailPayment(ctx context.Context, paymentID int64) (bool, error)
	ListPaymentsForOrder(ctx context.Context, orderID int64) ([]models.Payment, error)
}

type CartService interface {
	Add(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error)
	Remove(ctx context.Context, userID, productID int64) (bool, error)
	View(ctx context.Context, userID int64) ([]cart.Item, error)
}

type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key, requestHash string) (*idempotency.IdempotencyRecord, bool, error)
	MarkDone(ctx context.Context, scope, key, resourceID, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, scope, key, note string) error
}

// HandlerConfig groups dependencies for the route handlers. Idempotency, Auth,
// Razorpay and Stripe are optional; nil (or an unconfigured secret) disables them.
type HandlerConfig struct {
	Orders      OrderService
	Payments    PaymentService
	Cart        CartService
	Idempotency IdempotencyStore
	Auth        *auth.Verifier
	Razorpay    *provider.RazorpayVerifier
	Stripe      *provider.StripeWebhook
	Logger      *zap.Logger
}
