// Package app assembles the store, AWS collaborators and services shared by
// the API and worker binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/auth"
	"github.com/imrishuroy/go-checkout-orderflow/internal/aws"
	"github.com/imrishuroy/go-checkout-orderflow/internal/cart"
	"github.com/imrishuroy/go-checkout-orderflow/internal/config"
	"github.com/imrishuroy/go-checkout-orderflow/internal/events"
	"github.com/imrishuroy/go-checkout-orderflow/internal/handlers"
	"github.com/imrishuroy/go-checkout-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-checkout-orderflow/internal/orders"
	"github.com/imrishuroy/go-checkout-orderflow/internal/payments"
	"github.com/imrishuroy/go-checkout-orderflow/internal/provider"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store/gormstore"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store/memstore"
)

type App struct {
	Store    store.Store
	Orders   *orders.Service
	Payments *payments.Service
	Cart     *cart.Ledger

	// Idempotency is nil when IDEMPOTENCY_TABLE is unset.
	Idempotency *idempotency.Store

	Auth     *auth.Verifier
	Razorpay *provider.RazorpayVerifier
	Stripe   *provider.StripeWebhook

	log    *zap.Logger
	closer func() error
}

// needsAWS reports whether any configured feature talks to AWS.
func needsAWS(cfg *config.Config) bool {
	return cfg.EventsQueueURL != "" || cfg.IdempotencyTable != "" || cfg.CloudWatchEnabled
}

// Build opens the configured store and wires every service.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		Auth:     auth.NewVerifier(cfg.JWTSecret),
		Razorpay: provider.NewRazorpayVerifier(cfg.RazorpayKeySecret),
		Stripe:   provider.NewStripeWebhook(cfg.StripeWebhookSecret),
		log:      log,
	}

	switch cfg.DBDriver {
	case config.DriverMemory:
		a.Store = memstore.New()
		log.Warn("using in-memory store; data is lost on restart")
	default:
		gs, err := gormstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := gs.Migrate(); err != nil {
			_ = gs.Close()
			return nil, err
		}
		a.Store = gs
		a.closer = gs.Close
	}

	var (
		publisher events.Publisher = events.Nop{}
		metrics   events.Metrics   = events.NopMetrics{}
	)
	if needsAWS(cfg) {
		clients, err := aws.NewClients(ctx, cfg.AWSRegion, cfg.AWSEndpointOverride)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("init aws clients: %w", err)
		}
		if cfg.EventsQueueURL != "" {
			publisher = aws.NewPublisher(clients.Events, cfg.EventsQueueURL)
		}
		metrics = aws.NewMetricsClient(clients.Metrics, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
		if cfg.IdempotencyTable != "" {
			a.Idempotency = idempotency.NewStore(clients.Idempotency, cfg.IdempotencyTable, cfg.IdempotencyTTL)
		}
	}

	a.Orders = orders.NewService(a.Store, publisher, metrics, log.Named("orders"))
	a.Payments = payments.NewService(a.Store, publisher, metrics, log.Named("payments"),
		payments.Options{EnforceAmount: cfg.PaymentEnforceAmount})
	a.Cart = cart.NewLedger(a.Store, log.Named("cart"))

	log.Info("app ready",
		zap.String("db_driver", cfg.DBDriver),
		zap.Bool("auth", a.Auth.Enabled()),
		zap.Bool("idempotency", a.Idempotency != nil),
		zap.Bool("events", cfg.EventsQueueURL != ""),
		zap.Bool("metrics", cfg.CloudWatchEnabled),
	)
	return a, nil
}

// HandlerConfig returns the route dependencies.
func (a *App) HandlerConfig() handlers.HandlerConfig {
	cfg := handlers.HandlerConfig{
		Orders:   a.Orders,
		Payments: a.Payments,
		Cart:     a.Cart,
		Auth:     a.Auth,
		Razorpay: a.Razorpay,
		Stripe:   a.Stripe,
		Logger:   a.log,
	}
	// A nil *Store must not become a non-nil interface.
	if a.Idempotency != nil {
		cfg.Idempotency = a.Idempotency
	}
	return cfg
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
