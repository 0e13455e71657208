package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-checkout-orderflow/internal/config"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store/memstore"
)

func TestBuildWithMemoryStore(t *testing.T) {
	cfg := &config.Config{
		DBDriver:             config.DriverMemory,
		IdempotencyTTL:       time.Hour,
		PaymentEnforceAmount: true,
	}
	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memstore.Store{}, a.Store)
	assert.Nil(t, a.Idempotency)
	assert.False(t, a.Auth.Enabled())

	hc := a.HandlerConfig()
	assert.Nil(t, hc.Idempotency, "unset table must leave idempotency disabled")
	assert.NotNil(t, hc.Orders)
	assert.NotNil(t, hc.Payments)
	assert.NotNil(t, hc.Cart)
}

func TestBuildEnablesProviders(t *testing.T) {
	cfg := &config.Config{
		DBDriver:            config.DriverMemory,
		JWTSecret:           "jwt",
		RazorpayKeySecret:   "rzp",
		StripeWebhookSecret: "whsec",
	}
	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.True(t, a.Auth.Enabled())
	assert.True(t, a.Razorpay.Enabled())
	assert.True(t, a.Stripe.Enabled())
}

func TestNeedsAWS(t *testing.T) {
	assert.False(t, needsAWS(&config.Config{}))
	assert.True(t, needsAWS(&config.Config{EventsQueueURL: "https://sqs/queue"}))
	assert.True(t, needsAWS(&config.Config{IdempotencyTable: "idem"}))
	assert.True(t, needsAWS(&config.Config{CloudWatchEnabled: true}))
}
