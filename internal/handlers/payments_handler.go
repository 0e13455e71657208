package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/logger"
	"github.com/imrishuroy/go-checkout-orderflow/internal/provider"
	"github.com/imrishuroy/go-checkout-orderflow/internal/validation"
)

const maxWebhookBody = 64 << 10

// RegisterPaymentsRoutes registers routes for the payment API. The Stripe
// webhook is authenticated by its signature, not by a bearer token.
func RegisterPaymentsRoutes(r gin.IRouter, cfg HandlerConfig) {
	h := newHandler(cfg)
	r.POST("/payments/webhook/stripe", h.stripeWebhook)

	g := r.Group("/payments", h.authenticate())
	g.POST("", h.idempotent("payments", h.initiatePayment))
	g.POST("/verify", h.verifyPayment)
	g.GET("/order/:order_id", h.run(h.listPayments))
}

func (h *handler) initiatePayment(c *gin.Context) (result, error) {
	var req validation.InitiatePaymentRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return result{}, err
	}

	p, err := h.cfg.Payments.InitiatePayment(c.Request.Context(), req.OrderID, req.Amount, req.Mode)
	if err != nil {
		return result{}, err
	}
	return created(toPaymentView(*p), strconv.FormatInt(p.ID, 10)), nil
}

// verifyPayment reports an unknown payment as a bad request rather than 404.
func (h *handler) verifyPayment(c *gin.Context) {
	var req validation.VerifyPaymentRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.cfg.Razorpay.Verify(req.ProviderOrderID, req.ProviderPaymentID, req.Signature); err != nil {
		h.fail(c, apperr.Validation("%s", err.Error()))
		return
	}

	if _, err := h.cfg.Payments.VerifyPayment(c.Request.Context(), req.PaymentID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.failWithStatus(c, http.StatusBadRequest, err)
			return
		}
		h.fail(c, err)
		return
	}
	h.write(c, ok(gin.H{"message": "payment verified", "payment_id": req.PaymentID}))
}

func (h *handler) listPayments(c *gin.Context) (result, error) {
	orderID, err := pathID(c, "order_id")
	if err != nil {
		return result{}, err
	}
	payments, err := h.cfg.Payments.ListPaymentsForOrder(c.Request.Context(), orderID)
	if err != nil {
		return result{}, err
	}
	views := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, toPaymentView(p))
	}
	return list(views, len(views)), nil
}

// stripeWebhook settles payments from Stripe PaymentIntent events. Events for
// unknown payments are acknowledged so Stripe stops redelivering them; store
// failures answer 500 so it retries.
func (h *handler) stripeWebhook(c *gin.Context) {
	if !h.cfg.Stripe.Enabled() {
		h.fail(c, apperr.NotFound("stripe webhooks are not configured"))
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.fail(c, apperr.Validation("invalid request body"))
		return
	}
	n, err := h.cfg.Stripe.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, provider.ErrInvalidSignature) {
			h.fail(c, apperr.Validation("invalid stripe signature"))
			return
		}
		h.fail(c, apperr.Validation("%s", err.Error()))
		return
	}

	log := logger.For(c, h.log).With(
		zap.String("stripe_event_id", n.EventID),
		zap.String("stripe_event_type", n.EventType),
		zap.Int64("payment_id", n.PaymentID),
	)
	ctx := c.Request.Context()
	switch n.Outcome {
	case provider.OutcomeSucceeded:
		_, err = h.cfg.Payments.VerifyPayment(ctx, n.PaymentID)
	case provider.OutcomeFailed:
		_, err = h.cfg.Payments.FailPayment(ctx, n.PaymentID)
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		log.Warn("stripe event for unknown payment")
	case err != nil:
		h.failWithStatus(c, http.StatusInternalServerError, err)
		return
	}

	h.write(c, ok(gin.H{"received": true, "event_id": n.EventID, "outcome": n.Outcome.String()}))
}
