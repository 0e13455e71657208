// Package payments records payment attempts and settles them onto their orders.
package payments

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/events"
	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store"
)

type Options struct {
	// EnforceAmount requires the order to exist and the attempt amount to equal
	// its total. When false a mismatch is only logged.
	EnforceAmount bool
}

// Service is the payment reconciler.
type Service struct {
	store     store.Store
	publisher events.Publisher
	metrics   events.Metrics
	log       *zap.Logger
	opts      Options
	nowFunc   func() time.Time
}

func NewService(st store.Store, pub events.Publisher, metrics events.Metrics, log *zap.Logger, opts Options) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if metrics == nil {
		metrics = events.NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     st,
		publisher: pub,
		metrics:   metrics,
		log:       log,
		opts:      opts,
		nowFunc:   time.Now,
	}
}

// InitiatePayment records a pending attempt. Each call creates a new row.
func (s *Service) InitiatePayment(ctx context.Context, orderID int64, amount decimal.Decimal, mode string) (*models.Payment, error) {
	if orderID <= 0 {
		return nil, apperr.Validation("order_id must be a positive integer")
	}
	if !amount.IsPositive() {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, apperr.Validation("amount must have at most 2 decimal places")
	}
	if mode == "" {
		mode = models.DefaultPaymentMode
	}

	p := &models.Payment{
		OrderID: orderID,
		Amount:  amount,
		Mode:    mode,
		Status:  models.PaymentStatusPending,
	}
	err := s.store.WithinTx(ctx, func(q store.Queries) error {
		order, err := q.GetOrder(ctx, orderID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if s.opts.EnforceAmount {
				return apperr.NotFound("order %d not found", orderID)
			}
		case err != nil:
			return apperr.Persistence("failed to read order", err)
		case !order.TotalAmount.Equal(amount):
			if s.opts.EnforceAmount {
				return apperr.Validation("amount %s does not match order total %s",
					amount.StringFixed(2), order.TotalAmount.StringFixed(2))
			}
			s.log.Warn("payment amount differs from order total",
				zap.Int64("order_id", orderID),
				zap.String("amount", amount.StringFixed(2)),
				zap.String("total_amount", order.TotalAmount.StringFixed(2)),
			)
		}

		if err := q.CreatePayment(ctx, p); err != nil {
			return apperr.Persistence("failed to create payment", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("initiate payment failed", err, zap.Int64("order_id", orderID))
	}

	s.log.Info("payment initiated",
		zap.Int64("payment_id", p.ID),
		zap.Int64("order_id", orderID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("mode", mode),
	)
	s.emit(ctx, events.TypePaymentInitiated, events.MetricPaymentsInitiated, p)
	return p, nil
}

// VerifyPayment marks the payment paid and, in the same transaction, its order.
// A payment whose order is gone is still marked paid. Verifying an already paid
// payment succeeds without writing.
func (s *Service) VerifyPayment(ctx context.Context, paymentID int64) (bool, error) {
	if _, err := s.MarkPaid(ctx, paymentID); err != nil {
		return false, err
	}
	return true, nil
}

// MarkPaid is VerifyPayment reporting whether anything was written. It returns
// false for a payment that was already paid.
func (s *Service) MarkPaid(ctx context.Context, paymentID int64) (bool, error) {
	var (
		settled *models.Payment
		changed bool
	)
	err := s.store.WithinTx(ctx, func(q store.Queries) error {
		p, err := q.GetPaymentForUpdate(ctx, paymentID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("payment %d not found", paymentID)
		}
		if err != nil {
			return apperr.Persistence("failed to read payment", err)
		}
		settled = p
		if p.Status == models.PaymentStatusPaid {
			return nil
		}

		if err := q.UpdatePaymentStatus(ctx, p.ID, models.PaymentStatusPaid); err != nil {
			return apperr.Persistence("failed to update payment", err)
		}
		p.Status = models.PaymentStatusPaid
		changed = true

		order, err := q.GetOrder(ctx, p.OrderID)
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn("verified payment has no order",
				zap.Int64("payment_id", p.ID), zap.Int64("order_id", p.OrderID))
			return nil
		}
		if err != nil {
			return apperr.Persistence("failed to read order", err)
		}

		switch order.Status {
		case models.OrderStatusPending:
			if err := q.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPaid); err != nil {
				return apperr.Persistence("failed to update order", err)
			}
		case models.OrderStatusPaid:
		default:
			s.log.Warn("order not pending, status left unchanged",
				zap.Int64("order_id", order.ID), zap.String("status", order.Status))
		}
		return nil
	})
	if err != nil {
		return false, s.fail("verify payment failed", err, zap.Int64("payment_id", paymentID))
	}

	if changed {
		s.log.Info("payment verified", zap.Int64("payment_id", paymentID), zap.Int64("order_id", settled.OrderID))
		s.emit(ctx, events.TypePaymentVerified, events.MetricPaymentsVerified, settled)
	}
	return changed, nil
}

// FailPayment moves a pending payment to failed. It reports false, without
// writing, when the payment is already paid or failed. The order is untouched.
func (s *Service) FailPayment(ctx context.Context, paymentID int64) (bool, error) {
	var failed *models.Payment
	err := s.store.WithinTx(ctx, func(q store.Queries) error {
		p, err := q.GetPaymentForUpdate(ctx, paymentID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("payment %d not found", paymentID)
		}
		if err != nil {
			return apperr.Persistence("failed to read payment", err)
		}
		if p.Status != models.PaymentStatusPending {
			return nil
		}
		if err := q.UpdatePaymentStatus(ctx, p.ID, models.PaymentStatusFailed); err != nil {
			return apperr.Persistence("failed to update payment", err)
		}
		p.Status = models.PaymentStatusFailed
		failed = p
		return nil
	})
	if err != nil {
		return false, s.fail("fail payment failed", err, zap.Int64("payment_id", paymentID))
	}
	if failed == nil {
		return false, nil
	}

	s.log.Info("payment failed", zap.Int64("payment_id", paymentID), zap.Int64("order_id", failed.OrderID))
	s.emit(ctx, events.TypePaymentFailed, events.MetricPaymentsFailed, failed)
	return true, nil
}

// ListPaymentsForOrder returns every attempt for the order, oldest first.
func (s *Service) ListPaymentsForOrder(ctx context.Context, orderID int64) ([]models.Payment, error) {
	payments, err := s.store.ListPaymentsByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Persistence("failed to list payments", err)
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, nil
}

// fail normalizes err to an application error and logs it.
func (s *Service) fail(msg string, err error, fields ...zap.Field) error {
	if apperr.KindOf(err) == apperr.KindInternal {
		err = apperr.Persistence("failed to commit payment", err)
	}
	fields = append(fields, zap.Error(err))
	switch apperr.KindOf(err) {
	case apperr.KindPersistence:
		s.log.Error(msg, fields...)
	default:
		s.log.Warn(msg, fields...)
	}
	return err
}

func (s *Service) emit(ctx context.Context, eventType, metric string, p *models.Payment) {
	ev := events.Event{
		Type:       eventType,
		OccurredAt: s.nowFunc(),
		Attributes: map[string]string{
			"payment_id": strconv.FormatInt(p.ID, 10),
			"order_id":   strconv.FormatInt(p.OrderID, 10),
		},
		Payload: events.PaymentChanged{
			PaymentID: p.ID,
			OrderID:   p.OrderID,
			Amount:    p.Amount.StringFixed(2),
			Mode:      p.Mode,
			Status:    p.Status,
		},
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event failed", zap.String("event_type", eventType), zap.Error(err))
	}
	if err := s.metrics.RecordCount(ctx, metric, map[string]string{"mode": p.Mode}); err != nil {
		s.log.Warn("record metric failed", zap.String("metric", metric), zap.Error(err))
	}
}
