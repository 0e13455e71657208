// Package orders converts a user's cart into a priced order.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/events"
	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store"
)

// Service is the order engine.
type Service struct {
	store     store.Store
	publisher events.Publisher
	metrics   events.Metrics
	log       *zap.Logger
	nowFunc   func() time.Time
}

// NewService wires the engine. Nil publisher, metrics or logger are replaced by no-ops.
func NewService(st store.Store, pub events.Publisher, metrics events.Metrics, log *zap.Logger) *Service {
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
		nowFunc:   time.Now,
	}
}

// PlaceOrder converts every cart line of userID into one pending order with
// price-snapshotted items and deletes the consumed lines. The cart lines are
// locked for the duration, so a concurrent checkout of the same cart waits and
// then finds it empty.
func (s *Service) PlaceOrder(ctx context.Context, userID int64) (*models.Order, error) {
	if userID <= 0 {
		return nil, apperr.Validation("user_id must be a positive integer")
	}

	var placed *models.Order
	err := s.store.WithinTx(ctx, func(q store.Queries) error {
		lines, err := q.LockCartLines(ctx, userID)
		if err != nil {
			return apperr.Persistence("failed to read cart", err)
		}
		if len(lines) == 0 {
			return apperr.EmptyCart(userID)
		}

		ids := make([]int64, 0, len(lines))
		lineIDs := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
			lineIDs = append(lineIDs, l.ID)
		}
		products, err := q.ProductsByID(ctx, ids)
		if err != nil {
			return apperr.Persistence("failed to read products", err)
		}

		order, err := priceCart(userID, lines, products)
		if err != nil {
			return err
		}
		if err := q.CreateOrder(ctx, order); err != nil {
			return apperr.Persistence("failed to create order", err)
		}

		n, err := q.DeleteCartLines(ctx, lineIDs)
		if err != nil {
			return apperr.Persistence("failed to clear cart", err)
		}
		if n != int64(len(lineIDs)) {
			return apperr.Persistence("failed to clear cart", fmt.Errorf("deleted %d of %d cart lines", n, len(lineIDs)))
		}

		placed = order
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrEmptyCart) {
			s.record(ctx, events.MetricCheckoutRejected, map[string]string{"reason": string(apperr.KindEmptyCart)})
			return nil, err
		}
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Persistence("failed to commit checkout", err)
		}
		s.log.Error("checkout failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.log.Info("order placed",
		zap.Int64("order_id", placed.ID),
		zap.Int64("user_id", userID),
		zap.String("total_amount", placed.TotalAmount.StringFixed(2)),
		zap.Int("items", len(placed.OrderItems)),
	)
	s.publish(ctx, events.Event{
		Type:       events.TypeOrderPlaced,
		OccurredAt: s.nowFunc(),
		Attributes: map[string]string{"order_id": strconv.FormatInt(placed.ID, 10)},
		Payload: events.OrderPlaced{
			OrderID:     placed.ID,
			UserID:      userID,
			TotalAmount: placed.TotalAmount.StringFixed(2),
			Items:       len(placed.OrderItems),
		},
	})
	s.record(ctx, events.MetricOrdersPlaced, nil)

	return placed, nil
}

// ListOrdersForUser returns the user's orders, newest first. No orders is an
// empty slice, not an error.
func (s *Service) ListOrdersForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("failed to list orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetOrder returns an order with its items.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	o, err := s.store.GetOrderWithItems(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("order %d not found", orderID)
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load order", err)
	}
	return o, nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event failed", zap.String("event_type", ev.Type), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, metric string, dims map[string]string) {
	if err := s.metrics.RecordCount(ctx, metric, dims); err != nil {
		s.log.Warn("record metric failed", zap.String("metric", metric), zap.Error(err))
	}
}
