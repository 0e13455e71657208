// Package cart keeps the per-user staging lines consumed by checkout.
package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store"
)

// Item is one line of a cart view, priced at the current catalog price.
type Item struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

type Ledger struct {
	store store.Store
	log   *zap.Logger
}

func NewLedger(st store.Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: st, log: log}
}

// Add creates the (user, product) line or increments its quantity.
func (l *Ledger) Add(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error) {
	if userID <= 0 || productID <= 0 {
		return nil, apperr.Validation("user_id and product_id must be positive integers")
	}
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	var saved *models.CartLine
	err := l.store.WithinTx(ctx, func(q store.Queries) error {
		if _, err := q.GetProduct(ctx, productID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("product %d not found", productID)
			}
			return apperr.Persistence("failed to read product", err)
		}

		line, err := q.GetCartLine(ctx, userID, productID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			line = &models.CartLine{UserID: userID, ProductID: productID, Quantity: quantity}
		case err != nil:
			return apperr.Persistence("failed to read cart", err)
		default:
			line.Quantity += quantity
		}

		if err := q.SaveCartLine(ctx, line); err != nil {
			return apperr.Persistence("failed to save cart line", err)
		}
		saved = line
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Persistence("failed to save cart line", err)
		}
		l.log.Warn("add to cart failed", zap.Int64("user_id", userID), zap.Int64("product_id", productID), zap.Error(err))
		return nil, err
	}
	return saved, nil
}

// Remove deletes the line. A missing line reports false, not an error.
func (l *Ledger) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	ok, err := l.store.DeleteCartLine(ctx, userID, productID)
	if err != nil {
		return false, apperr.Persistence("failed to remove cart line", err)
	}
	return ok, nil
}

// View lists the user's lines with current product name and price.
func (l *Ledger) View(ctx context.Context, userID int64) ([]Item, error) {
	lines, err := l.store.ListCartLines(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("failed to read cart", err)
	}
	items := make([]Item, 0, len(lines))
	if len(lines) == 0 {
		return items, nil
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := l.store.ProductsByID(ctx, ids)
	if err != nil {
		return nil, apperr.Persistence("failed to read products", err)
	}

	for _, line := range lines {
		item := Item{ProductID: line.ProductID, Quantity: line.Quantity}
		if p, ok := products[line.ProductID]; ok {
			item.Name = p.Name
			item.Price = p.Price
		}
		items = append(items, item)
	}
	return items, nil
}

// Total sums price × quantity over items at their current prices.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
