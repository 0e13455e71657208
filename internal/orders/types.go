package orders

import (
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
)

// priceCart turns cart lines into an unsaved pending order, snapshotting the
// current unit price of every product. Every line's product must be present.
func priceCart(userID int64, lines []models.CartLine, products map[int64]models.Product) (*models.Order, error) {
	order := &models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.Zero,
		OrderItems:  make([]models.OrderItem, 0, len(lines)),
	}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, apperr.NotFound("product %d in cart no longer exists", l.ProductID)
		}
		item := models.OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     p.Price,
		}
		order.OrderItems = append(order.OrderItems, item)
		order.TotalAmount = order.TotalAmount.Add(item.LineTotal())
	}
	return order, nil
}
