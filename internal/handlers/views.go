package handlers

import (
	"time"

	"github.com/imrishuroy/go-checkout-orderflow/internal/cart"
	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
)

// Amounts are rendered as fixed two-decimal strings.

type orderSummary struct {
	OrderID     int64  `json:"order_id"`
	TotalAmount string `json:"total_amount"`
	Status      string `json:"status"`
}

type orderView struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	TotalAmount string     `json:"total_amount"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	Items       []itemView `json:"items,omitempty"`
}

type itemView struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	LineTotal string `json:"line_total"`
}

type paymentView struct {
	PaymentID int64     `json:"payment_id"`
	OrderID   int64     `json:"order_id"`
	Amount    string    `json:"amount"`
	Mode      string    `json:"mode"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type cartItemView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

type cartView struct {
	UserID int64          `json:"user_id"`
	Items  []cartItemView `json:"items"`
	Total  string         `json:"total"`
}

func toOrderView(o models.Order) orderView {
	v := orderView{
		ID:          o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
	for _, it := range o.OrderItems {
		v.Items = append(v.Items, itemView{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
			LineTotal: it.LineTotal().StringFixed(2),
		})
	}
	return v
}

func toPaymentView(p models.Payment) paymentView {
	return paymentView{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount.StringFixed(2),
		Mode:      p.Mode,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

func toCartView(userID int64, items []cart.Item) cartView {
	v := cartView{UserID: userID, Items: make([]cartItemView, 0, len(items))}
	total := cart.Total(items)
	for _, it := range items {
		v.Items = append(v.Items, cartItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.StringFixed(2),
			Quantity:  it.Quantity,
		})
	}
	v.Total = total.StringFixed(2)
	return v
}
