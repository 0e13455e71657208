// Package store defines the unit-of-work boundary the core operations run in.
// Implementations live in gormstore (postgres) and memstore (in-process).
package store

import (
	"context"
	"errors"

	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by single-row reads when the row does not exist.
var ErrNotFound = errors.New("record not found")

// Queries is the set of persistence operations available both inside a
// transaction and directly on the store.
type Queries interface {
	// Catalog (read-mostly collaborator)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ProductsByID(ctx context.Context, ids []int64) (map[int64]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error

	// Cart ledger
	ListCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	// LockCartLines returns the user's cart lines and holds row locks on them
	// until the surrounding transaction ends.
	LockCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	GetCartLine(ctx context.Context, userID, productID int64) (*models.CartLine, error)
	// SaveCartLine updates line by ID. A line without ID is merged into any
	// existing (user, product) line by adding its quantity.
	SaveCartLine(ctx context.Context, line *models.CartLine) error
	DeleteCartLine(ctx context.Context, userID, productID int64) (bool, error)
	// DeleteCartLines deletes the lines with the given ids and reports how many went.
	DeleteCartLines(ctx context.Context, ids []int64) (int64, error)

	// Orders
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderWithItems(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error

	// Payments
	CreatePayment(ctx context.Context, p *models.Payment) error
	// GetPaymentForUpdate reads a payment and locks its row for the rest of the transaction.
	GetPaymentForUpdate(ctx context.Context, id int64) (*models.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID int64) ([]models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status string) error
}

// Store is a Queries bound to the database plus a transaction boundary.
type Store interface {
	Queries
	// WithinTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise; fn's error is returned unchanged.
	WithinTx(ctx context.Context, fn func(q Queries) error) error
}
