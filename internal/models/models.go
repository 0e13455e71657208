package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// DefaultPaymentMode is used when a payment attempt does not name one.
const DefaultPaymentMode = "razorpay"

type Category struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(120);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

// Product is owned by the catalog; checkout only reads its live price.
type Product struct {
	ID          int64           `gorm:"primaryKey"`
	Name        string          `gorm:"type:varchar(255);not null;index"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	CategoryID  *int64          `gorm:"index"`
	CreatedAt   time.Time       `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"type:timestamptz;autoUpdateTime"`
}

// CartLine is one (user, product, quantity) staging record. A product still in
// a cart cannot be deleted.
type CartLine struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;uniqueIndex:uq_cart_user_product;index"`
	ProductID int64     `gorm:"not null;uniqueIndex:uq_cart_user_product;index"`
	Quantity  int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (CartLine) TableName() string { return "cart" }

// Order total is a snapshot taken at checkout and never recomputed.
type Order struct {
	ID          int64           `gorm:"primaryKey"`
	UserID      int64           `gorm:"not null;index"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt   time.Time       `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"type:timestamptz;autoUpdateTime"`
	OrderItems  []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is the immutable price snapshot of one purchased line.
type OrderItem struct {
	ID        int64           `gorm:"primaryKey"`
	OrderID   int64           `gorm:"not null;index"`
	ProductID int64           `gorm:"not null;index"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
}

// LineTotal is price × quantity in fixed point.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Payment is one settlement attempt against an order. Several may exist per
// order; an order with payment attempts cannot be deleted.
type Payment struct {
	ID        int64           `gorm:"primaryKey"`
	OrderID   int64           `gorm:"not null;index"`
	Order     *Order          `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Mode      string          `gorm:"type:varchar(50);not null;default:'razorpay'"`
	Status    string          `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt time.Time       `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"type:timestamptz;autoUpdateTime"`
}

// All lists the models to migrate, parents first.
func All() []interface{} {
	return []interface{}{&Category{}, &Product{}, &CartLine{}, &Order{}, &OrderItem{}, &Payment{}}
}
