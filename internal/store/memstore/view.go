package memstore

import (
	"context"
	"sort"

	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store"
	"github.com/shopspring/decimal"
)

// view is the store.Queries handed to a transaction; it mutates a private copy.
type view struct {
	st    *state
	owner *Store
}

var _ store.Queries = (*view)(nil)

func (v *view) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if err := v.owner.injected("GetProduct"); err != nil {
		return nil, err
	}
	p, ok := v.st.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (v *view) ProductsByID(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	if err := v.owner.injected("ProductsByID"); err != nil {
		return nil, err
	}
	out := make(map[int64]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := v.st.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (v *view) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := v.owner.injected("CreateProduct"); err != nil {
		return err
	}
	if p.ID == 0 {
		p.ID = v.st.id("products")
	} else if p.ID > v.st.nextID["products"] {
		v.st.nextID["products"] = p.ID
	}
	now := v.owner.nowFunc()
	p.CreatedAt, p.UpdatedAt = now, now
	v.st.products[p.ID] = *p
	return nil
}

func (v *view) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	if err := v.owner.injected("UpdateProductPrice"); err != nil {
		return err
	}
	p, ok := v.st.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Price = price
	p.UpdatedAt = v.owner.nowFunc()
	v.st.products[id] = p
	return nil
}

func (v *view) userLines(userID int64) []models.CartLine {
	var lines []models.CartLine
	for _, l := range v.st.cart {
		if l.UserID == userID {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines
}

func (v *view) ListCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	if err := v.owner.injected("ListCartLines"); err != nil {
		return nil, err
	}
	return v.userLines(userID), nil
}

func (v *view) LockCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	if err := v.owner.injected("LockCartLines"); err != nil {
		return nil, err
	}
	return v.userLines(userID), nil
}

func (v *view) GetCartLine(ctx context.Context, userID, productID int64) (*models.CartLine, error) {
	if err := v.owner.injected("GetCartLine"); err != nil {
		return nil, err
	}
	for _, l := range v.st.cart {
		if l.UserID == userID && l.ProductID == productID {
			return &l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (v *view) SaveCartLine(ctx context.Context, line *models.CartLine) error {
	if err := v.owner.injected("SaveCartLine"); err != nil {
		return err
	}
	now := v.owner.nowFunc()
	if line.ID == 0 {
		for _, l := range v.st.cart {
			if l.UserID == line.UserID && l.ProductID == line.ProductID {
				line.ID = l.ID
				line.Quantity += l.Quantity
				line.CreatedAt = l.CreatedAt
				break
			}
		}
	}
	if line.ID == 0 {
		line.ID = v.st.id("cart")
		line.CreatedAt = now
	}
	line.UpdatedAt = now
	v.st.cart[line.ID] = *line
	return nil
}

func (v *view) DeleteCartLine(ctx context.Context, userID, productID int64) (bool, error) {
	if err := v.owner.injected("DeleteCartLine"); err != nil {
		return false, err
	}
	for id, l := range v.st.cart {
		if l.UserID == userID && l.ProductID == productID {
			delete(v.st.cart, id)
			return true, nil
		}
	}
	return false, nil
}

func (v *view) DeleteCartLines(ctx context.Context, ids []int64) (int64, error) {
	if err := v.owner.injected("DeleteCartLines"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := v.st.cart[id]; ok {
			delete(v.st.cart, id)
			n++
		}
	}
	return n, nil
}

func (v *view) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := v.owner.injected("CreateOrder"); err != nil {
		return err
	}
	now := v.owner.nowFunc()
	o.ID = v.st.id("orders")
	o.CreatedAt, o.UpdatedAt = now, now
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	for i := range o.OrderItems {
		it := &o.OrderItems[i]
		it.ID = v.st.id("order_items")
		it.OrderID = o.ID
		v.st.items[it.ID] = *it
	}
	row := *o
	row.OrderItems = nil
	v.st.orders[o.ID] = row
	return nil
}

func (v *view) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	if err := v.owner.injected("GetOrder"); err != nil {
		return nil, err
	}
	o, ok := v.st.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (v *view) GetOrderWithItems(ctx context.Context, id int64) (*models.Order, error) {
	o, err := v.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, it := range v.st.items {
		if it.OrderID == id {
			o.OrderItems = append(o.OrderItems, it)
		}
	}
	sort.Slice(o.OrderItems, func(i, j int) bool { return o.OrderItems[i].ID < o.OrderItems[j].ID })
	return o, nil
}

func (v *view) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	if err := v.owner.injected("ListOrdersByUser"); err != nil {
		return nil, err
	}
	var out []models.Order
	for _, o := range v.st.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (v *view) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	if err := v.owner.injected("UpdateOrderStatus"); err != nil {
		return err
	}
	o, ok := v.st.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = v.owner.nowFunc()
	v.st.orders[id] = o
	return nil
}

func (v *view) CreatePayment(ctx context.Context, p *models.Payment) error {
	if err := v.owner.injected("CreatePayment"); err != nil {
		return err
	}
	now := v.owner.nowFunc()
	p.ID = v.st.id("payments")
	p.CreatedAt, p.UpdatedAt = now, now
	v.st.payments[p.ID] = *p
	return nil
}

func (v *view) GetPaymentForUpdate(ctx context.Context, id int64) (*models.Payment, error) {
	if err := v.owner.injected("GetPaymentForUpdate"); err != nil {
		return nil, err
	}
	p, ok := v.st.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (v *view) ListPaymentsByOrder(ctx context.Context, orderID int64) ([]models.Payment, error) {
	if err := v.owner.injected("ListPaymentsByOrder"); err != nil {
		return nil, err
	}
	var out []models.Payment
	for _, p := range v.st.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *view) UpdatePaymentStatus(ctx context.Context, id int64, status string) error {
	if err := v.owner.injected("UpdatePaymentStatus"); err != nil {
		return err
	}
	p, ok := v.st.payments[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = v.owner.nowFunc()
	v.st.payments[id] = p
	return nil
}
