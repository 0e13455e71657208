// Package memstore is an in-process store.Store. Transactions run on a copy of
// the state and are swapped in on commit, so a failed transaction leaves no trace.
// Transactions are serialized, which stands in for row locks.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store"
	"github.com/shopspring/decimal"
)

type state struct {
	products map[int64]models.Product
	cart     map[int64]models.CartLine
	orders   map[int64]models.Order
	items    map[int64]models.OrderItem
	payments map[int64]models.Payment
	nextID   map[string]int64
}

func newState() *state {
	return &state{
		products: map[int64]models.Product{},
		cart:     map[int64]models.CartLine{},
		orders:   map[int64]models.Order{},
		items:    map[int64]models.OrderItem{},
		payments: map[int64]models.Payment{},
		nextID:   map[string]int64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.nextID {
		c.nextID[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cart {
		c.cart[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

func (s *state) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// Store is safe for concurrent use.
type Store struct {
	txMu    sync.Mutex // serializes transactions
	mu      sync.Mutex // guards cur and failures
	cur     *state
	fail    map[string]error
	commitE error
	nowFunc func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		cur:     newState(),
		fail:    map[string]error{},
		nowFunc: time.Now,
	}
}

// FailOn makes every later call to the named operation (e.g. "DeleteCartLines")
// return err. Passing nil clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// FailCommit makes every later transaction fail at commit time with err.
func (s *Store) FailCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitE = err
}

func (s *Store) injected(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail[op]
}

func (s *Store) WithinTx(ctx context.Context, fn func(q store.Queries) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	work := s.cur.clone()
	s.mu.Unlock()

	if err := fn(&view{st: work, owner: s}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitE != nil {
		return s.commitE
	}
	s.cur = work
	return nil
}

// autocommit runs a single operation as its own transaction.
func (s *Store) autocommit(ctx context.Context, fn func(v *view) error) error {
	return s.WithinTx(ctx, func(q store.Queries) error { return fn(q.(*view)) })
}

// Snapshot returns copies of the committed rows, for assertions in tests.
func (s *Store) Snapshot() (cart []models.CartLine, orders []models.Order, items []models.OrderItem, payments []models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.cur.cart {
		cart = append(cart, v)
	}
	for _, v := range s.cur.orders {
		orders = append(orders, v)
	}
	for _, v := range s.cur.items {
		items = append(items, v)
	}
	for _, v := range s.cur.payments {
		payments = append(payments, v)
	}
	sort.Slice(cart, func(i, j int) bool { return cart[i].ID < cart[j].ID })
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return cart, orders, items, payments
}

func (s *Store) GetProduct(ctx context.Context, id int64) (p *models.Product, err error) {
	err = s.autocommit(ctx, func(v *view) error { p, err = v.GetProduct(ctx, id); return err })
	return p, err
}

func (s *Store) ProductsByID(ctx context.Context, ids []int64) (m map[int64]models.Product, err error) {
	err = s.autocommit(ctx, func(v *view) error { m, err = v.ProductsByID(ctx, ids); return err })
	return m, err
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.autocommit(ctx, func(v *view) error { return v.CreateProduct(ctx, p) })
}

func (s *Store) UpdateProductPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return s.autocommit(ctx, func(v *view) error { return v.UpdateProductPrice(ctx, id, price) })
}

func (s *Store) ListCartLines(ctx context.Context, userID int64) (lines []models.CartLine, err error) {
	err = s.autocommit(ctx, func(v *view) error { lines, err = v.ListCartLines(ctx, userID); return err })
	return lines, err
}

func (s *Store) LockCartLines(ctx context.Context, userID int64) (lines []models.CartLine, err error) {
	err = s.autocommit(ctx, func(v *view) error { lines, err = v.LockCartLines(ctx, userID); return err })
	return lines, err
}

func (s *Store) GetCartLine(ctx context.Context, userID, productID int64) (line *models.CartLine, err error) {
	err = s.autocommit(ctx, func(v *view) error { line, err = v.GetCartLine(ctx, userID, productID); return err })
	return line, err
}

func (s *Store) SaveCartLine(ctx context.Context, line *models.CartLine) error {
	return s.autocommit(ctx, func(v *view) error { return v.SaveCartLine(ctx, line) })
}

func (s *Store) DeleteCartLine(ctx context.Context, userID, productID int64) (ok bool, err error) {
	err = s.autocommit(ctx, func(v *view) error { ok, err = v.DeleteCartLine(ctx, userID, productID); return err })
	return ok, err
}

func (s *Store) DeleteCartLines(ctx context.Context, ids []int64) (n int64, err error) {
	err = s.autocommit(ctx, func(v *view) error { n, err = v.DeleteCartLines(ctx, ids); return err })
	return n, err
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	return s.autocommit(ctx, func(v *view) error { return v.CreateOrder(ctx, o) })
}

func (s *Store) GetOrder(ctx context.Context, id int64) (o *models.Order, err error) {
	err = s.autocommit(ctx, func(v *view) error { o, err = v.GetOrder(ctx, id); return err })
	return o, err
}

func (s *Store) GetOrderWithItems(ctx context.Context, id int64) (o *models.Order, err error) {
	err = s.autocommit(ctx, func(v *view) error { o, err = v.GetOrderWithItems(ctx, id); return err })
	return o, err
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) (orders []models.Order, err error) {
	err = s.autocommit(ctx, func(v *view) error { orders, err = v.ListOrdersByUser(ctx, userID); return err })
	return orders, err
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	return s.autocommit(ctx, func(v *view) error { return v.UpdateOrderStatus(ctx, id, status) })
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.autocommit(ctx, func(v *view) error { return v.CreatePayment(ctx, p) })
}

func (s *Store) GetPaymentForUpdate(ctx context.Context, id int64) (p *models.Payment, err error) {
	err = s.autocommit(ctx, func(v *view) error { p, err = v.GetPaymentForUpdate(ctx, id); return err })
	return p, err
}

func (s *Store) ListPaymentsByOrder(ctx context.Context, orderID int64) (payments []models.Payment, err error) {
	err = s.autocommit(ctx, func(v *view) error { payments, err = v.ListPaymentsByOrder(ctx, orderID); return err })
	return payments, err
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, status string) error {
	return s.autocommit(ctx, func(v *view) error { return v.UpdatePaymentStatus(ctx, id, status) })
}
