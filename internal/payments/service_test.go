package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/events"
	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store/memstore"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// createOrders inserts n pending orders of 25.50 and returns the last one.
func createOrders(t *testing.T, st *memstore.Store, n int) models.Order {
	t.Helper()
	var last models.Order
	for i := 0; i < n; i++ {
		o := models.Order{UserID: 1, TotalAmount: dec("25.50"), Status: models.OrderStatusPending}
		if err := st.CreateOrder(context.Background(), &o); err != nil {
			t.Fatalf("create order: %v", err)
		}
		last = o
	}
	return last
}

func orderStatus(t *testing.T, st *memstore.Store, id int64) string {
	t.Helper()
	o, err := st.GetOrder(context.Background(), id)
	if err != nil {
		t.Fatalf("get order %d: %v", id, err)
	}
	return o.Status
}

func paymentStatus(t *testing.T, st *memstore.Store, id int64) string {
	t.Helper()
	p, err := st.GetPaymentForUpdate(context.Background(), id)
	if err != nil {
		t.Fatalf("get payment %d: %v", id, err)
	}
	return p.Status
}

func TestInitiateThenVerify_Order7(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 7)
	if order.ID != 7 {
		t.Fatalf("expected order id 7, got %d", order.ID)
	}
	pub := &recordingPublisher{}
	svc := NewService(st, pub, nil, nil, Options{EnforceAmount: true})
	ctx := context.Background()

	p, err := svc.InitiatePayment(ctx, 7, dec("25.50"), "card")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if p.Status != models.PaymentStatusPending || p.Mode != "card" || p.OrderID != 7 {
		t.Fatalf("unexpected payment: %+v", p)
	}

	ok, err := svc.VerifyPayment(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("verify: ok=%v err=%v", ok, err)
	}
	if got := paymentStatus(t, st, p.ID); got != models.PaymentStatusPaid {
		t.Fatalf("payment status = %s", got)
	}
	if got := orderStatus(t, st, 7); got != models.OrderStatusPaid {
		t.Fatalf("order status = %s", got)
	}

	if len(pub.events) != 2 || pub.events[0].Type != events.TypePaymentInitiated || pub.events[1].Type != events.TypePaymentVerified {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestInitiatePayment_DefaultsAndRepeats(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 1)
	svc := NewService(st, nil, nil, nil, Options{EnforceAmount: true})
	ctx := context.Background()

	first, err := svc.InitiatePayment(ctx, order.ID, dec("25.50"), "")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if first.Mode != models.DefaultPaymentMode {
		t.Fatalf("mode = %s, want %s", first.Mode, models.DefaultPaymentMode)
	}
	second, err := svc.InitiatePayment(ctx, order.ID, dec("25.50"), "upi")
	if err != nil {
		t.Fatalf("retry initiate: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("retry reused payment row")
	}

	list, err := svc.ListPaymentsForOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID {
		t.Fatalf("expected both attempts oldest first, got %+v", list)
	}
}

func TestInitiatePayment_Validation(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 1)
	svc := NewService(st, nil, nil, nil, Options{EnforceAmount: true})
	ctx := context.Background()

	tests := []struct {
		name    string
		orderID int64
		amount  string
		want    error
	}{
		{"zero amount", order.ID, "0", apperr.ErrValidation},
		{"negative amount", order.ID, "-1.00", apperr.ErrValidation},
		{"three decimals", order.ID, "25.505", apperr.ErrValidation},
		{"mismatched total", order.ID, "20.00", apperr.ErrValidation},
		{"missing order", 999, "25.50", apperr.ErrNotFound},
		{"bad order id", 0, "25.50", apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.InitiatePayment(ctx, tt.orderID, dec(tt.amount), "card")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, _, _, payments := st.Snapshot(); len(payments) != 0 {
		t.Fatalf("rejected attempts created %d rows", len(payments))
	}
}

func TestInitiatePayment_LenientAmountLogsWarning(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 1)
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(st, nil, nil, zap.New(core), Options{EnforceAmount: false})

	p, err := svc.InitiatePayment(context.Background(), order.ID, dec("10.00"), "card")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if !p.Amount.Equal(dec("10.00")) {
		t.Fatalf("amount = %s", p.Amount)
	}
	if logs.FilterMessage("payment amount differs from order total").Len() != 1 {
		t.Fatalf("expected mismatch warning")
	}
}

func TestVerifyPayment_Missing(t *testing.T) {
	st := memstore.New()
	createOrders(t, st, 1)
	svc := NewService(st, nil, nil, nil, Options{})

	ok, err := svc.VerifyPayment(context.Background(), 42)
	if ok || !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected false + NotFoundError, got %v %v", ok, err)
	}
	if got := orderStatus(t, st, 1); got != models.OrderStatusPending {
		t.Fatalf("order mutated: %s", got)
	}
}

func TestVerifyPayment_CommitFailureRollsBackBoth(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 1)
	svc := NewService(st, nil, nil, nil, Options{EnforceAmount: true})
	ctx := context.Background()

	p, err := svc.InitiatePayment(ctx, order.ID, dec("25.50"), "card")
	if err != nil {
		t.Fatal(err)
	}

	cause := errors.New("commit lost")
	st.FailCommit(cause)
	ok, err := svc.VerifyPayment(ctx, p.ID)
	st.FailCommit(nil)

	if ok || !errors.Is(err, apperr.ErrPersistence) || !errors.Is(err, cause) {
		t.Fatalf("expected PersistenceError wrapping cause, got %v %v", ok, err)
	}
	if got := paymentStatus(t, st, p.ID); got != models.PaymentStatusPending {
		t.Fatalf("payment status = %s after rollback", got)
	}
	if got := orderStatus(t, st, order.ID); got != models.OrderStatusPending {
		t.Fatalf("order status = %s after rollback", got)
	}
}

func TestVerifyPayment_OrderUpdateFailureRollsBackPayment(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 1)
	svc := NewService(st, nil, nil, nil, Options{EnforceAmount: true})
	ctx := context.Background()

	p, err := svc.InitiatePayment(ctx, order.ID, dec("25.50"), "card")
	if err != nil {
		t.Fatal(err)
	}

	st.FailOn("UpdateOrderStatus", errors.New("deadlock"))
	if _, err := svc.VerifyPayment(ctx, p.ID); !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	st.FailOn("UpdateOrderStatus", nil)

	if got := paymentStatus(t, st, p.ID); got != models.PaymentStatusPending {
		t.Fatalf("payment paid without its order")
	}
}

func TestVerifyPayment_OrphanStillPaid(t *testing.T) {
	st := memstore.New()
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(st, nil, nil, zap.New(core), Options{EnforceAmount: false})
	ctx := context.Background()

	p, err := svc.InitiatePayment(ctx, 77, dec("5.00"), "card")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	ok, err := svc.VerifyPayment(ctx, p.ID)
	if err != nil || !ok {
		t.Fatalf("verify orphan: ok=%v err=%v", ok, err)
	}
	if got := paymentStatus(t, st, p.ID); got != models.PaymentStatusPaid {
		t.Fatalf("orphan payment status = %s", got)
	}
	if logs.FilterMessage("verified payment has no order").Len() != 1 {
		t.Fatalf("expected orphan warning")
	}
}

func TestVerifyPayment_Twice(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 1)
	pub := &recordingPublisher{}
	svc := NewService(st, pub, nil, nil, Options{EnforceAmount: true})
	ctx := context.Background()

	p, _ := svc.InitiatePayment(ctx, order.ID, dec("25.50"), "card")
	for i := 0; i < 2; i++ {
		if ok, err := svc.VerifyPayment(ctx, p.ID); err != nil || !ok {
			t.Fatalf("verify #%d: ok=%v err=%v", i+1, ok, err)
		}
	}
	verified := 0
	for _, ev := range pub.events {
		if ev.Type == events.TypePaymentVerified {
			verified++
		}
	}
	if verified != 1 {
		t.Fatalf("expected one payment.verified event, got %d", verified)
	}
}

func TestMarkPaid_ReportsChange(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 1)
	svc := NewService(st, nil, nil, nil, Options{EnforceAmount: true})
	ctx := context.Background()

	p, _ := svc.InitiatePayment(ctx, order.ID, dec("25.50"), "card")
	changed, err := svc.MarkPaid(ctx, p.ID)
	if err != nil || !changed {
		t.Fatalf("first mark: changed=%v err=%v", changed, err)
	}
	changed, err = svc.MarkPaid(ctx, p.ID)
	if err != nil || changed {
		t.Fatalf("second mark: changed=%v err=%v", changed, err)
	}
	if ok, err := svc.VerifyPayment(ctx, p.ID); err != nil || !ok {
		t.Fatalf("verify after paid: ok=%v err=%v", ok, err)
	}
	if _, err := svc.MarkPaid(ctx, 42); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFailPayment(t *testing.T) {
	st := memstore.New()
	order := createOrders(t, st, 1)
	svc := NewService(st, nil, nil, nil, Options{EnforceAmount: true})
	ctx := context.Background()

	pending, _ := svc.InitiatePayment(ctx, order.ID, dec("25.50"), "card")
	ok, err := svc.FailPayment(ctx, pending.ID)
	if err != nil || !ok {
		t.Fatalf("fail pending: ok=%v err=%v", ok, err)
	}
	if got := paymentStatus(t, st, pending.ID); got != models.PaymentStatusFailed {
		t.Fatalf("payment status = %s", got)
	}
	if got := orderStatus(t, st, order.ID); got != models.OrderStatusPending {
		t.Fatalf("FailPayment touched the order: %s", got)
	}

	paid, _ := svc.InitiatePayment(ctx, order.ID, dec("25.50"), "card")
	if _, err := svc.VerifyPayment(ctx, paid.ID); err != nil {
		t.Fatal(err)
	}
	ok, err = svc.FailPayment(ctx, paid.ID)
	if err != nil || ok {
		t.Fatalf("paid payment must not be downgraded: ok=%v err=%v", ok, err)
	}
	if got := paymentStatus(t, st, paid.ID); got != models.PaymentStatusPaid {
		t.Fatalf("paid payment became %s", got)
	}

	if _, err := svc.FailPayment(ctx, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
