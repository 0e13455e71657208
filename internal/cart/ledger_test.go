package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/models"
	"github.com/imrishuroy/go-checkout-orderflow/internal/store/memstore"
)

func newLedger(t *testing.T) (*Ledger, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	if err := st.CreateProduct(context.Background(), &models.Product{ID: 1, Name: "A", Price: decimal.RequireFromString("10.00")}); err != nil {
		t.Fatal(err)
	}
	return NewLedger(st, nil), st
}

func TestAddIncrementsExistingLine(t *testing.T) {
	l, st := newLedger(t)
	ctx := context.Background()

	if _, err := l.Add(ctx, 1, 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	line, err := l.Add(ctx, 1, 1, 3)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if line.Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", line.Quantity)
	}
	if cart, _, _, _ := st.Snapshot(); len(cart) != 1 {
		t.Fatalf("expected one line per (user, product), got %d", len(cart))
	}
}

func TestAddRejects(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	if _, err := l.Add(ctx, 1, 99, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown product: expected NotFoundError, got %v", err)
	}
	if _, err := l.Add(ctx, 1, 1, 0); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("zero quantity: expected ValidationError, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	if _, err := l.Add(ctx, 1, 1, 1); err != nil {
		t.Fatal(err)
	}
	ok, err := l.Remove(ctx, 1, 1)
	if err != nil || !ok {
		t.Fatalf("remove: ok=%v err=%v", ok, err)
	}
	ok, err = l.Remove(ctx, 1, 1)
	if err != nil || ok {
		t.Fatalf("remove missing: ok=%v err=%v", ok, err)
	}
}

func TestView(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	items, err := l.View(ctx, 1)
	if err != nil || items == nil || len(items) != 0 {
		t.Fatalf("empty view: %v %v", items, err)
	}

	if _, err := l.Add(ctx, 1, 1, 2); err != nil {
		t.Fatal(err)
	}
	items, err = l.View(ctx, 1)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(items) != 1 || items[0].Name != "A" || items[0].Quantity != 2 || items[0].Price.StringFixed(2) != "10.00" {
		t.Fatalf("unexpected view: %+v", items)
	}
	if got := Total(items).StringFixed(2); got != "20.00" {
		t.Fatalf("total = %s, want 20.00", got)
	}
}
