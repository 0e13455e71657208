package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
)

func TestInitiatePaymentRequest_Valid(t *testing.T) {
	v := New()

	req := InitiatePaymentRequest{OrderID: 7, Amount: decimal.RequireFromString("25.50"), Mode: "card"}
	if err := Validate(&req, v); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestInitiatePaymentRequest_Invalid(t *testing.T) {
	v := New()

	tests := []struct {
		name string
		req  InitiatePaymentRequest
		want string
	}{
		{"zero amount", InitiatePaymentRequest{OrderID: 7}, "amount must be greater than 0"},
		{"negative amount", InitiatePaymentRequest{OrderID: 7, Amount: decimal.RequireFromString("-3")}, "amount must be greater than 0"},
		{"three decimals", InitiatePaymentRequest{OrderID: 7, Amount: decimal.RequireFromString("1.999")}, "amount must have at most 2 decimal places"},
		{"missing order", InitiatePaymentRequest{Amount: decimal.RequireFromString("1.00")}, "order_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.req, v)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("message %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestVerifyPaymentRequest_ProviderFieldsTogether(t *testing.T) {
	v := New()

	if err := Validate(&VerifyPaymentRequest{PaymentID: 1}, v); err != nil {
		t.Fatalf("plain verify should pass: %v", err)
	}
	full := VerifyPaymentRequest{PaymentID: 1, ProviderOrderID: "order_1", ProviderPaymentID: "pay_1", Signature: "abcdef"}
	if err := Validate(&full, v); err != nil {
		t.Fatalf("full provider fields should pass: %v", err)
	}
	partial := VerifyPaymentRequest{PaymentID: 1, ProviderOrderID: "order_1"}
	if err := Validate(&partial, v); err == nil {
		t.Fatal("expected error for partial provider fields")
	}
}

func TestBindAndValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"user_id": 3}`, false},
		{"missing user", `{}`, true},
		{"malformed json", `{"user_id":`, true},
		{"wrong type", `{"user_id":"three"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req PlaceOrderRequest
			err := BindAndValidate(c, &req, v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation kind, got %v", err)
			}
			if w.Body.Len() != 0 {
				t.Fatalf("BindAndValidate must not write the response")
			}
		})
	}
}

func TestAmountAcceptsStringOrNumber(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	for _, body := range []string{`{"order_id":7,"amount":25.5}`, `{"order_id":7,"amount":"25.50"}`} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))

		var req InitiatePaymentRequest
		if err := BindAndValidate(c, &req, v); err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if !req.Amount.Equal(decimal.RequireFromString("25.50")) {
			t.Fatalf("%s: amount = %s", body, req.Amount)
		}
	}
}
