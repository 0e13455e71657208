package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByKind(t *testing.T) {
	err := NotFound("payment %d not found", 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("not_found must not match validation")
	}

	wrapped := fmt.Errorf("verify: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected wrapped error to match ErrNotFound")
	}
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence("could not place order", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via Unwrap")
	}
	if PublicMessage(err) != "could not place order" {
		t.Fatalf("public message leaked cause: %q", PublicMessage(err))
	}
	if err.Error() != "could not place order: connection reset" {
		t.Fatalf("unexpected Error(): %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{EmptyCart(1), http.StatusBadRequest},
		{Persistence("x", nil), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
	if PublicMessage(errors.New("pq: secret detail")) != "internal server error" {
		t.Fatalf("foreign errors must not be rendered")
	}
}
