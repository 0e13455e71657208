// Package provider checks that payment confirmations really come from the
// payment provider before they reach the reconciler.
package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrMissingSignature = errors.New("payment signature fields are required")
)

// RazorpayVerifier checks checkout signatures: hex HMAC-SHA256 of
// "<provider_order_id>|<provider_payment_id>" keyed with the API key secret.
type RazorpayVerifier struct {
	secret []byte
}

func NewRazorpayVerifier(secret string) *RazorpayVerifier {
	return &RazorpayVerifier{secret: []byte(secret)}
}

// Enabled is false when no key secret is configured; Verify then accepts everything.
func (v *RazorpayVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

func (v *RazorpayVerifier) Verify(providerOrderID, providerPaymentID, signature string) error {
	if !v.Enabled() {
		return nil
	}
	if providerOrderID == "" || providerPaymentID == "" || signature == "" {
		return ErrMissingSignature
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(got, v.mac(providerOrderID, providerPaymentID)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the signature the provider would send.
func (v *RazorpayVerifier) Sign(providerOrderID, providerPaymentID string) string {
	return hex.EncodeToString(v.mac(providerOrderID, providerPaymentID))
}

func (v *RazorpayVerifier) mac(orderID, paymentID string) []byte {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(orderID + "|" + paymentID))
	return h.Sum(nil)
}
