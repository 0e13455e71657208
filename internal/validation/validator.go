package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// report json names so messages match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(initiatePaymentStructValidation, InitiatePaymentRequest{})
	v.RegisterStructValidation(verifyPaymentStructValidation, VerifyPaymentRequest{})

	return v
}

// initiatePaymentStructValidation requires a positive amount with at most 2 decimals.
func initiatePaymentStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(InitiatePaymentRequest)

	if !req.Amount.IsPositive() {
		sl.ReportError(req.Amount, "amount", "Amount", "gt", "0")
		return
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		sl.ReportError(req.Amount, "amount", "Amount", "max_decimals", "2")
	}
}

func verifyPaymentStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(VerifyPaymentRequest)

	set := 0
	for _, f := range []string{req.ProviderOrderID, req.ProviderPaymentID, req.Signature} {
		if f != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		sl.ReportError(req.Signature, "signature", "Signature", "provider_fields", "")
	}
}
