package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
)

// BindAndValidate binds the JSON body into out and runs validation. Failures
// come back as an apperr validation error naming the offending fields; the
// caller renders it.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		return apperr.Validation("invalid request body")
	}
	return Validate(out, v)
}

// Validate runs v over an already decoded request.
func Validate(out interface{}, v *validatorv10.Validate) error {
	if err := v.Struct(out); err != nil {
		return apperr.Validation("%s", describe(err))
	}
	return nil
}

func describe(err error) string {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validatorv10.FieldError) string {
	name := fe.Field()
	if name == "" {
		name = fe.StructField()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "max_decimals":
		return fmt.Sprintf("%s must have at most %s decimal places", name, fe.Param())
	case "provider_fields":
		return "provider_order_id, provider_payment_id and signature must be sent together"
	case "hexadecimal":
		return fmt.Sprintf("%s must be hexadecimal", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
