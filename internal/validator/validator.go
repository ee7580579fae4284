package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var paymentMethods = map[string]struct{}{
	"cash":    {},
	"vnpay":   {},
	"momo":    {},
	"zalopay": {},
	"paypal":  {},
	"stripe":  {},
}

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("payment_method", validatePaymentMethod)
	validator.RegisterValidation("order_status", validateOrderStatus)

	return validator
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	_, ok := paymentMethods[fl.Field().String()]
	return ok
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "PENDING", "SUCCESS", "FAILED", "REFUND":
		return true
	}
	return false
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "dive":
		return "contains an invalid element"
	case "payment_method":
		return "must be one of: cash, vnpay, momo, zalopay, paypal, stripe"
	case "order_status":
		return "must be one of: PENDING, SUCCESS, FAILED, REFUND"
	default:
		return "is invalid"
	}
}
