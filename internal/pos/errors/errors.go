package errors

import (
	"errors"
	"fmt"
	"strings"
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	ok := errors.As(err, &validationError)
	return ok
}

func NewFieldValidationError(field, msg string) error {
	return &ValidationError{Msg: fmt.Sprintf("Validation error on field '%s': %s", field, msg)}
}

var ErrInvalidAmount = NewValidationError("Amount must be a positive number with at most two decimals")
var ErrUnknownPaymentMethod = NewValidationError("Unknown payment method")
var ErrMethodGivesNoChange = NewValidationError("Payment method cannot be used to give change")
var ErrChangeExceedsOwed = NewValidationError("Change payment exceeds the change owed to the customer")

type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	errorMessages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		errorMessages[i] = err.Error()
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(errorMessages, "; "))
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

func IsValidationErrors(err error) bool {
	var validationErrors *ValidationErrors
	ok := errors.As(err, &validationErrors)
	return ok
}
