package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-range input. It is always raised
// before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// IneligiblePromotionError carries the user-facing reason a manually entered
// promo code was refused (expired, minimum not met, already used, ...).
type IneligiblePromotionError struct {
	Code   string
	Reason string
}

func (e IneligiblePromotionError) Error() string {
	return fmt.Sprintf("promo %s ineligible: %s", e.Code, e.Reason)
}

func NewIneligiblePromotion(code, reason string) error {
	return IneligiblePromotionError{Code: code, Reason: reason}
}

func IsIneligiblePromotion(err error) bool {
	var v IneligiblePromotionError
	return errors.As(err, &v)
}

// InvalidTransitionError tells the caller the current vs. requested order state.
// The order is left untouched.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func NewInvalidTransition(from, to string) error {
	return InvalidTransitionError{From: from, To: to}
}

func IsInvalidTransition(err error) bool {
	var v InvalidTransitionError
	return errors.As(err, &v)
}

// ErrConflict is returned when a concurrent-write guard failed: the row no
// longer matches the precondition the caller assumed. Re-fetch and retry.
var ErrConflict = errors.New("conflicting concurrent update")

// ExternalServiceError wraps failures of routing or notification collaborators.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e ExternalServiceError) Unwrap() error { return e.Err }

func NewExternalService(service string, err error) error {
	return ExternalServiceError{Service: service, Err: err}
}

func IsExternalService(err error) bool {
	var v ExternalServiceError
	return errors.As(err, &v)
}
