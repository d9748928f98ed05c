package usecase

import (
	"errors"

	"marketplace-booking/pkg/utils"
)

var (
	ErrInvalidBookingID         = errors.New("invalid booking id")
	ErrBookingNotFound          = errors.New("booking not found")
	ErrResourceNotFound         = errors.New("listing not found")
	ErrUnitNoLongerAvailable    = errors.New("unit no longer available")
	ErrReservationExpired       = errors.New("reservation is no longer pending")
	ErrPaymentInitFailed        = errors.New("payment initialization failed")
	ErrPaymentMethodUnavailable = errors.New("payment method not available for this booking")
	ErrDraftNotFound            = errors.New("draft not found")
	ErrInvalidStep              = errors.New("step not allowed from the current draft state")
	ErrSubmitInProgress         = errors.New("submission already in progress")
	ErrInvalidSignature         = errors.New("invalid webhook signature")
)

// ValidationError carries per-field messages for a rejected step or query.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + utils.FormatValidationErrors(e.Fields)
}

func newValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
