package usecase

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidState
	KindConflict
	KindProcessor
)

// AppError is a business rule failure the caller can act on. Everything
// else returned by a service is an internal error.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

var (
	ErrValidation         = newError(KindValidation, "VALIDATION_ERROR", "validation failed")
	ErrListingUnavailable = newError(KindValidation, "LISTING_UNAVAILABLE", "listing is not available for booking")
	ErrCapacityExceeded   = newError(KindValidation, "CAPACITY_EXCEEDED", "guest count exceeds listing capacity")
	ErrBelowMinimumPayout = newError(KindValidation, "BELOW_MINIMUM", "payout amount is below the minimum")
	ErrInsufficientFunds  = newError(KindValidation, "INSUFFICIENT_BALANCE", "payout amount exceeds available balance")
	ErrAlreadyReviewed    = newError(KindValidation, "ALREADY_REVIEWED", "booking has already been reviewed")
	ErrSlotOverlap        = newError(KindValidation, "SLOT_OVERLAP", "slot overlaps an existing slot")
	ErrSlotConflict       = newError(KindValidation, "SLOT_CONFLICT", "requested time overlaps an existing booking")

	ErrUnauthorized       = newError(KindUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrInvalidCredentials = newError(KindUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")

	ErrForbidden = newError(KindForbidden, "FORBIDDEN", "not allowed to perform this action")

	ErrNotFound           = newError(KindNotFound, "NOT_FOUND", "resource not found")
	ErrBookingNotFound    = newError(KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrListingNotFound    = newError(KindNotFound, "LISTING_NOT_FOUND", "listing not found")
	ErrHostNotFound       = newError(KindNotFound, "HOST_NOT_FOUND", "host profile not found")
	ErrSlotNotFound       = newError(KindNotFound, "SLOT_NOT_FOUND", "slot not found")
	ErrPayoutNotFound     = newError(KindNotFound, "PAYOUT_NOT_FOUND", "payout not found")
	ErrUserNotFound       = newError(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrPaymentNotRecorded = newError(KindNotFound, "PAYMENT_NOT_FOUND", "no payment recorded for booking")

	ErrInvalidState      = newError(KindInvalidState, "INVALID_STATE", "operation not allowed in current state")
	ErrPaymentInProgress = newError(KindInvalidState, "PAYMENT_IN_PROGRESS", "a payment attempt with this key is still in progress")
	ErrNoPaymentOnFile   = newError(KindInvalidState, "NO_PAYMENT", "booking has no authorized payment")

	ErrEmailTaken    = newError(KindConflict, "EMAIL_TAKEN", "email already registered")
	ErrUsernameTaken = newError(KindConflict, "USERNAME_TAKEN", "username already taken")
	ErrProfileExists = newError(KindConflict, "PROFILE_EXISTS", "host profile already exists")

	ErrProcessor = newError(KindProcessor, "PROCESSOR_ERROR", "payment processor error")
)

// wrapErr attaches detail to a sentinel while keeping it matchable with
// errors.Is and errors.As.
func wrapErr(sentinel *AppError, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// AsAppError finds the AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
