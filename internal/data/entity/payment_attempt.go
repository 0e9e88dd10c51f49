package entity

import (
	"github.com/google/uuid"
)

type PaymentAttemptStatus string

const (
	PaymentAttemptPending   PaymentAttemptStatus = "PENDING"
	PaymentAttemptSucceeded PaymentAttemptStatus = "SUCCEEDED"
	PaymentAttemptFailed    PaymentAttemptStatus = "FAILED"
)

// PaymentAttempt is written before any processor is called so an
// interrupted failover can be reconciled by its idempotency key.
type PaymentAttempt struct {
	BaseNoDelete
	BookingID      uuid.UUID            `db:"booking_id"`
	IdempotencyKey string               `db:"idempotency_key"`
	Amount         int64                `db:"amount"`
	Currency       string               `db:"currency"`
	Status         PaymentAttemptStatus `db:"status"`
	Processor      *string              `db:"processor"`
	TransactionID  *string              `db:"transaction_id"`
	ErrorMessage   *string              `db:"error_message"`
}
