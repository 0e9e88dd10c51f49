package entity

import (
	"time"

	"github.com/google/uuid"
)

// FeeTransaction is the immutable fee split recorded when a booking's
// payment is authorized. Only Processed/ProcessedAt change afterwards.
type FeeTransaction struct {
	BaseSimple
	BookingID     uuid.UUID  `db:"booking_id"`
	Processor     string     `db:"processor"`
	TransactionID string     `db:"transaction_id"`
	Amount        int64      `db:"amount"`
	PlatformFee   int64      `db:"platform_fee"`
	HostPayout    int64      `db:"host_payout"`
	Processed     bool       `db:"processed"`
	ProcessedAt   *time.Time `db:"processed_at"`
}
