package entity

import (
	"time"

	"github.com/google/uuid"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "PENDING"
	PayoutStatusProcessing PayoutStatus = "PROCESSING"
	PayoutStatusCompleted  PayoutStatus = "COMPLETED"
	PayoutStatusFailed     PayoutStatus = "FAILED"
)

// MinimumPayoutAmount is $10 in minor units.
const MinimumPayoutAmount int64 = 1000

type Payout struct {
	ID            uuid.UUID    `db:"id"`
	HostProfileID uuid.UUID    `db:"host_profile_id"`
	Amount        int64        `db:"amount"`
	Currency      string       `db:"currency"`
	Status        PayoutStatus `db:"status"`
	Notes         *string      `db:"notes"`
	TransferID    *string      `db:"transfer_id"`
	FailureReason *string      `db:"failure_reason"`
	RequestedAt   time.Time    `db:"requested_at"`
	ProcessedAt   *time.Time   `db:"processed_at"`
	CompletedAt   *time.Time   `db:"completed_at"`
}

// PayoutTotals aggregates a host's payouts by status.
type PayoutTotals struct {
	Completed int64
	Pending   int64
}
