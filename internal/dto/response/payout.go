package response

import (
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
)

type PayoutResponse struct {
	ID            string              `json:"id"`
	HostProfileID string              `json:"host_profile_id"`
	Amount        int64               `json:"amount"`
	Currency      string              `json:"currency"`
	Status        entity.PayoutStatus `json:"status"`
	Notes         *string             `json:"notes,omitempty"`
	TransferID    *string             `json:"transfer_id,omitempty"`
	FailureReason *string             `json:"failure_reason,omitempty"`
	RequestedAt   time.Time           `json:"requested_at"`
	ProcessedAt   *time.Time          `json:"processed_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

type EarningsResponse struct {
	TotalEarnings    int64             `json:"total_earnings"`
	TotalPaidOut     int64             `json:"total_paid_out"`
	PendingPayouts   int64             `json:"pending_payouts"`
	AvailableBalance int64             `json:"available_balance"`
	Currency         string            `json:"currency"`
	RecentBookings   []BookingResponse `json:"recent_bookings"`
	RecentPayouts    []PayoutResponse  `json:"recent_payouts"`
}

// Helper converters
func PayoutToResponse(p *entity.Payout) PayoutResponse {
	return PayoutResponse{
		ID:            p.ID.String(),
		HostProfileID: p.HostProfileID.String(),
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        p.Status,
		Notes:         p.Notes,
		TransferID:    p.TransferID,
		FailureReason: p.FailureReason,
		RequestedAt:   p.RequestedAt,
		ProcessedAt:   p.ProcessedAt,
		CompletedAt:   p.CompletedAt,
	}
}
