package response

import "time"

type PaymentResponse struct {
	BookingID      string     `json:"booking_id"`
	Processor      string     `json:"processor"`
	TransactionID  string     `json:"transaction_id"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	Amount         int64      `json:"amount"`
	PlatformFee    int64      `json:"platform_fee"`
	HostPayout     int64      `json:"host_payout"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	AuthorizedAt   *time.Time `json:"authorized_at,omitempty"`
	CapturedAt     *time.Time `json:"captured_at,omitempty"`
}
