package request

type RequestPayoutRequest struct {
	Amount int64   `json:"amount" validate:"required,gt=0"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ProcessPayoutRequest struct {
	TransferID string `json:"transfer_id" validate:"required,max=255"`
}

type FailPayoutRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type PayoutStatusFilter struct {
	Status string `json:"status" validate:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED"`
	PaginatedRequest
}
