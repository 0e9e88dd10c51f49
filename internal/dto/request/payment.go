package request

type AuthorizePaymentRequest struct {
	BookingID          string  `json:"booking_id" validate:"required,uuid4"`
	PaymentMethodToken string  `json:"payment_method_token" validate:"required"`
	Processor          string  `json:"processor,omitempty" validate:"omitempty,oneof=square braintree"`
	IdempotencyKey     *string `json:"idempotency_key,omitempty" validate:"omitempty,max=255"`
}

type CapturePaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid4"`
}
