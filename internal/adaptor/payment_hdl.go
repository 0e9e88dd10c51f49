package adaptor

import (
	"net/http"
	"strings"

	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/usecase"
	"github.com/dataweston/Dinewith/pkg/utils"

	"go.uber.org/zap"
)

// IdempotencyKeyHeader may carry the key instead of the request body.
const IdempotencyKeyHeader = "Idempotency-Key"

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// AuthorizePayment handles POST /api/payments/authorize
func (h *PaymentHandler) AuthorizePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.AuthorizePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Body key wins over the header
	if req.IdempotencyKey == nil {
		if key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)); key != "" {
			req.IdempotencyKey = &key
		}
	}

	payment, err := h.service.AuthorizePayment(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "authorize payment")
		return
	}

	utils.ResponseSuccess(w, "Payment authorized", payment)
}

// CapturePayment handles POST /api/payments/capture
func (h *PaymentHandler) CapturePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.CapturePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.service.CapturePayment(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "capture payment")
		return
	}

	utils.ResponseSuccess(w, "Payment captured", payment)
}
