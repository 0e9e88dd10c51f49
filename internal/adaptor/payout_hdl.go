package adaptor

import (
	"net/http"

	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/usecase"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PayoutHandler struct {
	service usecase.PayoutService
	log     *zap.Logger
}

func NewPayoutHandler(service usecase.PayoutService, log *zap.Logger) *PayoutHandler {
	return &PayoutHandler{
		service: service,
		log:     log.With(zap.String("handler", "payout")),
	}
}

// ==================== HOST ====================

// GetHostEarnings handles GET /api/host/earnings
func (h *PayoutHandler) GetHostEarnings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	earnings, err := h.service.GetHostEarnings(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.log, err, "get host earnings")
		return
	}

	utils.ResponseSuccess(w, "success", earnings)
}

// RequestPayout handles POST /api/host/payouts
func (h *PayoutHandler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.RequestPayoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payout, err := h.service.RequestPayout(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "request payout")
		return
	}

	utils.ResponseCreated(w, "Payout requested", payout)
}

// GetHostPayouts handles GET /api/host/payouts
func (h *PayoutHandler) GetHostPayouts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	payouts, err := h.service.GetHostPayouts(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.log, err, "get host payouts")
		return
	}

	utils.ResponseSuccess(w, "success", payouts)
}

// ==================== ADMIN ====================

// ListPayouts handles GET /api/admin/payouts?status=PENDING
func (h *PayoutHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := request.PayoutStatusFilter{
		Status:           r.URL.Query().Get("status"),
		PaginatedRequest: paginationFrom(r),
	}
	if validationErrors := utils.ValidateStruct(&req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	payouts, err := h.service.ListPayouts(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list payouts")
		return
	}

	utils.ResponseSuccess(w, "success", payouts)
}

// StartPayout handles PUT /api/admin/payouts/{id}/start
func (h *PayoutHandler) StartPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	payout, err := h.service.StartPayout(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "start payout")
		return
	}

	utils.ResponseSuccess(w, "Payout processing", payout)
}

// ProcessPayout handles PUT /api/admin/payouts/{id}/process
func (h *PayoutHandler) ProcessPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.ProcessPayoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payout, err := h.service.ProcessPayout(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "process payout")
		return
	}

	utils.ResponseSuccess(w, "Payout completed", payout)
}

// FailPayout handles PUT /api/admin/payouts/{id}/fail
func (h *PayoutHandler) FailPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.FailPayoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payout, err := h.service.FailPayout(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "fail payout")
		return
	}

	utils.ResponseSuccess(w, "Payout marked as failed", payout)
}
