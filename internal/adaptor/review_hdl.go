package adaptor

import (
	"net/http"

	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/usecase"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// CreateReview handles POST /api/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.CreateReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.service.CreateReview(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create review")
		return
	}

	utils.ResponseCreated(w, "Review submitted", review)
}

// CanReviewBooking handles GET /api/bookings/{id}/can-review
func (h *ReviewHandler) CanReviewBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.service.CanReviewBooking(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "check review eligibility")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// GetListingReviews handles GET /api/listings/{id}/reviews
func (h *ReviewHandler) GetListingReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetListingReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get listing reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// GetHostReviews handles GET /api/hosts/{id}/reviews
func (h *ReviewHandler) GetHostReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.GetHostReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get host reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}
