package adaptor

import (
	"context"
	"net/http"

	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/dto/response"
	"github.com/dataweston/Dinewith/internal/usecase"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ListingHandler struct {
	service usecase.ListingService
	log     *zap.Logger
}

func NewListingHandler(service usecase.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log.With(zap.String("handler", "listing")),
	}
}

// ==================== PUBLIC ====================

// GetListing handles GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get listing")
		return
	}

	utils.ResponseSuccess(w, "success", listing)
}

// GetListingBySlug handles GET /api/listings/slug/{slug}
func (h *ListingHandler) GetListingBySlug(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.GetListingBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, h.log, err, "get listing by slug")
		return
	}

	utils.ResponseSuccess(w, "success", listing)
}

// ListAvailableSlots handles GET /api/listings/{id}/slots
func (h *ListingHandler) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.service.ListAvailableSlots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "list available slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}

// ==================== HOST ====================

// GetOrCreateHostProfile handles POST /api/host/profile
func (h *ListingHandler) GetOrCreateHostProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.HostProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.service.GetOrCreateHostProfile(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "get or create host profile")
		return
	}

	utils.ResponseSuccess(w, "Host profile ready", profile)
}

// CreateListing handles POST /api/host/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.CreateListingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	listing, err := h.service.CreateListing(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create listing")
		return
	}

	utils.ResponseCreated(w, "Listing created", listing)
}

// UpdateListing handles PUT /api/host/listings/{id}
func (h *ListingHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.UpdateListingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	listing, err := h.service.UpdateListing(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update listing")
		return
	}

	utils.ResponseSuccess(w, "Listing updated", listing)
}

// SubmitListing handles PUT /api/host/listings/{id}/submit
func (h *ListingHandler) SubmitListing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.SubmitListing, "submit listing", "Listing submitted for review")
}

// PauseListing handles PUT /api/host/listings/{id}/pause
func (h *ListingHandler) PauseListing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.PauseListing, "pause listing", "Listing paused")
}

// ResumeListing handles PUT /api/host/listings/{id}/resume
func (h *ListingHandler) ResumeListing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ResumeListing, "resume listing", "Listing resumed")
}

// ApproveListing handles PUT /api/mod/listings/{id}/approve
func (h *ListingHandler) ApproveListing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ApproveListing, "approve listing", "Listing approved")
}

// GetHostListings handles GET /api/host/listings
func (h *ListingHandler) GetHostListings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	listings, err := h.service.GetHostListings(r.Context(), actor)
	if err != nil {
		handleServiceError(w, h.log, err, "get host listings")
		return
	}

	utils.ResponseSuccess(w, "success", listings)
}

// CreateSlot handles POST /api/host/listings/{id}/slots
func (h *ListingHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.CreateSlotRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	slot, err := h.service.CreateSlot(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create slot")
		return
	}

	utils.ResponseCreated(w, "Slot created", slot)
}

// GetListingSlots handles GET /api/host/listings/{id}/slots
func (h *ListingHandler) GetListingSlots(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	slots, err := h.service.GetListingSlots(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get listing slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}

// DeleteSlot handles DELETE /api/host/slots/{id}
func (h *ListingHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteSlot(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete slot")
		return
	}

	utils.ResponseSuccess(w, "Slot deleted", nil)
}

// ==================== MODERATION ====================

// GetListingsForModeration handles GET /api/mod/listings?status=SUBMITTED
func (h *ListingHandler) GetListingsForModeration(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := request.ListingStatusFilter{
		Status:           r.URL.Query().Get("status"),
		PaginatedRequest: paginationFrom(r),
	}
	if validationErrors := utils.ValidateStruct(&req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	listings, err := h.service.GetListingsForModeration(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "get listings for moderation")
		return
	}

	utils.ResponseSuccess(w, "success", listings)
}

// RejectListing handles PUT /api/mod/listings/{id}/reject
func (h *ListingHandler) RejectListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.RejectListingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	listing, err := h.service.RejectListing(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "reject listing")
		return
	}

	utils.ResponseSuccess(w, "Listing rejected", listing)
}

type listingTransition func(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error)

// transition runs a body-less status change on the listing in the path.
func (h *ListingHandler) transition(w http.ResponseWriter, r *http.Request, apply listingTransition, operation, message string) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	listing, err := apply(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, operation)
		return
	}

	utils.ResponseSuccess(w, message, listing)
}
