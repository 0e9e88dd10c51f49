package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/usecase"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// ==================== GUEST ====================

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.service.CreateBookingRequest(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking requested", booking)
}

// GetGuestBookings handles GET /api/user/bookings
func (h *BookingHandler) GetGuestBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := paginationFrom(r)
	bookings, err := h.service.GetGuestBookings(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "get guest bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBookingByID handles GET /api/bookings/{id}
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	booking, err := h.service.GetBookingByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// ==================== HOST ====================

// GetHostBookings handles GET /api/host/bookings
func (h *BookingHandler) GetHostBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	req := paginationFrom(r)
	bookings, err := h.service.GetHostBookings(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "get host bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// AcceptBooking handles PUT /api/bookings/{id}/accept
func (h *BookingHandler) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	booking, err := h.service.AcceptBooking(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "accept booking")
		return
	}

	utils.ResponseSuccess(w, "Booking accepted", booking)
}

// DeclineBooking handles PUT /api/bookings/{id}/decline. The body with a
// reason is optional.
func (h *BookingHandler) DeclineBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req request.DeclineBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.DeclineBookingRequest(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "decline booking")
		return
	}

	utils.ResponseSuccess(w, "Booking declined", booking)
}

// CompleteBooking handles PUT /api/bookings/{id}/complete
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	booking, err := h.service.CompleteBooking(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "complete booking")
		return
	}

	utils.ResponseSuccess(w, "Booking completed", booking)
}

// MarkNoShow handles PUT /api/bookings/{id}/no-show
func (h *BookingHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	booking, err := h.service.MarkNoShow(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "mark no-show")
		return
	}

	utils.ResponseSuccess(w, "Booking marked as no-show", booking)
}
