package adaptor

import (
	"github.com/dataweston/Dinewith/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Listing *ListingHandler
	Booking *BookingHandler
	Payment *PaymentHandler
	Payout  *PayoutHandler
	Review  *ReviewHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		User:    NewUserHandler(service.User, log),
		Listing: NewListingHandler(service.Listing, log),
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
		Payout:  NewPayoutHandler(service.Payout, log),
		Review:  NewReviewHandler(service.Review, log),
	}
}
