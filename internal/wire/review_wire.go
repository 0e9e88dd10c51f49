package wire

import (
	"github.com/dataweston/Dinewith/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireReview(r chi.Router, reviewHandler *adaptor.ReviewHandler, g guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/listings/{id}/reviews", reviewHandler.GetListingReviews)
	r.Get("/api/hosts/{id}/reviews", reviewHandler.GetHostReviews)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.session)

		r.Post("/api/reviews", reviewHandler.CreateReview)
		r.Get("/api/bookings/{id}/can-review", reviewHandler.CanReviewBooking)
	})
}
