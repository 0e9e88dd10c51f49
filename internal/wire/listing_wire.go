package wire

import (
	"github.com/dataweston/Dinewith/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireListing(r chi.Router, listingHandler *adaptor.ListingHandler, g guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/listings/{id}", listingHandler.GetListing)
	r.Get("/api/listings/slug/{slug}", listingHandler.GetListingBySlug)
	r.Get("/api/listings/{id}/slots", listingHandler.ListAvailableSlots)

	// ==================== HOST ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.session)

		// Any signed-in user can become a host
		r.Post("/api/host/profile", listingHandler.GetOrCreateHostProfile)

		r.Group(func(r chi.Router) {
			r.Use(g.can("listings", "manage"))

			r.Get("/api/host/listings", listingHandler.GetHostListings)
			r.Post("/api/host/listings", listingHandler.CreateListing)
			r.Put("/api/host/listings/{id}", listingHandler.UpdateListing)
			r.Put("/api/host/listings/{id}/submit", listingHandler.SubmitListing)
			r.Put("/api/host/listings/{id}/pause", listingHandler.PauseListing)
			r.Put("/api/host/listings/{id}/resume", listingHandler.ResumeListing)

			// Availability
			r.Get("/api/host/listings/{id}/slots", listingHandler.GetListingSlots)
			r.Post("/api/host/listings/{id}/slots", listingHandler.CreateSlot)
			r.Delete("/api/host/slots/{id}", listingHandler.DeleteSlot)
		})
	})

	// ==================== MODERATION ROUTES ====================
	r.Route("/api/mod/listings", func(r chi.Router) {
		r.Use(g.session)
		r.Use(g.can("listings", "moderate"))

		r.Get("/", listingHandler.GetListingsForModeration)
		r.Put("/{id}/approve", listingHandler.ApproveListing)
		r.Put("/{id}/reject", listingHandler.RejectListing)
	})
}
