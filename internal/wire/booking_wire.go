package wire

import (
	"github.com/dataweston/Dinewith/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, g guards) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(g.session)

		// Guest
		r.Post("/api/bookings", bookingHandler.CreateBooking)
		r.Get("/api/user/bookings", bookingHandler.GetGuestBookings)
		r.Get("/api/bookings/{id}", bookingHandler.GetBookingByID)

		// Host transitions; ownership is checked by the service
		r.Put("/api/bookings/{id}/accept", bookingHandler.AcceptBooking)
		r.Put("/api/bookings/{id}/decline", bookingHandler.DeclineBooking)
		r.Put("/api/bookings/{id}/complete", bookingHandler.CompleteBooking)
		r.Put("/api/bookings/{id}/no-show", bookingHandler.MarkNoShow)
	})

	// ==================== HOST ROUTES ====================
	r.With(g.session, g.can("payouts", "request")).Get("/api/host/bookings", bookingHandler.GetHostBookings)
}
