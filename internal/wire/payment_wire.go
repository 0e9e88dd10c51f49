package wire

import (
	"github.com/dataweston/Dinewith/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, g guards) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Use(g.session)

		// POST /api/payments/authorize - guest authorizes an accepted booking
		r.Post("/authorize", paymentHandler.AuthorizePayment)

		// POST /api/payments/capture - host or admin settles an authorization
		r.Post("/capture", paymentHandler.CapturePayment)
	})
}
