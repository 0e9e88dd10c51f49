package wire

import (
	"github.com/dataweston/Dinewith/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayout(r chi.Router, payoutHandler *adaptor.PayoutHandler, g guards) {
	// ==================== HOST ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(g.session)
		r.Use(g.can("payouts", "request"))

		r.Get("/api/host/earnings", payoutHandler.GetHostEarnings)
		r.Get("/api/host/payouts", payoutHandler.GetHostPayouts)
		r.Post("/api/host/payouts", payoutHandler.RequestPayout)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/payouts", func(r chi.Router) {
		r.Use(g.session)
		r.Use(g.can("payouts", "process"))

		r.Get("/", payoutHandler.ListPayouts)
		r.Put("/{id}/start", payoutHandler.StartPayout)
		r.Put("/{id}/process", payoutHandler.ProcessPayout)
		r.Put("/{id}/fail", payoutHandler.FailPayout)
	})
}
