package wire

import (
	"github.com/dataweston/Dinewith/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, g guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// ==================== PROTECTED ROUTES ====================
	r.With(g.session).Post("/api/logout", authHandler.Logout)
}
