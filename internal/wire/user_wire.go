package wire

import (
	"github.com/dataweston/Dinewith/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireUser(r chi.Router, userHandler *adaptor.UserHandler, g guards) {
	// GET /api/user/profile - current user's profile
	r.With(g.session).Get("/api/user/profile", userHandler.GetProfile)
}
