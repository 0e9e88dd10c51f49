package middleware

import (
	"net/http"
	"strings"

	"github.com/dataweston/Dinewith/internal/data/repository"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthSession resolves "Authorization: Bearer <session token>" to the
// session's user and stores the Actor and raw token in the request context.
func AuthSession(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			token, err := uuid.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			session, err := sessionRepo.FindValidSession(r.Context(), token)
			if err != nil {
				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if session == nil {
				logger.Warn("Invalid or expired session", zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			// Role is read per request so a guest promoted to host is
			// recognised without logging in again
			user, err := userRepo.FindByID(r.Context(), session.UserID)
			if err != nil {
				logger.Error("Failed to load session user",
					zap.Error(err), zap.String("user_id", session.UserID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil || !user.IsActive {
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			ctx := utils.SetActorContext(r.Context(), utils.Actor{ID: user.ID, Role: string(user.Role)})
			ctx = utils.SetTokenContext(ctx, token.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
