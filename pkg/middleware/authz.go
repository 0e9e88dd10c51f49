package middleware

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"go.uber.org/zap"
)

//go:embed rbac_model.conf
var rbacModel string

//go:embed rbac_policy.csv
var rbacPolicy string

// NewEnforcer builds the role enforcer from the embedded model and policy.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(rbacPolicy))
	if err != nil {
		return nil, fmt.Errorf("load rbac policy: %w", err)
	}
	return e, nil
}

// Authorize checks the actor's role against obj/act. It must run after
// AuthSession.
func Authorize(enforcer *casbin.Enforcer, obj, act string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := utils.GetActorFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			allowed, err := enforcer.Enforce(actor.Role, obj, act)
			if err != nil {
				logger.Error("Authorization check failed",
					zap.Error(err),
					zap.String("role", actor.Role),
					zap.String("object", obj),
					zap.String("action", act),
				)
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if !allowed {
				logger.Warn("Access denied",
					zap.String("user_id", actor.ID.String()),
					zap.String("role", actor.Role),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "You do not have access to this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
