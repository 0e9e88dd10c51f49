// internal/wire/wire.go
package wire

import (
	"fmt"
	"net/http"

	"github.com/dataweston/Dinewith/internal/adaptor"
	"github.com/dataweston/Dinewith/internal/data/repository"
	"github.com/dataweston/Dinewith/internal/usecase"
	"github.com/dataweston/Dinewith/pkg/cache"
	"github.com/dataweston/Dinewith/pkg/middleware"
	"github.com/dataweston/Dinewith/pkg/notify"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/casbin/casbin/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired router and the services behind it
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Deps are the infrastructure clients built by the serve command
type Deps struct {
	Gateway      usecase.PaymentGateway
	Notifier     notify.Notifier
	ListingCache cache.ListingCache
}

// guards builds the per-route auth middleware
type guards struct {
	session  func(http.Handler) http.Handler
	enforcer *casbin.Enforcer
	log      *zap.Logger
}

// can requires the session role to hold obj:act in the RBAC policy.
func (g guards) can(obj, act string) func(http.Handler) http.Handler {
	return middleware.Authorize(g.enforcer, obj, act, g.log)
}

// Wiring initializes services, handlers and routes
func Wiring(repo *repository.Repository, deps Deps, config *utils.Config, logger *zap.Logger) (*App, error) {
	enforcer, err := middleware.NewEnforcer()
	if err != nil {
		return nil, fmt.Errorf("init rbac enforcer: %w", err)
	}

	service := usecase.NewService(repo, deps.Gateway, deps.Notifier, deps.ListingCache, config, logger)
	handler := adaptor.NewHandler(service, logger)

	g := guards{
		session:  middleware.AuthSession(repo.Session, repo.User, logger),
		enforcer: enforcer,
		log:      logger,
	}
	router := setupRouter(handler, g, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}, nil
}

// setupRouter configures the chi router
func setupRouter(
	handler *adaptor.Handler,
	g guards,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	// Apply routes
	wireAuth(r, handler.Auth, g)
	wireUser(r, handler.User, g)
	wireListing(r, handler.Listing, g)
	wireBooking(r, handler.Booking, g)
	wirePayment(r, handler.Payment, g)
	wirePayout(r, handler.Payout, g)
	wireReview(r, handler.Review, g)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseJSON(w, http.StatusMethodNotAllowed, false, "Method not allowed", nil, nil)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
