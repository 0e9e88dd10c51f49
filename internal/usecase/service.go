package usecase

import (
	"context"
	"time"

	"github.com/dataweston/Dinewith/internal/data/repository"
	"github.com/dataweston/Dinewith/internal/payment"
	"github.com/dataweston/Dinewith/pkg/cache"
	"github.com/dataweston/Dinewith/pkg/notify"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway authorizes with failover and settles on a named processor.
type PaymentGateway interface {
	Authorize(ctx context.Context, req payment.AuthorizeRequest, preferred string) (*payment.Result, error)
	Capture(ctx context.Context, processor, transactionID string) (*payment.Result, error)
	Void(ctx context.Context, processor, transactionID string) (*payment.Result, error)
}

type Service struct {
	Auth    AuthService
	User    UserService
	Listing ListingService
	Booking BookingService
	Payment PaymentService
	Payout  PayoutService
	Review  ReviewService
}

func NewService(
	repo *repository.Repository,
	gateway PaymentGateway,
	notifier notify.Notifier,
	listingCache cache.ListingCache,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	if listingCache == nil {
		listingCache = cache.NoopCache{}
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}

	mail := &mailer{users: repo.User, notifier: notifier, log: log.With(zap.String("component", "mailer"))}
	settle := &capturer{repo: repo, gateway: gateway, cache: listingCache, log: log.With(zap.String("component", "capture"))}

	return &Service{
		Auth:    NewAuthService(repo, config, log),
		User:    NewUserService(repo.User, log),
		Listing: NewListingService(repo, listingCache, log),
		Booking: NewBookingService(repo, settle, mail, log),
		Payment: NewPaymentService(repo, gateway, settle, config, log),
		Payout:  NewPayoutService(repo, mail, config, log),
		Review:  NewReviewService(repo, log),
	}
}

const notifyTimeout = 30 * time.Second

// mailer delivers best-effort notifications in the background. Failures
// are logged and never reach the caller.
type mailer struct {
	users    repository.UserRepository
	notifier notify.Notifier
	log      *zap.Logger
}

func (m *mailer) sendTo(userID uuid.UUID, build func(to string) notify.Message) {
	if m == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		user, err := m.users.FindByID(ctx, userID)
		if err != nil || user == nil {
			m.log.Warn("Notification recipient not found", zap.Error(err), zap.String("user_id", userID.String()))
			return
		}

		msg := build(user.Email)
		if err := m.notifier.Send(ctx, msg); err != nil {
			m.log.Warn("Failed to send notification",
				zap.Error(err),
				zap.String("user_id", userID.String()),
				zap.String("subject", msg.Subject),
			)
		}
	}()
}
