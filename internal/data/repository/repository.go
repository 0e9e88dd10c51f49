package repository

import (
	"github.com/dataweston/Dinewith/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Tx             database.Transactor
	User           UserRepository
	Session        SessionRepository
	HostProfile    HostProfileRepository
	Listing        ListingRepository
	Availability   AvailabilityRepository
	Booking        BookingRepository
	FeeTransaction FeeTransactionRepository
	PaymentAttempt PaymentAttemptRepository
	Payout         PayoutRepository
	Review         ReviewRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:             database.NewTransactor(db),
		User:           NewUserRepository(db, log),
		Session:        NewSessionRepository(db, log),
		HostProfile:    NewHostProfileRepository(db, log),
		Listing:        NewListingRepository(db, log),
		Availability:   NewAvailabilityRepository(db, log),
		Booking:        NewBookingRepository(db, log),
		FeeTransaction: NewFeeTransactionRepository(db, log),
		PaymentAttempt: NewPaymentAttemptRepository(db, log),
		Payout:         NewPayoutRepository(db, log),
		Review:         NewReviewRepository(db, log),
	}
}
