package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/internal/data/repository"
	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/dto/response"
	"github.com/dataweston/Dinewith/pkg/notify"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Guest
	CreateBookingRequest(ctx context.Context, actor utils.Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetGuestBookings(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBookingByID(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)

	// Host
	AcceptBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	DeclineBookingRequest(ctx context.Context, actor utils.Actor, bookingID string, req *request.DeclineBookingRequest) (*response.BookingResponse, error)
	CompleteBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	MarkNoShow(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error)
	GetHostBookings(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

type bookingService struct {
	repo    *repository.Repository
	capture *capturer
	mail    *mailer
	log     *zap.Logger
}

func NewBookingService(repo *repository.Repository, capture *capturer, mail *mailer, log *zap.Logger) BookingService {
	return &bookingService{
		repo:    repo,
		capture: capture,
		mail:    mail,
		log:     log.With(zap.String("service", "booking")),
	}
}

// CreateBookingRequest runs the conflict check and the insert in one
// serializable transaction holding the listing row.
func (s *bookingService) CreateBookingRequest(ctx context.Context, actor utils.Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}
	window := entity.Window{Start: req.ScheduledStart, End: req.ScheduledEnd}
	if !window.Valid() {
		return nil, wrapErr(ErrValidation, "scheduled end must be after scheduled start")
	}
	if req.GuestCount < 1 {
		return nil, wrapErr(ErrValidation, "guest count must be at least 1")
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid listing ID %q", req.ListingID)
	}

	var (
		booking *entity.Booking
		listing *entity.Listing
	)
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		// 2. Lock the listing and check it can take the booking
		locked, err := s.repo.Listing.FindByIDForUpdate(ctx, listingID)
		if err != nil {
			return err
		}
		listing = locked
		if listing == nil || listing.Status != entity.ListingStatusActive {
			return ErrListingUnavailable
		}
		if req.GuestCount > listing.MaxGuests {
			return wrapErr(ErrCapacityExceeded, "%d guests requested, listing takes %d", req.GuestCount, listing.MaxGuests)
		}

		// 3. Check overlap with live bookings
		conflict, err := s.repo.Booking.HasConflict(ctx, listingID, window)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotConflict
		}

		// 4. Price and insert
		pricing := entity.CalculatePricing(listing.PriceAmount, req.GuestCount)
		now := time.Now()
		booking = &entity.Booking{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ListingID:      listingID,
			GuestID:        actor.ID,
			ScheduledStart: window.Start,
			ScheduledEnd:   window.End,
			GuestCount:     req.GuestCount,
			GuestNotes:     req.GuestNotes,
			TotalAmount:    pricing.TotalAmount,
			PlatformFee:    pricing.PlatformFee,
			HostAmount:     pricing.HostAmount,
			Currency:       listing.PriceCurrency,
			Status:         entity.BookingStatusRequested,
		}
		return s.repo.Booking.Create(ctx, booking)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrSlotConflict
		}
		if _, ok := AsAppError(err); ok {
			s.log.Info("Booking request rejected",
				zap.Error(err),
				zap.String("listing_id", req.ListingID),
				zap.String("guest_id", actor.ID.String()),
			)
			return nil, err
		}
		s.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("listing_id", req.ListingID),
			zap.String("guest_id", actor.ID.String()),
		)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking requested",
		zap.String("booking_id", booking.ID.String()),
		zap.String("listing_id", req.ListingID),
		zap.String("guest_id", actor.ID.String()),
		zap.Int("guest_count", booking.GuestCount),
		zap.Int64("total_amount", booking.TotalAmount),
	)

	s.notifyHost(ctx, listing, booking)

	resp := response.BookingToResponse(booking)
	resp.ListingTitle = listing.Title
	resp.ListingSlug = listing.Slug
	return &resp, nil
}

func (s *bookingService) GetGuestBookings(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByGuestID(ctx, actor.ID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get guest bookings",
			zap.Error(err),
			zap.String("guest_id", actor.ID.String()),
			zap.Int("page", req.Page),
		)
		return nil, fmt.Errorf("get guest bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByGuestID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("count guest bookings: %w", err)
	}

	return response.NewPaginatedResponse(bookingsToResponse(bookings), req.Page, limit, total), nil
}

func (s *bookingService) GetHostBookings(ctx context.Context, actor utils.Actor, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	profile, err := s.repo.HostProfile.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("find host profile: %w", err)
	}
	if profile == nil {
		return nil, ErrHostNotFound
	}

	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByHostProfileID(ctx, profile.ID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get host bookings", zap.Error(err), zap.String("host_profile_id", profile.ID.String()))
		return nil, fmt.Errorf("get host bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByHostProfileID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("count host bookings: %w", err)
	}

	return response.NewPaginatedResponse(bookingsToResponse(bookings), req.Page, limit, total), nil
}

// GetBookingByID is visible to the guest, the listing's host and admins.
func (s *bookingService) GetBookingByID(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.GuestID != actor.ID && !actor.HasRole(string(entity.RoleAdmin)) {
		isHost, err := s.isHostOf(ctx, actor, booking)
		if err != nil {
			return nil, err
		}
		if !isHost {
			return nil, ErrForbidden
		}
	}

	resp := response.BookingWithListingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) AcceptBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.hostBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(booking.Status, entity.BookingStatusAccepted) {
		return nil, wrapErr(ErrInvalidState, "cannot accept a %s booking", booking.Status)
	}

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.Booking.TransitionStatus(ctx, booking.ID,
			[]entity.BookingStatus{entity.BookingStatusRequested},
			entity.BookingStatusAccepted,
			entity.BookingUpdate{},
		)
		if err != nil {
			return err
		}
		if !ok {
			return wrapErr(ErrInvalidState, "booking is no longer requested")
		}
		_, err = s.repo.Availability.MarkBookedInWindow(ctx, booking.ListingID, booking.Window())
		return err
	})
	if err != nil {
		return nil, s.transitionFailed(err, booking, entity.BookingStatusAccepted)
	}

	booking.Status = entity.BookingStatusAccepted
	booking.UpdatedAt = time.Now()

	s.log.Info("Booking accepted", zap.String("booking_id", bookingID), zap.String("host_id", actor.ID.String()))

	title, start := booking.ListingTitle, booking.ScheduledStart
	s.mail.sendTo(booking.GuestID, func(to string) notify.Message {
		return notify.BookingAccepted(to, title, start)
	})

	resp := response.BookingWithListingToResponse(booking)
	return &resp, nil
}

// DeclineBookingRequest cancels a booking the host will not honour and
// frees the slots it held that no other booking still holds.
func (s *bookingService) DeclineBookingRequest(ctx context.Context, actor utils.Actor, bookingID string, req *request.DeclineBookingRequest) (*response.BookingResponse, error) {
	if req == nil {
		req = &request.DeclineBookingRequest{}
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	booking, err := s.hostBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(booking.Status, entity.BookingStatusCanceled) {
		return nil, wrapErr(ErrInvalidState, "cannot decline a %s booking", booking.Status)
	}

	// Only an accepted booking marked slots. The status must still be the
	// one read above so the release decision holds.
	from := booking.Status
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.Booking.TransitionStatus(ctx, booking.ID,
			[]entity.BookingStatus{from},
			entity.BookingStatusCanceled,
			entity.BookingUpdate{CancelReason: req.Reason},
		)
		if err != nil {
			return err
		}
		if !ok {
			return wrapErr(ErrInvalidState, "booking can no longer be declined")
		}
		if from == entity.BookingStatusRequested {
			return nil
		}
		_, err = s.repo.Availability.ReleaseInWindow(ctx, booking.ListingID, booking.Window(), booking.ID)
		return err
	})
	if err != nil {
		return nil, s.transitionFailed(err, booking, entity.BookingStatusCanceled)
	}

	booking.Status = entity.BookingStatusCanceled
	booking.CancelReason = req.Reason
	booking.UpdatedAt = time.Now()

	s.log.Info("Booking declined", zap.String("booking_id", bookingID), zap.String("host_id", actor.ID.String()))

	title, reason := booking.ListingTitle, req.Reason
	s.mail.sendTo(booking.GuestID, func(to string) notify.Message {
		return notify.BookingDeclined(to, title, reason)
	})

	resp := response.BookingWithListingToResponse(booking)
	return &resp, nil
}

// CompleteBooking captures an authorized payment before completing. A
// booking accepted without payment on file completes directly.
func (s *bookingService) CompleteBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	return s.finish(ctx, actor, bookingID, entity.BookingStatusCompleted)
}

// MarkNoShow keeps the full authorized amount for the host.
func (s *bookingService) MarkNoShow(ctx context.Context, actor utils.Actor, bookingID string) (*response.BookingResponse, error) {
	return s.finish(ctx, actor, bookingID, entity.BookingStatusNoShow)
}

func (s *bookingService) finish(ctx context.Context, actor utils.Actor, bookingID string, next entity.BookingStatus) (*response.BookingResponse, error) {
	booking, err := s.hostBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(booking.Status, next) {
		return nil, wrapErr(ErrInvalidState, "cannot move a %s booking to %s", booking.Status, next)
	}

	if booking.Status == entity.BookingStatusAuthorized {
		if err := s.capture.capture(ctx, &booking.Booking, next); err != nil {
			return nil, err
		}
	} else {
		if err := s.finishUnpaid(ctx, &booking.Booking, next); err != nil {
			return nil, s.transitionFailed(err, booking, next)
		}
	}

	s.log.Info("Booking finished",
		zap.String("booking_id", bookingID),
		zap.String("status", string(booking.Status)),
		zap.String("host_id", actor.ID.String()),
	)

	resp := response.BookingWithListingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) finishUnpaid(ctx context.Context, booking *entity.Booking, next entity.BookingStatus) error {
	update := entity.BookingUpdate{}
	now := time.Now()
	if next == entity.BookingStatusCompleted {
		update.CapturedAt = &now
	}

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.Booking.TransitionStatus(ctx, booking.ID,
			[]entity.BookingStatus{entity.BookingStatusAccepted},
			next,
			update,
		)
		if err != nil {
			return err
		}
		if !ok {
			return wrapErr(ErrInvalidState, "booking status changed concurrently")
		}
		if next == entity.BookingStatusCompleted {
			return s.repo.Listing.IncrementBookingCount(ctx, booking.ListingID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if next == entity.BookingStatusCompleted {
		s.capture.dropCachedListing(ctx, booking.ListingID)
	}

	booking.Status = next
	booking.CapturedAt = update.CapturedAt
	booking.UpdatedAt = now
	return nil
}

// ==================== HELPER METHODS ====================

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.BookingWithListing, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid booking ID %q", bookingID)
	}

	booking, err := s.repo.Booking.FindByIDWithListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) isHostOf(ctx context.Context, actor utils.Actor, booking *entity.BookingWithListing) (bool, error) {
	profile, err := s.repo.HostProfile.FindByUserID(ctx, actor.ID)
	if err != nil {
		return false, fmt.Errorf("find host profile: %w", err)
	}
	return profile != nil && profile.ID == booking.HostProfileID, nil
}

// hostBooking loads a booking on one of the actor's listings.
func (s *bookingService) hostBooking(ctx context.Context, actor utils.Actor, bookingID string) (*entity.BookingWithListing, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	isHost, err := s.isHostOf(ctx, actor, booking)
	if err != nil {
		return nil, err
	}
	if !isHost {
		s.log.Warn("Booking access denied",
			zap.String("booking_id", bookingID),
			zap.String("user_id", actor.ID.String()),
		)
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *bookingService) transitionFailed(err error, booking *entity.BookingWithListing, next entity.BookingStatus) error {
	if _, ok := AsAppError(err); ok {
		return err
	}
	s.log.Error("Failed to change booking status",
		zap.Error(err),
		zap.String("booking_id", booking.ID.String()),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(next)),
	)
	return fmt.Errorf("change booking status: %w", err)
}

func (s *bookingService) notifyHost(_ context.Context, listing *entity.Listing, booking *entity.Booking) {
	if s.mail == nil {
		return
	}
	profile := listing.HostProfileID
	title, start, guests := listing.Title, booking.ScheduledStart, booking.GuestCount

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		host, err := s.repo.HostProfile.FindByID(ctx, profile)
		if err != nil || host == nil {
			s.log.Warn("Host profile not found for notification", zap.Error(err), zap.String("host_profile_id", profile.String()))
			return
		}
		s.mail.sendTo(host.UserID, func(to string) notify.Message {
			return notify.BookingRequested(to, title, start, guests)
		})
	}()
}

func bookingsToResponse(bookings []*entity.BookingWithListing) []response.BookingResponse {
	out := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = response.BookingWithListingToResponse(b)
	}
	return out
}
