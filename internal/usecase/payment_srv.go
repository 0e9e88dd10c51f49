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
	"github.com/dataweston/Dinewith/internal/payment"
	"github.com/dataweston/Dinewith/pkg/cache"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	AuthorizePayment(ctx context.Context, actor utils.Actor, req *request.AuthorizePaymentRequest) (*response.PaymentResponse, error)
	CapturePayment(ctx context.Context, actor utils.Actor, req *request.CapturePaymentRequest) (*response.PaymentResponse, error)
}

type paymentService struct {
	repo    *repository.Repository
	gateway PaymentGateway
	capture *capturer
	config  *utils.Config
	log     *zap.Logger
}

func NewPaymentService(repo *repository.Repository, gateway PaymentGateway, capture *capturer, config *utils.Config, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gateway,
		capture: capture,
		config:  config,
		log:     log.With(zap.String("service", "payment")),
	}
}

// AuthorizePayment holds the booking total on a processor. The attempt is
// persisted under its idempotency key before any processor is called, and
// every processor in the failover chain sees the same key.
func (s *paymentService) AuthorizePayment(ctx context.Context, actor utils.Actor, req *request.AuthorizePaymentRequest) (*response.PaymentResponse, error) {
	// 1. Validate input
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Authorize payment validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid booking ID %q", req.BookingID)
	}

	// 2. Only the guest pays for a booking
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.GuestID != actor.ID {
		return nil, ErrForbidden
	}

	key := utils.GenerateIdempotencyKey(booking.ID, uuid.New())
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		key = *req.IdempotencyKey
	}

	// 3. Replay or resume an attempt under the same key
	attempt, err := s.repo.PaymentAttempt.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find payment attempt: %w", err)
	}
	if attempt != nil {
		if attempt.BookingID != booking.ID {
			return nil, wrapErr(ErrValidation, "idempotency key belongs to another booking")
		}
		switch attempt.Status {
		case entity.PaymentAttemptSucceeded:
			return s.replay(ctx, booking, attempt)
		case entity.PaymentAttemptPending:
			return nil, ErrPaymentInProgress
		}
	}

	if booking.Status != entity.BookingStatusAccepted {
		return nil, wrapErr(ErrInvalidState, "booking must be accepted before payment, it is %s", booking.Status)
	}

	if attempt == nil {
		attempt = &entity.PaymentAttempt{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			BookingID:      booking.ID,
			IdempotencyKey: key,
			Amount:         booking.TotalAmount,
			Currency:       booking.Currency,
			Status:         entity.PaymentAttemptPending,
		}
		if err := s.repo.PaymentAttempt.Create(ctx, attempt); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrPaymentInProgress
			}
			return nil, fmt.Errorf("record payment attempt: %w", err)
		}
	} else {
		reopened, err := s.repo.PaymentAttempt.Reopen(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("reopen payment attempt: %w", err)
		}
		if !reopened {
			return nil, ErrPaymentInProgress
		}
	}

	// 4. Authorize with failover
	currency := booking.Currency
	if currency == "" && s.config != nil {
		currency = s.config.Payment.Currency
	}
	result, err := s.gateway.Authorize(ctx, payment.AuthorizeRequest{
		Amount:         payment.Money{Amount: booking.TotalAmount, Currency: currency},
		PaymentToken:   req.PaymentMethodToken,
		IdempotencyKey: key,
		ReferenceID:    booking.ID.String(),
	}, req.Processor)
	if err != nil {
		s.log.Error("Payment authorization failed",
			zap.Error(err),
			zap.String("booking_id", req.BookingID),
			zap.String("idempotency_key", key),
		)
		s.markFailed(ctx, key, nil, err)
		if errors.Is(err, payment.ErrDeclined) {
			return nil, wrapErr(ErrProcessor, "payment declined")
		}
		return nil, wrapErr(ErrProcessor, "authorization failed")
	}

	// 5. Record the fee split and move the booking in one transaction
	now := time.Now()
	fee := &entity.FeeTransaction{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		BookingID:     booking.ID,
		Processor:     result.Processor,
		TransactionID: result.TransactionID,
		Amount:        booking.TotalAmount,
		PlatformFee:   booking.PlatformFee,
		HostPayout:    booking.TotalAmount - booking.PlatformFee,
	}

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.FeeTransaction.Create(ctx, fee); err != nil {
			return err
		}
		ok, err := s.repo.Booking.TransitionStatus(ctx, booking.ID,
			[]entity.BookingStatus{entity.BookingStatusAccepted},
			entity.BookingStatusAuthorized,
			entity.BookingUpdate{PaymentIntentID: &result.TransactionID, AuthorizedAt: &now},
		)
		if err != nil {
			return err
		}
		if !ok {
			return wrapErr(ErrInvalidState, "booking is no longer accepted")
		}
		return s.repo.PaymentAttempt.MarkSucceeded(ctx, key, result.Processor, result.TransactionID)
	})
	if err != nil {
		s.compensate(ctx, key, result, err)
		if errors.Is(err, repository.ErrConflict) {
			return nil, wrapErr(ErrInvalidState, "booking already has a payment on file")
		}
		if _, ok := AsAppError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("record authorization: %w", err)
	}

	s.log.Info("Payment authorized",
		zap.String("booking_id", req.BookingID),
		zap.String("processor", result.Processor),
		zap.String("transaction_id", result.TransactionID),
		zap.Int64("amount", booking.TotalAmount),
	)

	return &response.PaymentResponse{
		BookingID:      booking.ID.String(),
		Processor:      result.Processor,
		TransactionID:  result.TransactionID,
		IdempotencyKey: key,
		Amount:         fee.Amount,
		PlatformFee:    fee.PlatformFee,
		HostPayout:     fee.HostPayout,
		Currency:       booking.Currency,
		Status:         string(entity.BookingStatusAuthorized),
		AuthorizedAt:   &now,
	}, nil
}

// CapturePayment settles an authorized booking and completes it. Allowed
// for the listing's host and for admins.
func (s *paymentService) CapturePayment(ctx context.Context, actor utils.Actor, req *request.CapturePaymentRequest) (*response.PaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid booking ID %q", req.BookingID)
	}

	booking, err := s.repo.Booking.FindByIDWithListing(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if !actor.HasRole(string(entity.RoleAdmin)) {
		profile, err := s.repo.HostProfile.FindByUserID(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("find host profile: %w", err)
		}
		if profile == nil || profile.ID != booking.HostProfileID {
			return nil, ErrForbidden
		}
	}

	if booking.Status != entity.BookingStatusAuthorized {
		return nil, wrapErr(ErrInvalidState, "payment must be authorized first, booking is %s", booking.Status)
	}

	fee, err := s.capture.settle(ctx, &booking.Booking, entity.BookingStatusCompleted)
	if err != nil {
		return nil, err
	}

	s.log.Info("Payment captured via capture endpoint",
		zap.String("booking_id", req.BookingID),
		zap.String("actor_id", actor.ID.String()),
	)

	return feeToPaymentResponse(&booking.Booking, fee, ""), nil
}

// replay answers a repeated request for an attempt that already succeeded.
func (s *paymentService) replay(ctx context.Context, booking *entity.Booking, attempt *entity.PaymentAttempt) (*response.PaymentResponse, error) {
	fee, err := s.repo.FeeTransaction.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("find fee transaction: %w", err)
	}
	if fee == nil {
		return nil, ErrPaymentNotRecorded
	}

	s.log.Info("Replaying authorized payment",
		zap.String("booking_id", booking.ID.String()),
		zap.String("idempotency_key", attempt.IdempotencyKey),
	)
	return feeToPaymentResponse(booking, fee, attempt.IdempotencyKey), nil
}

// compensate voids an authorization whose bookkeeping could not be saved.
func (s *paymentService) compensate(ctx context.Context, key string, result *payment.Result, cause error) {
	ctx = context.WithoutCancel(ctx)

	s.log.Error("Failed to record authorization, voiding",
		zap.Error(cause),
		zap.String("processor", result.Processor),
		zap.String("transaction_id", result.TransactionID),
	)
	if _, err := s.gateway.Void(ctx, result.Processor, result.TransactionID); err != nil {
		s.log.Error("Failed to void orphaned authorization",
			zap.Error(err),
			zap.String("processor", result.Processor),
			zap.String("transaction_id", result.TransactionID),
			zap.String("idempotency_key", key),
		)
	}
	processor := result.Processor
	s.markFailed(ctx, key, &processor, cause)
}

func (s *paymentService) markFailed(ctx context.Context, key string, processor *string, cause error) {
	if err := s.repo.PaymentAttempt.MarkFailed(context.WithoutCancel(ctx), key, processor, cause.Error()); err != nil {
		s.log.Error("Failed to mark payment attempt failed", zap.Error(err), zap.String("idempotency_key", key))
	}
}

func feeToPaymentResponse(booking *entity.Booking, fee *entity.FeeTransaction, key string) *response.PaymentResponse {
	return &response.PaymentResponse{
		BookingID:      booking.ID.String(),
		Processor:      fee.Processor,
		TransactionID:  fee.TransactionID,
		IdempotencyKey: key,
		Amount:         fee.Amount,
		PlatformFee:    fee.PlatformFee,
		HostPayout:     fee.HostPayout,
		Currency:       booking.Currency,
		Status:         string(booking.Status),
		AuthorizedAt:   booking.AuthorizedAt,
		CapturedAt:     booking.CapturedAt,
	}
}

// ==================== CAPTURE ====================

// capturer settles an authorization on the processor recorded in the fee
// ledger. It is shared by the capture endpoint and the host's complete
// and no-show actions.
type capturer struct {
	repo    *repository.Repository
	gateway PaymentGateway
	cache   cache.ListingCache
	log     *zap.Logger
}

func (c *capturer) capture(ctx context.Context, booking *entity.Booking, next entity.BookingStatus) error {
	_, err := c.settle(ctx, booking, next)
	return err
}

// settle captures first and writes state second. A processor failure
// leaves the booking AUTHORIZED and the ledger untouched. When an earlier
// capture reached the processor but its commit was lost, the processor
// reports the authorization as already captured and settle records it.
func (c *capturer) settle(ctx context.Context, booking *entity.Booking, next entity.BookingStatus) (*entity.FeeTransaction, error) {
	fee, err := c.repo.FeeTransaction.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("find fee transaction: %w", err)
	}
	if fee == nil {
		return nil, ErrPaymentNotRecorded
	}

	if !fee.Processed {
		_, err := c.gateway.Capture(ctx, fee.Processor, fee.TransactionID)
		switch {
		case err == nil:
		case errors.Is(err, payment.ErrAlreadyCaptured):
			c.log.Warn("Authorization already captured, recording capture",
				zap.String("booking_id", booking.ID.String()),
				zap.String("processor", fee.Processor),
				zap.String("transaction_id", fee.TransactionID),
			)
		default:
			c.log.Error("Capture failed",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
				zap.String("processor", fee.Processor),
				zap.String("transaction_id", fee.TransactionID),
			)
			return nil, wrapErr(ErrProcessor, "capture on %s failed", fee.Processor)
		}
	}

	now := time.Now()
	err = c.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if !fee.Processed {
			if err := c.repo.FeeTransaction.MarkProcessed(ctx, booking.ID); err != nil {
				return err
			}
		}
		ok, err := c.repo.Booking.TransitionStatus(ctx, booking.ID,
			[]entity.BookingStatus{entity.BookingStatusAuthorized},
			next,
			entity.BookingUpdate{CapturedAt: &now},
		)
		if err != nil {
			return err
		}
		if !ok {
			return wrapErr(ErrInvalidState, "booking is no longer authorized")
		}
		if next == entity.BookingStatusCompleted {
			return c.repo.Listing.IncrementBookingCount(ctx, booking.ListingID)
		}
		return nil
	})
	if err != nil {
		if _, ok := AsAppError(err); ok {
			return nil, err
		}
		c.log.Error("Failed to record capture",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("transaction_id", fee.TransactionID),
		)
		return nil, fmt.Errorf("record capture: %w", err)
	}

	if next == entity.BookingStatusCompleted {
		c.dropCachedListing(ctx, booking.ListingID)
	}

	fee.Processed = true
	fee.ProcessedAt = &now
	booking.Status = next
	booking.CapturedAt = &now
	booking.UpdatedAt = now

	c.log.Info("Payment captured",
		zap.String("booking_id", booking.ID.String()),
		zap.String("processor", fee.Processor),
		zap.Int64("amount", fee.Amount),
		zap.String("status", string(next)),
	)
	return fee, nil
}

// dropCachedListing evicts a listing whose booking_count just changed.
func (c *capturer) dropCachedListing(ctx context.Context, listingID uuid.UUID) {
	if c == nil || c.cache == nil {
		return
	}
	listing, err := c.repo.Listing.FindByID(ctx, listingID)
	if err != nil || listing == nil {
		c.log.Warn("Failed to load listing for cache eviction", zap.Error(err), zap.String("listing_id", listingID.String()))
		return
	}
	if err := c.cache.Invalidate(ctx, listing); err != nil {
		c.log.Warn("Failed to evict cached listing", zap.Error(err), zap.String("listing_id", listingID.String()))
	}
}
