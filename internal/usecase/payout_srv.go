package usecase

import (
	"context"
	"fmt"
	"strings"
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

const recentEarningsLimit = 10

type PayoutService interface {
	// Host
	GetHostEarnings(ctx context.Context, actor utils.Actor) (*response.EarningsResponse, error)
	RequestPayout(ctx context.Context, actor utils.Actor, req *request.RequestPayoutRequest) (*response.PayoutResponse, error)
	GetHostPayouts(ctx context.Context, actor utils.Actor) ([]response.PayoutResponse, error)

	// Admin
	ListPayouts(ctx context.Context, actor utils.Actor, req *request.PayoutStatusFilter) (*response.PaginatedResponse[response.PayoutResponse], error)
	StartPayout(ctx context.Context, actor utils.Actor, payoutID string) (*response.PayoutResponse, error)
	ProcessPayout(ctx context.Context, actor utils.Actor, payoutID string, req *request.ProcessPayoutRequest) (*response.PayoutResponse, error)
	FailPayout(ctx context.Context, actor utils.Actor, payoutID string, req *request.FailPayoutRequest) (*response.PayoutResponse, error)
}

type payoutService struct {
	repo   *repository.Repository
	mail   *mailer
	config *utils.Config
	log    *zap.Logger
}

func NewPayoutService(repo *repository.Repository, mail *mailer, config *utils.Config, log *zap.Logger) PayoutService {
	return &payoutService{
		repo:   repo,
		mail:   mail,
		config: config,
		log:    log.With(zap.String("service", "payout")),
	}
}

// balance is the earnings identity for one host:
// available = earned - paid out - pending.
type balance struct {
	Earned    int64
	PaidOut   int64
	Pending   int64
	Available int64
}

func (s *payoutService) balanceOf(ctx context.Context, hostProfileID uuid.UUID) (balance, error) {
	earned, err := s.repo.Booking.SumCapturedHostAmount(ctx, hostProfileID)
	if err != nil {
		return balance{}, err
	}
	totals, err := s.repo.Payout.Totals(ctx, hostProfileID)
	if err != nil {
		return balance{}, err
	}
	return balance{
		Earned:    earned,
		PaidOut:   totals.Completed,
		Pending:   totals.Pending,
		Available: earned - totals.Completed - totals.Pending,
	}, nil
}

func (s *payoutService) GetHostEarnings(ctx context.Context, actor utils.Actor) (*response.EarningsResponse, error) {
	profile, err := s.hostProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	bal, err := s.balanceOf(ctx, profile.ID)
	if err != nil {
		s.log.Error("Failed to compute host balance", zap.Error(err), zap.String("host_profile_id", profile.ID.String()))
		return nil, fmt.Errorf("compute host balance: %w", err)
	}

	bookings, err := s.repo.Booking.FindRecentCompleted(ctx, profile.ID, recentEarningsLimit)
	if err != nil {
		return nil, fmt.Errorf("get recent bookings: %w", err)
	}
	payouts, err := s.repo.Payout.FindByHostProfileID(ctx, profile.ID, recentEarningsLimit)
	if err != nil {
		return nil, fmt.Errorf("get recent payouts: %w", err)
	}

	return &response.EarningsResponse{
		TotalEarnings:    bal.Earned,
		TotalPaidOut:     bal.PaidOut,
		PendingPayouts:   bal.Pending,
		AvailableBalance: bal.Available,
		Currency:         s.currency(),
		RecentBookings:   bookingsToResponse(bookings),
		RecentPayouts:    payoutsToResponse(payouts),
	}, nil
}

// RequestPayout computes the balance and inserts the payout while holding
// the host profile row, so concurrent requests cannot overdraw.
func (s *payoutService) RequestPayout(ctx context.Context, actor utils.Actor, req *request.RequestPayoutRequest) (*response.PayoutResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Request payout validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}
	if req.Amount < entity.MinimumPayoutAmount {
		return nil, wrapErr(ErrBelowMinimumPayout, "minimum payout is %d", entity.MinimumPayoutAmount)
	}

	var payout *entity.Payout
	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		profile, err := s.repo.HostProfile.FindByUserIDForUpdate(ctx, actor.ID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrHostNotFound
		}

		bal, err := s.balanceOf(ctx, profile.ID)
		if err != nil {
			return err
		}
		if req.Amount > bal.Available {
			return wrapErr(ErrInsufficientFunds, "requested %d, available %d", req.Amount, bal.Available)
		}

		payout = &entity.Payout{
			ID:            uuid.New(),
			HostProfileID: profile.ID,
			Amount:        req.Amount,
			Currency:      s.currency(),
			Status:        entity.PayoutStatusPending,
			Notes:         req.Notes,
			RequestedAt:   time.Now(),
		}
		return s.repo.Payout.Create(ctx, payout)
	})
	if err != nil {
		if _, ok := AsAppError(err); ok {
			return nil, err
		}
		s.log.Error("Failed to request payout", zap.Error(err), zap.String("user_id", actor.ID.String()))
		return nil, fmt.Errorf("request payout: %w", err)
	}

	s.log.Info("Payout requested",
		zap.String("payout_id", payout.ID.String()),
		zap.String("host_profile_id", payout.HostProfileID.String()),
		zap.Int64("amount", payout.Amount),
	)

	amount, currency := payout.Amount, payout.Currency
	s.mail.sendTo(actor.ID, func(to string) notify.Message {
		return notify.PayoutRequested(to, amount, currency)
	})

	resp := response.PayoutToResponse(payout)
	return &resp, nil
}

func (s *payoutService) GetHostPayouts(ctx context.Context, actor utils.Actor) ([]response.PayoutResponse, error) {
	profile, err := s.hostProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	payouts, err := s.repo.Payout.FindByHostProfileID(ctx, profile.ID, 100)
	if err != nil {
		return nil, fmt.Errorf("get host payouts: %w", err)
	}
	return payoutsToResponse(payouts), nil
}

// ==================== ADMIN ====================

func (s *payoutService) ListPayouts(ctx context.Context, actor utils.Actor, req *request.PayoutStatusFilter) (*response.PaginatedResponse[response.PayoutResponse], error) {
	if !actor.HasRole(string(entity.RoleAdmin)) {
		return nil, ErrForbidden
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	var status *entity.PayoutStatus
	if req.Status != "" {
		st := entity.PayoutStatus(req.Status)
		status = &st
	}

	payouts, err := s.repo.Payout.FindAll(ctx, status, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	total, err := s.repo.Payout.CountAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("count payouts: %w", err)
	}

	return response.NewPaginatedResponse(payoutsToResponse(payouts), req.Page, req.Limit(), total), nil
}

func (s *payoutService) StartPayout(ctx context.Context, actor utils.Actor, payoutID string) (*response.PayoutResponse, error) {
	now := time.Now()
	return s.transition(ctx, actor, payoutID,
		[]entity.PayoutStatus{entity.PayoutStatusPending},
		entity.PayoutStatusProcessing,
		repository.PayoutStatusUpdate{ProcessedAt: &now},
	)
}

func (s *payoutService) ProcessPayout(ctx context.Context, actor utils.Actor, payoutID string, req *request.ProcessPayoutRequest) (*response.PayoutResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	now := time.Now()
	transferID := strings.TrimSpace(req.TransferID)
	resp, err := s.transition(ctx, actor, payoutID,
		[]entity.PayoutStatus{entity.PayoutStatusPending, entity.PayoutStatusProcessing},
		entity.PayoutStatusCompleted,
		repository.PayoutStatusUpdate{TransferID: &transferID, ProcessedAt: &now, CompletedAt: &now},
	)
	if err != nil {
		return nil, err
	}

	s.notifyHost(ctx, resp, notify.PayoutCompleted)
	return resp, nil
}

// FailPayout returns the amount to the host's available balance.
func (s *payoutService) FailPayout(ctx context.Context, actor utils.Actor, payoutID string, req *request.FailPayoutRequest) (*response.PayoutResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	now := time.Now()
	reason := strings.TrimSpace(req.Reason)
	return s.transition(ctx, actor, payoutID,
		[]entity.PayoutStatus{entity.PayoutStatusPending, entity.PayoutStatusProcessing},
		entity.PayoutStatusFailed,
		repository.PayoutStatusUpdate{FailureReason: &reason, ProcessedAt: &now},
	)
}

// ==================== HELPER METHODS ====================

func (s *payoutService) transition(
	ctx context.Context,
	actor utils.Actor,
	payoutID string,
	from []entity.PayoutStatus,
	next entity.PayoutStatus,
	update repository.PayoutStatusUpdate,
) (*response.PayoutResponse, error) {
	if !actor.HasRole(string(entity.RoleAdmin)) {
		return nil, ErrForbidden
	}

	id, err := uuid.Parse(payoutID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid payout ID %q", payoutID)
	}

	payout, err := s.repo.Payout.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find payout: %w", err)
	}
	if payout == nil {
		return nil, ErrPayoutNotFound
	}

	ok, err := s.repo.Payout.TransitionStatus(ctx, id, from, next, update)
	if err != nil {
		s.log.Error("Failed to change payout status", zap.Error(err), zap.String("payout_id", payoutID))
		return nil, fmt.Errorf("change payout status: %w", err)
	}
	if !ok {
		return nil, wrapErr(ErrInvalidState, "cannot move a %s payout to %s", payout.Status, next)
	}

	prev := payout.Status
	payout.Status = next
	if update.TransferID != nil {
		payout.TransferID = update.TransferID
	}
	if update.FailureReason != nil {
		payout.FailureReason = update.FailureReason
	}
	if update.ProcessedAt != nil && payout.ProcessedAt == nil {
		payout.ProcessedAt = update.ProcessedAt
	}
	if update.CompletedAt != nil {
		payout.CompletedAt = update.CompletedAt
	}

	s.log.Info("Payout status changed",
		zap.String("payout_id", payoutID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
		zap.String("admin_id", actor.ID.String()),
	)

	resp := response.PayoutToResponse(payout)
	return &resp, nil
}

func (s *payoutService) notifyHost(_ context.Context, payout *response.PayoutResponse, build func(to string, amount int64, currency string) notify.Message) {
	if s.mail == nil {
		return
	}
	profileID, err := uuid.Parse(payout.HostProfileID)
	if err != nil {
		return
	}
	amount, currency := payout.Amount, payout.Currency

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		profile, err := s.repo.HostProfile.FindByID(ctx, profileID)
		if err != nil || profile == nil {
			s.log.Warn("Host profile not found for notification", zap.Error(err), zap.String("host_profile_id", profileID.String()))
			return
		}
		s.mail.sendTo(profile.UserID, func(to string) notify.Message {
			return build(to, amount, currency)
		})
	}()
}

func (s *payoutService) hostProfile(ctx context.Context, actor utils.Actor) (*entity.HostProfile, error) {
	profile, err := s.repo.HostProfile.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("find host profile: %w", err)
	}
	if profile == nil {
		return nil, ErrHostNotFound
	}
	return profile, nil
}

func (s *payoutService) currency() string {
	if s.config != nil && s.config.Payment.Currency != "" {
		return s.config.Payment.Currency
	}
	return "USD"
}

func payoutsToResponse(payouts []*entity.Payout) []response.PayoutResponse {
	out := make([]response.PayoutResponse, len(payouts))
	for i, p := range payouts {
		out[i] = response.PayoutToResponse(p)
	}
	return out
}
