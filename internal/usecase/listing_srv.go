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
	"github.com/dataweston/Dinewith/pkg/cache"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ListingService interface {
	// Public
	GetListing(ctx context.Context, listingID string) (*response.ListingResponse, error)
	GetListingBySlug(ctx context.Context, slug string) (*response.ListingResponse, error)
	ListAvailableSlots(ctx context.Context, listingID string) ([]response.SlotResponse, error)

	// Host
	GetOrCreateHostProfile(ctx context.Context, actor utils.Actor, req *request.HostProfileRequest) (*response.HostProfileResponse, error)
	CreateListing(ctx context.Context, actor utils.Actor, req *request.CreateListingRequest) (*response.ListingResponse, error)
	UpdateListing(ctx context.Context, actor utils.Actor, listingID string, req *request.UpdateListingRequest) (*response.ListingResponse, error)
	SubmitListing(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error)
	PauseListing(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error)
	ResumeListing(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error)
	GetHostListings(ctx context.Context, actor utils.Actor) ([]response.ListingResponse, error)

	// Moderation
	GetListingsForModeration(ctx context.Context, actor utils.Actor, req *request.ListingStatusFilter) (*response.PaginatedResponse[response.ListingResponse], error)
	ApproveListing(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error)
	RejectListing(ctx context.Context, actor utils.Actor, listingID string, req *request.RejectListingRequest) (*response.ListingResponse, error)

	// Availability
	CreateSlot(ctx context.Context, actor utils.Actor, listingID string, req *request.CreateSlotRequest) (*response.SlotResponse, error)
	DeleteSlot(ctx context.Context, actor utils.Actor, slotID string) error
	GetListingSlots(ctx context.Context, actor utils.Actor, listingID string) ([]response.SlotResponse, error)
}

type listingService struct {
	repo  *repository.Repository
	cache cache.ListingCache
	log   *zap.Logger
}

func NewListingService(repo *repository.Repository, listingCache cache.ListingCache, log *zap.Logger) ListingService {
	return &listingService{
		repo:  repo,
		cache: listingCache,
		log:   log.With(zap.String("service", "listing")),
	}
}

// ==================== PUBLIC ====================

func (s *listingService) GetListing(ctx context.Context, listingID string) (*response.ListingResponse, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid listing ID %q", listingID)
	}

	listing, err := s.cache.GetByID(ctx, id)
	if err != nil {
		s.log.Warn("Listing cache read failed", zap.Error(err), zap.String("listing_id", listingID))
	}
	if listing == nil {
		listing, err = s.repo.Listing.FindByIDWithHost(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get listing: %w", err)
		}
		if listing == nil {
			return nil, ErrListingNotFound
		}
		s.storeInCache(ctx, listing)
	}

	resp := response.ListingWithHostToResponse(listing)
	return &resp, nil
}

// GetListingBySlug serves the public detail page. Every call counts as a
// view, cached or not. A cached copy reports view_count as of the cache
// fill, so it lags by up to the listing TTL.
func (s *listingService) GetListingBySlug(ctx context.Context, slug string) (*response.ListingResponse, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, wrapErr(ErrValidation, "slug is required")
	}

	listing, err := s.cache.GetBySlug(ctx, slug)
	if err != nil {
		s.log.Warn("Listing cache read failed", zap.Error(err), zap.String("slug", slug))
	}
	if listing == nil {
		listing, err = s.repo.Listing.FindBySlugWithHost(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("get listing by slug: %w", err)
		}
		if listing == nil {
			return nil, ErrListingNotFound
		}
		s.storeInCache(ctx, listing)
	}

	if err := s.repo.Listing.IncrementViewCount(ctx, listing.ID); err != nil {
		// A lost view is not worth failing the page
		s.log.Warn("Failed to increment view count", zap.Error(err), zap.String("listing_id", listing.ID.String()))
	}

	resp := response.ListingWithHostToResponse(listing)
	return &resp, nil
}

func (s *listingService) ListAvailableSlots(ctx context.Context, listingID string) ([]response.SlotResponse, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid listing ID %q", listingID)
	}

	slots, err := s.repo.Availability.FindAvailable(ctx, id, time.Now())
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return slotsToResponse(slots), nil
}

// ==================== HOST ====================

func (s *listingService) GetOrCreateHostProfile(ctx context.Context, actor utils.Actor, req *request.HostProfileRequest) (*response.HostProfileResponse, error) {
	existing, err := s.repo.HostProfile.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("find host profile: %w", err)
	}
	if existing != nil {
		resp := response.HostProfileToResponse(existing)
		return &resp, nil
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Host profile validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	now := time.Now()
	profile := &entity.HostProfile{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:      actor.ID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		IsActive:    true,
	}

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.HostProfile.Create(ctx, profile); err != nil {
			return err
		}
		// Moderators and admins keep their role
		if actor.Role == string(entity.RoleGuest) {
			return s.repo.User.UpdateRole(ctx, actor.ID, entity.RoleHost)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Failed to create host profile", zap.Error(err), zap.String("user_id", actor.ID.String()))
		return nil, fmt.Errorf("create host profile: %w", err)
	}

	s.log.Info("Host profile created",
		zap.String("host_profile_id", profile.ID.String()),
		zap.String("user_id", actor.ID.String()),
	)

	resp := response.HostProfileToResponse(profile)
	return &resp, nil
}

func (s *listingService) CreateListing(ctx context.Context, actor utils.Actor, req *request.CreateListingRequest) (*response.ListingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create listing validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	profile, err := s.hostProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.PriceCurrency)
	if currency == "" {
		currency = "USD"
	}

	now := time.Now()
	listing := &entity.Listing{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		HostProfileID:   profile.ID,
		Title:           req.Title,
		Slug:            utils.GenerateSlug(req.Title),
		Type:            entity.ListingType(req.Type),
		Description:     req.Description,
		PriceAmount:     req.PriceAmount,
		PriceCurrency:   currency,
		DurationMinutes: req.DurationMinutes,
		MaxGuests:       req.MaxGuests,
		City:            req.City,
		State:           req.State,
		Status:          entity.ListingStatusDraft,
	}

	if err := s.repo.Listing.Create(ctx, listing); err != nil {
		s.log.Error("Failed to create listing", zap.Error(err), zap.String("host_profile_id", profile.ID.String()))
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.log.Info("Listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("slug", listing.Slug),
		zap.String("host_profile_id", profile.ID.String()),
	)

	resp := s.ownListingResponse(listing, profile)
	return &resp, nil
}

func (s *listingService) UpdateListing(ctx context.Context, actor utils.Actor, listingID string, req *request.UpdateListingRequest) (*response.ListingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update listing validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	listing, profile, err := s.ownedListing(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}
	previous := *listing

	if req.Title != nil && *req.Title != listing.Title {
		listing.Title = *req.Title
		listing.Slug = utils.GenerateSlug(*req.Title)
	}
	if req.Type != nil {
		listing.Type = entity.ListingType(*req.Type)
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.PriceAmount != nil {
		listing.PriceAmount = *req.PriceAmount
	}
	if req.DurationMinutes != nil {
		listing.DurationMinutes = req.DurationMinutes
	}
	if req.MaxGuests != nil {
		listing.MaxGuests = *req.MaxGuests
	}
	if req.City != nil {
		listing.City = req.City
	}
	if req.State != nil {
		listing.State = req.State
	}
	listing.UpdatedAt = time.Now()

	if err := s.repo.Listing.Update(ctx, listing); err != nil {
		s.log.Error("Failed to update listing", zap.Error(err), zap.String("listing_id", listingID))
		return nil, fmt.Errorf("update listing: %w", err)
	}
	s.invalidate(ctx, &previous)

	s.log.Info("Listing updated", zap.String("listing_id", listingID), zap.String("slug", listing.Slug))

	resp := s.ownListingResponse(listing, profile)
	return &resp, nil
}

func (s *listingService) SubmitListing(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error) {
	listing, profile, err := s.ownedListing(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}
	// Resubmission clears the previous rejection reason
	return s.transition(ctx, listing, profile,
		[]entity.ListingStatus{entity.ListingStatusDraft, entity.ListingStatusRejected},
		entity.ListingStatusSubmitted,
		repository.ListingStatusUpdate{},
	)
}

func (s *listingService) PauseListing(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error) {
	listing, profile, err := s.ownedListing(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, listing, profile,
		[]entity.ListingStatus{entity.ListingStatusActive},
		entity.ListingStatusPaused,
		repository.ListingStatusUpdate{RejectionReason: listing.RejectionReason},
	)
}

func (s *listingService) ResumeListing(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error) {
	listing, profile, err := s.ownedListing(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, listing, profile,
		[]entity.ListingStatus{entity.ListingStatusPaused},
		entity.ListingStatusActive,
		repository.ListingStatusUpdate{RejectionReason: listing.RejectionReason},
	)
}

func (s *listingService) GetHostListings(ctx context.Context, actor utils.Actor) ([]response.ListingResponse, error) {
	profile, err := s.hostProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	listings, err := s.repo.Listing.FindByHostProfileID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("get host listings: %w", err)
	}

	out := make([]response.ListingResponse, len(listings))
	for i, l := range listings {
		out[i] = s.ownListingResponse(l, profile)
	}
	return out, nil
}

// ==================== MODERATION ====================

func (s *listingService) GetListingsForModeration(ctx context.Context, actor utils.Actor, req *request.ListingStatusFilter) (*response.PaginatedResponse[response.ListingResponse], error) {
	if !isModerator(actor) {
		return nil, ErrForbidden
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}

	status := entity.ListingStatusSubmitted
	if req.Status != "" {
		status = entity.ListingStatus(req.Status)
	}

	listings, err := s.repo.Listing.FindByStatus(ctx, status, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get listings for moderation: %w", err)
	}
	total, err := s.repo.Listing.CountByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("count listings for moderation: %w", err)
	}

	out := make([]response.ListingResponse, len(listings))
	for i, l := range listings {
		out[i] = response.ListingWithHostToResponse(l)
	}
	return response.NewPaginatedResponse(out, req.Page, req.Limit(), total), nil
}

func (s *listingService) ApproveListing(ctx context.Context, actor utils.Actor, listingID string) (*response.ListingResponse, error) {
	if !isModerator(actor) {
		return nil, ErrForbidden
	}
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	resp, err := s.transition(ctx, listing, nil,
		[]entity.ListingStatus{entity.ListingStatusSubmitted},
		entity.ListingStatusActive,
		repository.ListingStatusUpdate{PublishedAt: &now},
	)
	if err != nil {
		return nil, err
	}

	s.log.Info("Listing approved", zap.String("listing_id", listingID), zap.String("moderator_id", actor.ID.String()))
	return resp, nil
}

func (s *listingService) RejectListing(ctx context.Context, actor utils.Actor, listingID string, req *request.RejectListingRequest) (*response.ListingResponse, error) {
	if !isModerator(actor) {
		return nil, ErrForbidden
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	resp, err := s.transition(ctx, listing, nil,
		[]entity.ListingStatus{entity.ListingStatusSubmitted},
		entity.ListingStatusRejected,
		repository.ListingStatusUpdate{RejectionReason: &reason},
	)
	if err != nil {
		return nil, err
	}

	s.log.Info("Listing rejected",
		zap.String("listing_id", listingID),
		zap.String("moderator_id", actor.ID.String()),
		zap.String("reason", reason),
	)
	return resp, nil
}

// ==================== AVAILABILITY ====================

// CreateSlot inserts a slot while holding the listing row, so two
// concurrent inserts cannot both pass the overlap check.
func (s *listingService) CreateSlot(ctx context.Context, actor utils.Actor, listingID string, req *request.CreateSlotRequest) (*response.SlotResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create slot validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}
	window := entity.Window{Start: req.StartTime, End: req.EndTime}
	if !window.Valid() {
		return nil, wrapErr(ErrValidation, "end time must be after start time")
	}

	listing, _, err := s.ownedListing(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}

	slot := &entity.Availability{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		ListingID: listing.ID,
		StartTime: window.Start,
		EndTime:   window.End,
	}

	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Listing.FindByIDForUpdate(ctx, listing.ID); err != nil {
			return err
		}
		overlap, err := s.repo.Availability.HasOverlap(ctx, listing.ID, window)
		if err != nil {
			return err
		}
		if overlap {
			return ErrSlotOverlap
		}
		return s.repo.Availability.Create(ctx, slot)
	})
	if err != nil {
		if _, ok := AsAppError(err); ok {
			return nil, err
		}
		s.log.Error("Failed to create slot", zap.Error(err), zap.String("listing_id", listingID))
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.log.Info("Availability slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("listing_id", listingID),
		zap.Time("start_time", slot.StartTime),
	)

	resp := response.SlotToResponse(slot)
	return &resp, nil
}

func (s *listingService) DeleteSlot(ctx context.Context, actor utils.Actor, slotID string) error {
	id, err := uuid.Parse(slotID)
	if err != nil {
		return wrapErr(ErrValidation, "invalid slot ID %q", slotID)
	}

	slot, err := s.repo.Availability.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}
	if _, _, err := s.ownedListing(ctx, actor, slot.ListingID.String()); err != nil {
		return err
	}
	if slot.IsBooked {
		return wrapErr(ErrInvalidState, "slot is booked")
	}

	if err := s.repo.Availability.Delete(ctx, id); err != nil {
		s.log.Error("Failed to delete slot", zap.Error(err), zap.String("slot_id", slotID))
		return fmt.Errorf("delete slot: %w", err)
	}

	s.log.Info("Availability slot deleted", zap.String("slot_id", slotID))
	return nil
}

func (s *listingService) GetListingSlots(ctx context.Context, actor utils.Actor, listingID string) ([]response.SlotResponse, error) {
	listing, _, err := s.ownedListing(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}

	slots, err := s.repo.Availability.FindByListingID(ctx, listing.ID)
	if err != nil {
		return nil, fmt.Errorf("get listing slots: %w", err)
	}
	return slotsToResponse(slots), nil
}

// ==================== HELPER METHODS ====================

func isModerator(actor utils.Actor) bool {
	return actor.HasRole(string(entity.RoleModerator), string(entity.RoleAdmin))
}

func (s *listingService) hostProfile(ctx context.Context, actor utils.Actor) (*entity.HostProfile, error) {
	profile, err := s.repo.HostProfile.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("find host profile: %w", err)
	}
	if profile == nil {
		return nil, ErrHostNotFound
	}
	return profile, nil
}

func (s *listingService) findListing(ctx context.Context, listingID string) (*entity.Listing, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid listing ID %q", listingID)
	}
	listing, err := s.repo.Listing.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// ownedListing loads a listing that belongs to the actor's host profile.
func (s *listingService) ownedListing(ctx context.Context, actor utils.Actor, listingID string) (*entity.Listing, *entity.HostProfile, error) {
	listing, err := s.findListing(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.hostProfile(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	if listing.HostProfileID != profile.ID {
		s.log.Warn("Listing access denied",
			zap.String("listing_id", listingID),
			zap.String("user_id", actor.ID.String()),
		)
		return nil, nil, ErrForbidden
	}
	return listing, profile, nil
}

func (s *listingService) transition(
	ctx context.Context,
	listing *entity.Listing,
	profile *entity.HostProfile,
	from []entity.ListingStatus,
	next entity.ListingStatus,
	update repository.ListingStatusUpdate,
) (*response.ListingResponse, error) {
	if !listing.Status.CanTransitionTo(next) {
		return nil, wrapErr(ErrInvalidState, "listing cannot move from %s to %s", listing.Status, next)
	}

	ok, err := s.repo.Listing.TransitionStatus(ctx, listing.ID, from, next, update)
	if err != nil {
		s.log.Error("Failed to change listing status",
			zap.Error(err),
			zap.String("listing_id", listing.ID.String()),
			zap.String("next", string(next)),
		)
		return nil, fmt.Errorf("change listing status: %w", err)
	}
	if !ok {
		return nil, wrapErr(ErrInvalidState, "listing status changed concurrently")
	}
	s.invalidate(ctx, listing)

	prev := listing.Status
	listing.Status = next
	listing.RejectionReason = update.RejectionReason
	if update.PublishedAt != nil && listing.PublishedAt == nil {
		listing.PublishedAt = update.PublishedAt
	}

	s.log.Info("Listing status changed",
		zap.String("listing_id", listing.ID.String()),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)

	var resp response.ListingResponse
	if profile != nil {
		resp = s.ownListingResponse(listing, profile)
	} else {
		resp = response.ListingToResponse(listing)
	}
	return &resp, nil
}

func (s *listingService) ownListingResponse(listing *entity.Listing, profile *entity.HostProfile) response.ListingResponse {
	return response.ListingWithHostToResponse(&entity.ListingWithHost{
		Listing:         *listing,
		HostUserID:      profile.UserID,
		HostDisplayName: profile.DisplayName,
		HostAvatarURL:   profile.AvatarURL,
	})
}

func (s *listingService) storeInCache(ctx context.Context, listing *entity.ListingWithHost) {
	if err := s.cache.Set(ctx, listing); err != nil {
		s.log.Warn("Failed to cache listing", zap.Error(err), zap.String("listing_id", listing.ID.String()))
	}
}

func (s *listingService) invalidate(ctx context.Context, listing *entity.Listing) {
	if err := s.cache.Invalidate(ctx, listing); err != nil {
		s.log.Warn("Failed to invalidate listing cache", zap.Error(err), zap.String("listing_id", listing.ID.String()))
	}
}

func slotsToResponse(slots []*entity.Availability) []response.SlotResponse {
	out := make([]response.SlotResponse, len(slots))
	for i, slot := range slots {
		out[i] = response.SlotToResponse(slot)
	}
	return out
}
