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
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	listingReviewLimit = 100
	hostReviewLimit    = 50
)

type ReviewService interface {
	CreateReview(ctx context.Context, actor utils.Actor, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	CanReviewBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.CanReviewResponse, error)

	// Public endpoints
	GetListingReviews(ctx context.Context, listingID string) (*response.ReviewListResponse, error)
	GetHostReviews(ctx context.Context, hostProfileID string) (*response.ReviewListResponse, error)
}

type reviewService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewReviewService(repo *repository.Repository, log *zap.Logger) ReviewService {
	return &reviewService{
		repo: repo,
		log:  log.With(zap.String("service", "review")),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, actor utils.Actor, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	// Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create review validation failed", zap.Any("errors", errs))
		return nil, wrapErr(ErrValidation, "%s", utils.FormatValidationErrors(errs))
	}
	for _, r := range []*int{req.CommunicationRating, req.ExperienceRating, req.ValueRating} {
		if r != nil && (*r < 1 || *r > 5) {
			return nil, wrapErr(ErrValidation, "ratings must be between 1 and 5")
		}
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
	if booking.GuestID != actor.ID {
		return nil, ErrForbidden
	}
	if booking.Status != entity.BookingStatusCompleted {
		return nil, wrapErr(ErrInvalidState, "only completed bookings can be reviewed")
	}

	existing, err := s.repo.Review.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyReviewed
	}

	review := &entity.Review{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		BookingID:           booking.ID,
		ListingID:           booking.ListingID,
		ReviewerID:          actor.ID,
		HostProfileID:       booking.HostProfileID,
		Rating:              req.Rating,
		Comment:             req.Comment,
		CommunicationRating: req.CommunicationRating,
		ExperienceRating:    req.ExperienceRating,
		ValueRating:         req.ValueRating,
		IsPublished:         true,
	}

	if err := s.repo.Review.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyReviewed
		}
		s.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("booking_id", req.BookingID),
			zap.String("reviewer_id", actor.ID.String()),
		)
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("booking_id", req.BookingID),
		zap.Int("rating", review.Rating),
	)

	resp := response.ReviewToResponse(review)
	resp.ListingTitle = booking.ListingTitle
	return &resp, nil
}

// CanReviewBooking explains why a review would be refused instead of
// failing.
func (s *reviewService) CanReviewBooking(ctx context.Context, actor utils.Actor, bookingID string) (*response.CanReviewResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return &response.CanReviewResponse{Reason: "Booking not found"}, nil
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}

	switch {
	case booking == nil:
		return &response.CanReviewResponse{Reason: "Booking not found"}, nil
	case booking.GuestID != actor.ID:
		return &response.CanReviewResponse{Reason: "Not your booking"}, nil
	case booking.Status != entity.BookingStatusCompleted:
		return &response.CanReviewResponse{Reason: "Booking not completed"}, nil
	}

	existing, err := s.repo.Review.FindByBookingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	if existing != nil {
		return &response.CanReviewResponse{Reason: "Already reviewed"}, nil
	}
	return &response.CanReviewResponse{CanReview: true}, nil
}

func (s *reviewService) GetListingReviews(ctx context.Context, listingID string) (*response.ReviewListResponse, error) {
	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid listing ID %q", listingID)
	}

	reviews, err := s.repo.Review.FindByListingID(ctx, id, listingReviewLimit)
	if err != nil {
		return nil, fmt.Errorf("get listing reviews: %w", err)
	}
	stats, err := s.repo.Review.GetListingStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing rating: %w", err)
	}

	return reviewList(reviews, stats), nil
}

func (s *reviewService) GetHostReviews(ctx context.Context, hostProfileID string) (*response.ReviewListResponse, error) {
	id, err := uuid.Parse(hostProfileID)
	if err != nil {
		return nil, wrapErr(ErrValidation, "invalid host ID %q", hostProfileID)
	}

	reviews, err := s.repo.Review.FindByHostProfileID(ctx, id, hostReviewLimit)
	if err != nil {
		return nil, fmt.Errorf("get host reviews: %w", err)
	}
	stats, err := s.repo.Review.GetHostStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get host rating: %w", err)
	}

	return reviewList(reviews, stats), nil
}

func reviewList(reviews []*entity.ReviewWithReviewer, stats entity.RatingStats) *response.ReviewListResponse {
	out := make([]response.ReviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = response.ReviewWithReviewerToResponse(r)
	}
	return &response.ReviewListResponse{
		Reviews:       out,
		AverageRating: stats.AverageRating,
		TotalReviews:  stats.ReviewCount,
	}
}
