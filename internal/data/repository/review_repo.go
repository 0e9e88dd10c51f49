package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Review, error)
	FindByListingID(ctx context.Context, listingID uuid.UUID, limit int) ([]*entity.ReviewWithReviewer, error)
	FindByHostProfileID(ctx context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.ReviewWithReviewer, error)

	// Business queries
	GetListingStats(ctx context.Context, listingID uuid.UUID) (entity.RatingStats, error)
	GetHostStats(ctx context.Context, hostProfileID uuid.UUID) (entity.RatingStats, error)
}

type reviewRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReviewRepository(db database.PgxIface, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

// Create inserts a review. A second review of the same booking is
// reported as ErrConflict.
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, booking_id, listing_id, reviewer_id, host_profile_id, rating,
		                     comment, communication_rating, experience_rating, value_rating,
		                     is_published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		review.ID,
		review.BookingID,
		review.ListingID,
		review.ReviewerID,
		review.HostProfileID,
		review.Rating,
		review.Comment,
		review.CommunicationRating,
		review.ExperienceRating,
		review.ValueRating,
		review.IsPublished,
		review.CreatedAt,
	)

	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return fmt.Errorf("create review for booking %s: %w", review.BookingID.String(), ErrConflict)
	}
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.String("booking_id", review.BookingID.String()),
			zap.String("reviewer_id", review.ReviewerID.String()),
		)
		return fmt.Errorf("create review for booking %s: %w", review.BookingID.String(), err)
	}

	return nil
}

func (r *reviewRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Review, error) {
	query := `
		SELECT id, booking_id, listing_id, reviewer_id, host_profile_id, rating, comment,
		       communication_rating, experience_rating, value_rating, is_published, created_at
		FROM reviews
		WHERE booking_id = $1
	`

	var review entity.Review
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, bookingID).Scan(reviewDest(&review)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find review for booking %s: %w", bookingID.String(), err)
	}

	return &review, nil
}

func reviewDest(rv *entity.Review) []any {
	return []any{
		&rv.ID,
		&rv.BookingID,
		&rv.ListingID,
		&rv.ReviewerID,
		&rv.HostProfileID,
		&rv.Rating,
		&rv.Comment,
		&rv.CommunicationRating,
		&rv.ExperienceRating,
		&rv.ValueRating,
		&rv.IsPublished,
		&rv.CreatedAt,
	}
}

const publishedReviewsQuery = `
	SELECT r.id, r.booking_id, r.listing_id, r.reviewer_id, r.host_profile_id, r.rating,
	       r.comment, r.communication_rating, r.experience_rating, r.value_rating,
	       r.is_published, r.created_at, u.username, l.title
	FROM reviews r
	JOIN users u ON u.id = r.reviewer_id
	JOIN listings l ON l.id = r.listing_id
`

func (r *reviewRepository) FindByListingID(ctx context.Context, listingID uuid.UUID, limit int) ([]*entity.ReviewWithReviewer, error) {
	query := publishedReviewsQuery + ` WHERE r.listing_id = $1 AND r.is_published ORDER BY r.created_at DESC LIMIT $2`
	return r.list(ctx, query, listingID, limit)
}

func (r *reviewRepository) FindByHostProfileID(ctx context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.ReviewWithReviewer, error) {
	query := publishedReviewsQuery + ` WHERE r.host_profile_id = $1 AND r.is_published ORDER BY r.created_at DESC LIMIT $2`
	return r.list(ctx, query, hostProfileID, limit)
}

func (r *reviewRepository) list(ctx context.Context, query string, key uuid.UUID, limit int) ([]*entity.ReviewWithReviewer, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, key, limit)
	if err != nil {
		r.log.Error("Failed to list reviews",
			zap.Error(err),
			zap.String("key", key.String()),
		)
		return nil, fmt.Errorf("list reviews for %s: %w", key.String(), err)
	}
	defer rows.Close()

	var reviews []*entity.ReviewWithReviewer
	for rows.Next() {
		var rw entity.ReviewWithReviewer
		dest := append(reviewDest(&rw.Review), &rw.ReviewerName, &rw.ListingTitle)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("Failed to scan review row", zap.Error(err))
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, &rw)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) GetListingStats(ctx context.Context, listingID uuid.UUID) (entity.RatingStats, error) {
	return r.stats(ctx, `WHERE listing_id = $1 AND is_published`, listingID)
}

func (r *reviewRepository) GetHostStats(ctx context.Context, hostProfileID uuid.UUID) (entity.RatingStats, error) {
	return r.stats(ctx, `WHERE host_profile_id = $1 AND is_published`, hostProfileID)
}

func (r *reviewRepository) stats(ctx context.Context, where string, key uuid.UUID) (entity.RatingStats, error) {
	query := `SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews ` + where

	var stats entity.RatingStats
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, key).Scan(&stats.AverageRating, &stats.ReviewCount)
	if err != nil {
		r.log.Error("Failed to get review stats",
			zap.Error(err),
			zap.String("key", key.String()),
		)
		return entity.RatingStats{}, fmt.Errorf("review stats for %s: %w", key.String(), err)
	}
	return stats, nil
}
