package entity

import (
	"github.com/google/uuid"
)

type Review struct {
	BaseSimple
	BookingID           uuid.UUID `db:"booking_id"`
	ListingID           uuid.UUID `db:"listing_id"`
	ReviewerID          uuid.UUID `db:"reviewer_id"`
	HostProfileID       uuid.UUID `db:"host_profile_id"`
	Rating              int       `db:"rating"` // 1-5
	Comment             *string   `db:"comment"`
	CommunicationRating *int      `db:"communication_rating"`
	ExperienceRating    *int      `db:"experience_rating"`
	ValueRating         *int      `db:"value_rating"`
	IsPublished         bool      `db:"is_published"`
}

// ReviewWithReviewer adds the reviewer's and listing's display fields.
type ReviewWithReviewer struct {
	Review
	ReviewerName string `db:"reviewer_name"`
	ListingTitle string `db:"listing_title"`
}

type RatingStats struct {
	AverageRating float64
	ReviewCount   int64
}
