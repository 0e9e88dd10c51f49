package response

import (
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
)

type ReviewResponse struct {
	ID                  string    `json:"id"`
	BookingID           string    `json:"booking_id"`
	ListingID           string    `json:"listing_id"`
	ListingTitle        string    `json:"listing_title,omitempty"`
	ReviewerID          string    `json:"reviewer_id"`
	ReviewerName        string    `json:"reviewer_name,omitempty"`
	Rating              int       `json:"rating"`
	Comment             *string   `json:"comment,omitempty"`
	CommunicationRating *int      `json:"communication_rating,omitempty"`
	ExperienceRating    *int      `json:"experience_rating,omitempty"`
	ValueRating         *int      `json:"value_rating,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

type ReviewListResponse struct {
	Reviews       []ReviewResponse `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
	TotalReviews  int64            `json:"total_reviews"`
}

type CanReviewResponse struct {
	CanReview bool   `json:"can_review"`
	Reason    string `json:"reason,omitempty"`
}

// Helper converters
func ReviewToResponse(r *entity.Review) ReviewResponse {
	return ReviewResponse{
		ID:                  r.ID.String(),
		BookingID:           r.BookingID.String(),
		ListingID:           r.ListingID.String(),
		ReviewerID:          r.ReviewerID.String(),
		Rating:              r.Rating,
		Comment:             r.Comment,
		CommunicationRating: r.CommunicationRating,
		ExperienceRating:    r.ExperienceRating,
		ValueRating:         r.ValueRating,
		CreatedAt:           r.CreatedAt,
	}
}

func ReviewWithReviewerToResponse(rw *entity.ReviewWithReviewer) ReviewResponse {
	resp := ReviewToResponse(&rw.Review)
	resp.ReviewerName = rw.ReviewerName
	resp.ListingTitle = rw.ListingTitle
	return resp
}
