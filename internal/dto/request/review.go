package request

type CreateReviewRequest struct {
	BookingID           string  `json:"booking_id" validate:"required,uuid4"`
	Rating              int     `json:"rating" validate:"required,min=1,max=5"`
	Comment             *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
	CommunicationRating *int    `json:"communication_rating,omitempty" validate:"omitempty,min=1,max=5"`
	ExperienceRating    *int    `json:"experience_rating,omitempty" validate:"omitempty,min=1,max=5"`
	ValueRating         *int    `json:"value_rating,omitempty" validate:"omitempty,min=1,max=5"`
}
