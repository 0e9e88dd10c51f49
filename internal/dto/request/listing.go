package request

import "time"

type HostProfileRequest struct {
	DisplayName string  `json:"display_name" validate:"required,min=2,max=100"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

type CreateListingRequest struct {
	Title           string  `json:"title" validate:"required,min=3,max=200"`
	Type            string  `json:"type" validate:"required,oneof=DINNER COOKING_CLASS TASTING LIVESTREAM"`
	Description     string  `json:"description" validate:"max=5000"`
	PriceAmount     int64   `json:"price_amount" validate:"gte=0"`
	PriceCurrency   string  `json:"price_currency" validate:"omitempty,len=3"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,gt=0"`
	MaxGuests       int     `json:"max_guests" validate:"required,min=1,max=500"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State           *string `json:"state,omitempty" validate:"omitempty,max=100"`
}

// UpdateListingRequest only touches fields that are present.
type UpdateListingRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Type            *string `json:"type,omitempty" validate:"omitempty,oneof=DINNER COOKING_CLASS TASTING LIVESTREAM"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	PriceAmount     *int64  `json:"price_amount,omitempty" validate:"omitempty,gte=0"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,gt=0"`
	MaxGuests       *int    `json:"max_guests,omitempty" validate:"omitempty,min=1,max=500"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State           *string `json:"state,omitempty" validate:"omitempty,max=100"`
}

type RejectListingRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type ListingStatusFilter struct {
	Status string `json:"status" validate:"omitempty,oneof=DRAFT SUBMITTED ACTIVE PAUSED REJECTED"`
	PaginatedRequest
}

type CreateSlotRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}
