package entity

import (
	"time"

	"github.com/google/uuid"
)

type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "DRAFT"
	ListingStatusSubmitted ListingStatus = "SUBMITTED"
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusPaused    ListingStatus = "PAUSED"
	ListingStatusRejected  ListingStatus = "REJECTED"
)

type ListingType string

const (
	ListingTypeDinner       ListingType = "DINNER"
	ListingTypeCookingClass ListingType = "COOKING_CLASS"
	ListingTypeTasting      ListingType = "TASTING"
	ListingTypeLivestream   ListingType = "LIVESTREAM"
)

var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingStatusDraft:     {ListingStatusSubmitted},
	ListingStatusSubmitted: {ListingStatusActive, ListingStatusRejected},
	ListingStatusActive:    {ListingStatusPaused},
	ListingStatusPaused:    {ListingStatusActive},
	ListingStatusRejected:  {ListingStatusSubmitted},
}

// CanTransitionTo reports whether a listing may move from s to next.
func (s ListingStatus) CanTransitionTo(next ListingStatus) bool {
	for _, allowed := range listingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Listing struct {
	BaseNoDelete
	HostProfileID   uuid.UUID     `db:"host_profile_id"`
	Title           string        `db:"title"`
	Slug            string        `db:"slug"`
	Type            ListingType   `db:"type"`
	Description     string        `db:"description"`
	PriceAmount     int64         `db:"price_amount"`
	PriceCurrency   string        `db:"price_currency"`
	DurationMinutes *int          `db:"duration_minutes"`
	MaxGuests       int           `db:"max_guests"`
	City            *string       `db:"city"`
	State           *string       `db:"state"`
	Status          ListingStatus `db:"status"`
	ViewCount       int64         `db:"view_count"`
	BookingCount    int64         `db:"booking_count"`
	RejectionReason *string       `db:"rejection_reason"`
	PublishedAt     *time.Time    `db:"published_at"`
}

// ListingWithHost is a listing joined with its host's display metadata.
type ListingWithHost struct {
	Listing
	HostUserID      uuid.UUID `db:"host_user_id"`
	HostDisplayName string    `db:"host_display_name"`
	HostAvatarURL   *string   `db:"host_avatar_url"`
}
