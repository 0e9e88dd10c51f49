package response

import (
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
)

type HostProfileResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	IsActive    bool    `json:"is_active"`
}

type ListingHost struct {
	ProfileID   string  `json:"profile_id"`
	UserID      string  `json:"user_id,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

type ListingResponse struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Slug            string               `json:"slug"`
	Type            entity.ListingType   `json:"type"`
	Description     string               `json:"description"`
	PriceAmount     int64                `json:"price_amount"`
	PriceCurrency   string               `json:"price_currency"`
	DurationMinutes *int                 `json:"duration_minutes,omitempty"`
	MaxGuests       int                  `json:"max_guests"`
	City            *string              `json:"city,omitempty"`
	State           *string              `json:"state,omitempty"`
	Status          entity.ListingStatus `json:"status"`
	ViewCount       int64                `json:"view_count"`
	BookingCount    int64                `json:"booking_count"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	PublishedAt     *time.Time           `json:"published_at,omitempty"`
	Host            ListingHost          `json:"host"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type SlotResponse struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsBooked  bool      `json:"is_booked"`
}

// Helper converters
func HostProfileToResponse(p *entity.HostProfile) HostProfileResponse {
	return HostProfileResponse{
		ID:          p.ID.String(),
		UserID:      p.UserID.String(),
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		IsActive:    p.IsActive,
	}
}

func ListingToResponse(l *entity.Listing) ListingResponse {
	return ListingResponse{
		ID:              l.ID.String(),
		Title:           l.Title,
		Slug:            l.Slug,
		Type:            l.Type,
		Description:     l.Description,
		PriceAmount:     l.PriceAmount,
		PriceCurrency:   l.PriceCurrency,
		DurationMinutes: l.DurationMinutes,
		MaxGuests:       l.MaxGuests,
		City:            l.City,
		State:           l.State,
		Status:          l.Status,
		ViewCount:       l.ViewCount,
		BookingCount:    l.BookingCount,
		RejectionReason: l.RejectionReason,
		PublishedAt:     l.PublishedAt,
		Host:            ListingHost{ProfileID: l.HostProfileID.String()},
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func ListingWithHostToResponse(lw *entity.ListingWithHost) ListingResponse {
	resp := ListingToResponse(&lw.Listing)
	resp.Host.UserID = lw.HostUserID.String()
	resp.Host.DisplayName = lw.HostDisplayName
	resp.Host.AvatarURL = lw.HostAvatarURL
	return resp
}

func SlotToResponse(a *entity.Availability) SlotResponse {
	return SlotResponse{
		ID:        a.ID.String(),
		ListingID: a.ListingID.String(),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		IsBooked:  a.IsBooked,
	}
}
