package response

import (
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
)

type BookingResponse struct {
	ID              string               `json:"id"`
	ListingID       string               `json:"listing_id"`
	ListingTitle    string               `json:"listing_title,omitempty"`
	ListingSlug     string               `json:"listing_slug,omitempty"`
	GuestID         string               `json:"guest_id"`
	ScheduledStart  time.Time            `json:"scheduled_start"`
	ScheduledEnd    time.Time            `json:"scheduled_end"`
	GuestCount      int                  `json:"guest_count"`
	GuestNotes      *string              `json:"guest_notes,omitempty"`
	TotalAmount     int64                `json:"total_amount"`
	PlatformFee     int64                `json:"platform_fee"`
	HostAmount      int64                `json:"host_amount"`
	Currency        string               `json:"currency"`
	PaymentIntentID *string              `json:"payment_intent_id,omitempty"`
	Status          entity.BookingStatus `json:"status"`
	CancelReason    *string              `json:"cancel_reason,omitempty"`
	AuthorizedAt    *time.Time           `json:"authorized_at,omitempty"`
	CapturedAt      *time.Time           `json:"captured_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Helper converters
func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID.String(),
		ListingID:       b.ListingID.String(),
		GuestID:         b.GuestID.String(),
		ScheduledStart:  b.ScheduledStart,
		ScheduledEnd:    b.ScheduledEnd,
		GuestCount:      b.GuestCount,
		GuestNotes:      b.GuestNotes,
		TotalAmount:     b.TotalAmount,
		PlatformFee:     b.PlatformFee,
		HostAmount:      b.HostAmount,
		Currency:        b.Currency,
		PaymentIntentID: b.PaymentIntentID,
		Status:          b.Status,
		CancelReason:    b.CancelReason,
		AuthorizedAt:    b.AuthorizedAt,
		CapturedAt:      b.CapturedAt,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func BookingWithListingToResponse(bw *entity.BookingWithListing) BookingResponse {
	resp := BookingToResponse(&bw.Booking)
	resp.ListingTitle = bw.ListingTitle
	resp.ListingSlug = bw.ListingSlug
	return resp
}
