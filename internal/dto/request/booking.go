package request

import "time"

type CreateBookingRequest struct {
	ListingID      string    `json:"listing_id" validate:"required,uuid4"`
	ScheduledStart time.Time `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time `json:"scheduled_end" validate:"required,gtfield=ScheduledStart"`
	GuestCount     int       `json:"guest_count" validate:"required,min=1"`
	GuestNotes     *string   `json:"guest_notes,omitempty" validate:"omitempty,max=1000"`
}

type DeclineBookingRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}
