package entity

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusRequested  BookingStatus = "REQUESTED"
	BookingStatusAccepted   BookingStatus = "ACCEPTED"
	BookingStatusAuthorized BookingStatus = "AUTHORIZED"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
	BookingStatusCanceled   BookingStatus = "CANCELED"
	BookingStatusNoShow     BookingStatus = "NO_SHOW"
)

// PlatformFeeRate is the marketplace cut of every booking total.
const PlatformFeeRate = 0.04

// LiveBookingStatuses hold a listing's time window.
var LiveBookingStatuses = []BookingStatus{
	BookingStatusRequested,
	BookingStatusAccepted,
	BookingStatusAuthorized,
}

// SlotHoldingStatuses are the statuses whose window keeps availability
// slots marked as booked.
var SlotHoldingStatuses = []BookingStatus{
	BookingStatusAccepted,
	BookingStatusAuthorized,
	BookingStatusCompleted,
	BookingStatusNoShow,
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusRequested:  {BookingStatusAccepted, BookingStatusCanceled},
	BookingStatusAccepted:   {BookingStatusAuthorized, BookingStatusCanceled, BookingStatusCompleted, BookingStatusNoShow},
	BookingStatusAuthorized: {BookingStatusCompleted, BookingStatusNoShow},
}

// CanTransition reports whether the booking state machine has an edge
// from -> to. Terminal states have no outgoing edges.
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SourcesOf lists every state with an edge into to.
func SourcesOf(to BookingStatus) []BookingStatus {
	var sources []BookingStatus
	for _, from := range []BookingStatus{BookingStatusRequested, BookingStatusAccepted, BookingStatusAuthorized} {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Pricing is the fee split of a booking total.
type Pricing struct {
	TotalAmount int64
	PlatformFee int64
	HostAmount  int64
}

// CalculatePricing charges price per guest; the platform fee is deducted
// from the gross total and the host receives the remainder.
func CalculatePricing(pricePerGuest int64, guestCount int) Pricing {
	total := pricePerGuest * int64(guestCount)
	fee := int64(math.Round(float64(total) * PlatformFeeRate))
	return Pricing{
		TotalAmount: total,
		PlatformFee: fee,
		HostAmount:  total - fee,
	}
}

type Booking struct {
	BaseNoDelete
	ListingID       uuid.UUID     `db:"listing_id"`
	GuestID         uuid.UUID     `db:"guest_id"`
	ScheduledStart  time.Time     `db:"scheduled_start"`
	ScheduledEnd    time.Time     `db:"scheduled_end"`
	GuestCount      int           `db:"guest_count"`
	GuestNotes      *string       `db:"guest_notes"`
	TotalAmount     int64         `db:"total_amount"`
	PlatformFee     int64         `db:"platform_fee"`
	HostAmount      int64         `db:"host_amount"`
	Currency        string        `db:"currency"`
	PaymentIntentID *string       `db:"payment_intent_id"`
	Status          BookingStatus `db:"status"`
	CancelReason    *string       `db:"cancel_reason"`
	AuthorizedAt    *time.Time    `db:"authorized_at"`
	CapturedAt      *time.Time    `db:"captured_at"`
}

func (b *Booking) Window() Window {
	return Window{Start: b.ScheduledStart, End: b.ScheduledEnd}
}

// BookingUpdate carries the columns stamped alongside a status change.
type BookingUpdate struct {
	PaymentIntentID *string
	CancelReason    *string
	AuthorizedAt    *time.Time
	CapturedAt      *time.Time
}

// BookingWithListing adds the listing's display fields to a booking.
type BookingWithListing struct {
	Booking
	ListingTitle  string    `db:"listing_title"`
	ListingSlug   string    `db:"listing_slug"`
	HostProfileID uuid.UUID `db:"host_profile_id"`
}
