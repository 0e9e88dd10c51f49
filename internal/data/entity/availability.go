package entity

import (
	"time"

	"github.com/google/uuid"
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps applies the three-way test used for slots and bookings: other
// starts inside w, other ends inside w, or other fully contains w.
func (w Window) Overlaps(other Window) bool {
	startInside := !other.Start.Before(w.Start) && other.Start.Before(w.End)
	endInside := other.End.After(w.Start) && !other.End.After(w.End)
	contains := !other.Start.After(w.Start) && !other.End.Before(w.End)
	return startInside || endInside || contains
}

type Availability struct {
	BaseSimple
	ListingID uuid.UUID `db:"listing_id"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
	IsBooked  bool      `db:"is_booked"`
}

func (a *Availability) Window() Window {
	return Window{Start: a.StartTime, End: a.EndTime}
}
