package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/internal/dto/request"
	"github.com/dataweston/Dinewith/internal/payment"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingRequest(listingID uuid.UUID, start, end time.Time, guests int) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		ListingID:      listingID.String(),
		ScheduledStart: start,
		ScheduledEnd:   end,
		GuestCount:     guests,
	}
}

func TestCreateBookingRequest_Pricing(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Booking.CreateBookingRequest(context.Background(), f.guest,
		bookingRequest(f.listing.ID, evening(0), evening(2), 2))
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusRequested, resp.Status)
	assert.Equal(t, int64(10000), resp.TotalAmount)
	assert.Equal(t, int64(400), resp.PlatformFee)
	assert.Equal(t, int64(9600), resp.HostAmount)
	assert.Equal(t, resp.TotalAmount, resp.PlatformFee+resp.HostAmount)
	assert.Equal(t, f.guest.ID.String(), resp.GuestID)
	assert.Len(t, f.st.bookings, 1)
}

func TestCreateBookingRequest_CapacityExceededCreatesNothing(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Booking.CreateBookingRequest(context.Background(), f.guest,
		bookingRequest(f.listing.ID, evening(0), evening(2), 5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.Empty(t, f.st.bookings)
}

func TestCreateBookingRequest_OverlappingWindowConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// 6-8pm is held
	_, err := f.svc.Booking.CreateBookingRequest(ctx, f.guest, bookingRequest(f.listing.ID, evening(0), evening(2), 2))
	require.NoError(t, err)

	// 7-9pm overlaps
	_, err = f.svc.Booking.CreateBookingRequest(ctx, f.guest, bookingRequest(f.listing.ID, evening(1), evening(3), 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlotConflict))

	// 8-10pm only touches the edge
	_, err = f.svc.Booking.CreateBookingRequest(ctx, f.guest, bookingRequest(f.listing.ID, evening(2), evening(4), 2))
	require.NoError(t, err)
	assert.Len(t, f.st.bookings, 2)
}

func TestCreateBookingRequest_CanceledBookingFreesWindow(t *testing.T) {
	f := newFixture()
	f.addBooking(entity.BookingStatusCanceled, evening(0), 2)

	_, err := f.svc.Booking.CreateBookingRequest(context.Background(), f.guest,
		bookingRequest(f.listing.ID, evening(0), evening(2), 2))
	require.NoError(t, err)
}

func TestCreateBookingRequest_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture) *request.CreateBookingRequest
		want    *AppError
	}{
		{
			name: "listing paused",
			prepare: func(f *fixture) *request.CreateBookingRequest {
				f.st.listings[f.listing.ID].Status = entity.ListingStatusPaused
				return bookingRequest(f.listing.ID, evening(0), evening(2), 2)
			},
			want: ErrListingUnavailable,
		},
		{
			name: "listing missing",
			prepare: func(f *fixture) *request.CreateBookingRequest {
				return bookingRequest(uuid.New(), evening(0), evening(2), 2)
			},
			want: ErrListingUnavailable,
		},
		{
			name: "end before start",
			prepare: func(f *fixture) *request.CreateBookingRequest {
				return bookingRequest(f.listing.ID, evening(2), evening(0), 2)
			},
			want: ErrValidation,
		},
		{
			name: "zero guests",
			prepare: func(f *fixture) *request.CreateBookingRequest {
				return bookingRequest(f.listing.ID, evening(0), evening(2), 0)
			},
			want: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.Booking.CreateBookingRequest(context.Background(), f.guest, tt.prepare(f))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, f.st.bookings)
		})
	}
}

func TestAcceptBooking_MarksSlotsBooked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	slot := &entity.Availability{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		ListingID:  f.listing.ID,
		StartTime:  evening(0),
		EndTime:    evening(2),
	}
	f.st.slots[slot.ID] = slot
	b := f.addBooking(entity.BookingStatusRequested, evening(0), 2)

	resp, err := f.svc.Booking.AcceptBooking(ctx, f.host, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusAccepted, resp.Status)
	assert.Equal(t, entity.BookingStatusAccepted, f.booking(b.ID).Status)

	stored, _ := f.repo.Availability.FindByID(ctx, slot.ID)
	assert.True(t, stored.IsBooked)
}

func TestAcceptBooking_OnlyHost(t *testing.T) {
	f := newFixture()
	b := f.addBooking(entity.BookingStatusRequested, evening(0), 2)

	_, err := f.svc.Booking.AcceptBooking(context.Background(), f.guest, b.ID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, entity.BookingStatusRequested, f.booking(b.ID).Status)
}

func TestAcceptBooking_TwiceIsInvalidState(t *testing.T) {
	f := newFixture()
	b := f.addBooking(entity.BookingStatusAccepted, evening(0), 2)

	_, err := f.svc.Booking.AcceptBooking(context.Background(), f.host, b.ID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestDeclineBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reason := "kitchen closed"

	for _, status := range []entity.BookingStatus{entity.BookingStatusRequested, entity.BookingStatusAccepted} {
		b := f.addBooking(status, evening(0), 2)

		resp, err := f.svc.Booking.DeclineBookingRequest(ctx, f.host, b.ID.String(), &request.DeclineBookingRequest{Reason: &reason})
		require.NoError(t, err)
		assert.Equal(t, entity.BookingStatusCanceled, resp.Status)

		stored := f.booking(b.ID)
		assert.Equal(t, entity.BookingStatusCanceled, stored.Status)
		require.NotNil(t, stored.CancelReason)
		assert.Equal(t, reason, *stored.CancelReason)
	}
}

func TestDeclineBooking_AuthorizedIsInvalidState(t *testing.T) {
	f := newFixture()
	b, _ := f.addAuthorized(evening(0), 2, payment.ProcessorSquare)

	_, err := f.svc.Booking.DeclineBookingRequest(context.Background(), f.host, b.ID.String(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, entity.BookingStatusAuthorized, f.booking(b.ID).Status)
}

func (f *fixture) addSlot(start, end time.Time) *entity.Availability {
	slot := &entity.Availability{
		BaseSimple: entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		ListingID:  f.listing.ID,
		StartTime:  start,
		EndTime:    end,
	}
	f.st.mu.Lock()
	f.st.slots[slot.ID] = slot
	f.st.mu.Unlock()
	return slot
}

func (f *fixture) slotBooked(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	slot, err := f.repo.Availability.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, slot)
	return slot.IsBooked
}

func TestDeclineRequested_KeepsSlotHeldByAcceptedBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	slot := f.addSlot(evening(0), evening(4))

	held := f.addBooking(entity.BookingStatusRequested, evening(0), 2)
	_, err := f.svc.Booking.AcceptBooking(ctx, f.host, held.ID.String())
	require.NoError(t, err)
	require.True(t, f.slotBooked(t, slot.ID))

	other := f.addBooking(entity.BookingStatusRequested, evening(2), 2)
	_, err = f.svc.Booking.DeclineBookingRequest(ctx, f.host, other.ID.String(), nil)
	require.NoError(t, err)

	assert.True(t, f.slotBooked(t, slot.ID), "slot released while another booking is accepted")

	available, err := f.svc.Listing.ListAvailableSlots(ctx, f.listing.ID.String())
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestDeclineAccepted_ReleasesOnlyUnheldSlots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	shared := f.addSlot(evening(0), evening(4))
	own := f.addSlot(evening(24), evening(26))

	first := f.addBooking(entity.BookingStatusRequested, evening(0), 2)
	second := f.addBooking(entity.BookingStatusRequested, evening(2), 2)
	third := f.addBooking(entity.BookingStatusRequested, evening(24), 2)
	for _, b := range []*entity.Booking{first, second, third} {
		_, err := f.svc.Booking.AcceptBooking(ctx, f.host, b.ID.String())
		require.NoError(t, err)
	}

	_, err := f.svc.Booking.DeclineBookingRequest(ctx, f.host, first.ID.String(), nil)
	require.NoError(t, err)
	assert.True(t, f.slotBooked(t, shared.ID))

	_, err = f.svc.Booking.DeclineBookingRequest(ctx, f.host, second.ID.String(), nil)
	require.NoError(t, err)
	assert.False(t, f.slotBooked(t, shared.ID))

	_, err = f.svc.Booking.DeclineBookingRequest(ctx, f.host, third.ID.String(), nil)
	require.NoError(t, err)
	assert.False(t, f.slotBooked(t, own.ID))
}

func TestCompleteBooking_AcceptedWithoutPayment(t *testing.T) {
	f := newFixture()
	b := f.addBooking(entity.BookingStatusAccepted, evening(0), 2)

	resp, err := f.svc.Booking.CompleteBooking(context.Background(), f.host, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCompleted, resp.Status)

	stored := f.booking(b.ID)
	assert.Equal(t, entity.BookingStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CapturedAt)
	assert.Empty(t, f.gateway.captured)
	assert.Equal(t, int64(1), f.storedListing().BookingCount)
}

func TestCompleteBooking_EvictsCachedListing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.withListingCache()
	unpaid := f.addBooking(entity.BookingStatusAccepted, evening(0), 2)
	paid, _ := f.addAuthorized(evening(24), 2, payment.ProcessorSquare)

	cached, err := f.svc.Listing.GetListing(ctx, f.listing.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), cached.BookingCount)

	_, err = f.svc.Booking.CompleteBooking(ctx, f.host, unpaid.ID.String())
	require.NoError(t, err)
	fresh, err := f.svc.Listing.GetListing(ctx, f.listing.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh.BookingCount)

	_, err = f.svc.Booking.CompleteBooking(ctx, f.host, paid.ID.String())
	require.NoError(t, err)
	fresh, err = f.svc.Listing.GetListing(ctx, f.listing.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.BookingCount)
}

func TestCompleteBooking_CapturesAuthorizedPayment(t *testing.T) {
	f := newFixture()
	b, fee := f.addAuthorized(evening(0), 2, payment.ProcessorBraintree)

	resp, err := f.svc.Booking.CompleteBooking(context.Background(), f.host, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCompleted, resp.Status)
	assert.Equal(t, []string{payment.ProcessorBraintree + ":" + fee.TransactionID}, f.gateway.captured)

	stored, _ := f.repo.FeeTransaction.FindByBookingID(context.Background(), b.ID)
	assert.True(t, stored.Processed)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestCompleteBooking_CaptureFailureLeavesAuthorized(t *testing.T) {
	f := newFixture()
	f.gateway.captureErr = errors.New("processor unavailable")
	b, _ := f.addAuthorized(evening(0), 2, payment.ProcessorSquare)

	_, err := f.svc.Booking.CompleteBooking(context.Background(), f.host, b.ID.String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProcessor))

	stored := f.booking(b.ID)
	assert.Equal(t, entity.BookingStatusAuthorized, stored.Status)
	assert.Nil(t, stored.CapturedAt)

	fee, _ := f.repo.FeeTransaction.FindByBookingID(context.Background(), b.ID)
	assert.False(t, fee.Processed)
	assert.Equal(t, int64(0), f.storedListing().BookingCount)
}

func TestMarkNoShow_CapturesFullAmount(t *testing.T) {
	f := newFixture()
	// $50 x 2 guests = $100
	b, fee := f.addAuthorized(evening(0), 2, payment.ProcessorSquare)
	require.Equal(t, int64(10000), b.TotalAmount)

	resp, err := f.svc.Booking.MarkNoShow(context.Background(), f.host, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusNoShow, resp.Status)
	assert.Equal(t, int64(10000), resp.TotalAmount)
	assert.Equal(t, []string{payment.ProcessorSquare + ":" + fee.TransactionID}, f.gateway.captured)

	stored := f.booking(b.ID)
	assert.Equal(t, entity.BookingStatusNoShow, stored.Status)
	assert.NotNil(t, stored.CapturedAt)
}

func TestMarkNoShow_TerminalStatesRejected(t *testing.T) {
	f := newFixture()
	for _, status := range []entity.BookingStatus{entity.BookingStatusRequested, entity.BookingStatusCompleted, entity.BookingStatusCanceled} {
		b := f.addBooking(status, evening(0), 2)
		_, err := f.svc.Booking.MarkNoShow(context.Background(), f.host, b.ID.String())
		require.Error(t, err, status)
		assert.True(t, errors.Is(err, ErrInvalidState))
	}
}

func TestGetBookingByID_Visibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.addBooking(entity.BookingStatusRequested, evening(0), 2)
	stranger := f.addUser("stranger", entity.RoleGuest)

	for name, actor := range map[string]utils.Actor{"guest": f.guest, "host": f.host, "admin": f.admin} {
		resp, err := f.svc.Booking.GetBookingByID(ctx, actor, b.ID.String())
		require.NoError(t, err, name)
		assert.Equal(t, f.listing.Title, resp.ListingTitle, name)
	}

	_, err := f.svc.Booking.GetBookingByID(ctx, stranger, b.ID.String())
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = f.svc.Booking.GetBookingByID(ctx, f.guest, uuid.NewString())
	assert.True(t, errors.Is(err, ErrBookingNotFound))
}

func TestGetGuestAndHostBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.addBooking(entity.BookingStatusRequested, evening(0), 2)
	f.addBooking(entity.BookingStatusAccepted, evening(24), 1)

	guestPage, err := f.svc.Booking.GetGuestBookings(ctx, f.guest, &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), guestPage.Pagination.Total)
	assert.Len(t, guestPage.Data, 2)
	assert.Equal(t, f.listing.Title, guestPage.Data[0].ListingTitle)

	hostPage, err := f.svc.Booking.GetHostBookings(ctx, f.host, &request.PaginatedRequest{Page: 1, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), hostPage.Pagination.Total)
	assert.Len(t, hostPage.Data, 1)
	assert.Equal(t, 2, hostPage.Pagination.TotalPages)

	_, err = f.svc.Booking.GetHostBookings(ctx, f.guest, &request.PaginatedRequest{Page: 1, PerPage: 10})
	assert.True(t, errors.Is(err, ErrHostNotFound))
}
