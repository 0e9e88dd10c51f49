package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDWithListing(ctx context.Context, id uuid.UUID) (*entity.BookingWithListing, error)
	FindByGuestID(ctx context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.BookingWithListing, error)
	CountByGuestID(ctx context.Context, guestID uuid.UUID) (int64, error)
	FindByHostProfileID(ctx context.Context, hostProfileID uuid.UUID, limit, offset int) ([]*entity.BookingWithListing, error)
	CountByHostProfileID(ctx context.Context, hostProfileID uuid.UUID) (int64, error)

	// Business queries
	HasConflict(ctx context.Context, listingID uuid.UUID, window entity.Window) (bool, error)
	// TransitionStatus writes next only while the current status is one of
	// from. It reports false when no row matched.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.BookingStatus, next entity.BookingStatus, update entity.BookingUpdate) (bool, error)
	SumCapturedHostAmount(ctx context.Context, hostProfileID uuid.UUID) (int64, error)
	FindRecentCompleted(ctx context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.BookingWithListing, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `b.id, b.listing_id, b.guest_id, b.scheduled_start, b.scheduled_end,
	b.guest_count, b.guest_notes, b.total_amount, b.platform_fee, b.host_amount, b.currency,
	b.payment_intent_id, b.status, b.cancel_reason, b.authorized_at, b.captured_at,
	b.created_at, b.updated_at`

func bookingDest(b *entity.Booking) []any {
	return []any{
		&b.ID,
		&b.ListingID,
		&b.GuestID,
		&b.ScheduledStart,
		&b.ScheduledEnd,
		&b.GuestCount,
		&b.GuestNotes,
		&b.TotalAmount,
		&b.PlatformFee,
		&b.HostAmount,
		&b.Currency,
		&b.PaymentIntentID,
		&b.Status,
		&b.CancelReason,
		&b.AuthorizedAt,
		&b.CapturedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

const bookingWithListingQuery = `
	SELECT ` + bookingColumns + `, l.title, l.slug, l.host_profile_id
	FROM bookings b
	JOIN listings l ON l.id = b.listing_id
`

func scanBookingWithListing(row pgx.Row) (*entity.BookingWithListing, error) {
	var bw entity.BookingWithListing
	dest := append(bookingDest(&bw.Booking), &bw.ListingTitle, &bw.ListingSlug, &bw.HostProfileID)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &bw, nil
}

func liveStatuses() []string {
	return statusStrings(entity.LiveBookingStatuses)
}

func statusStrings(statuses []entity.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Create inserts a booking. An overlapping live booking on the same
// listing is reported as ErrConflict.
func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, listing_id, guest_id, scheduled_start, scheduled_end,
		                      guest_count, guest_notes, total_amount, platform_fee,
		                      host_amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		booking.ListingID,
		booking.GuestID,
		booking.ScheduledStart,
		booking.ScheduledEnd,
		booking.GuestCount,
		booking.GuestNotes,
		booking.TotalAmount,
		booking.PlatformFee,
		booking.HostAmount,
		booking.Currency,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if database.PgErrorCode(err) == database.CodeExclusionViolation {
		r.log.Info("Booking rejected by overlap constraint",
			zap.String("listing_id", booking.ListingID.String()),
		)
		return fmt.Errorf("create booking for listing %s: %w", booking.ListingID.String(), ErrConflict)
	}
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("listing_id", booking.ListingID.String()),
			zap.String("guest_id", booking.GuestID.String()),
		)
		return fmt.Errorf("create booking for listing %s: %w", booking.ListingID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	var booking entity.Booking
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(bookingDest(&booking)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindByIDWithListing(ctx context.Context, id uuid.UUID) (*entity.BookingWithListing, error) {
	bw, err := scanBookingWithListing(database.Conn(ctx, r.db).QueryRow(ctx, bookingWithListingQuery+` WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking with listing",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking with listing %s: %w", id.String(), err)
	}
	return bw, nil
}

func (r *bookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.BookingWithListing, error) {
	query := bookingWithListingQuery + ` WHERE b.guest_id = $1 ORDER BY b.created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, guestID, limit, offset)
}

func (r *bookingRepository) CountByGuestID(ctx context.Context, guestID uuid.UUID) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE guest_id = $1`, guestID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by guest",
			zap.Error(err),
			zap.String("guest_id", guestID.String()),
		)
		return 0, fmt.Errorf("count bookings by guest %s: %w", guestID.String(), err)
	}
	return count, nil
}

func (r *bookingRepository) FindByHostProfileID(ctx context.Context, hostProfileID uuid.UUID, limit, offset int) ([]*entity.BookingWithListing, error) {
	query := bookingWithListingQuery + ` WHERE l.host_profile_id = $1 ORDER BY b.scheduled_start DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, hostProfileID, limit, offset)
}

func (r *bookingRepository) CountByHostProfileID(ctx context.Context, hostProfileID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings b
		JOIN listings l ON l.id = b.listing_id
		WHERE l.host_profile_id = $1
	`

	var count int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, hostProfileID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by host",
			zap.Error(err),
			zap.String("host_profile_id", hostProfileID.String()),
		)
		return 0, fmt.Errorf("count bookings by host %s: %w", hostProfileID.String(), err)
	}
	return count, nil
}

// HasConflict reports whether a live booking on the listing overlaps window.
func (r *bookingRepository) HasConflict(ctx context.Context, listingID uuid.UUID, window entity.Window) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE listing_id = $1
			  AND status = ANY($4)
			  AND (
				(scheduled_start >= $2 AND scheduled_start < $3) OR
				(scheduled_end > $2 AND scheduled_end <= $3) OR
				(scheduled_start <= $2 AND scheduled_end >= $3)
			  )
		)
	`

	var exists bool
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, listingID, window.Start, window.End, liveStatuses()).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check booking conflict",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return false, fmt.Errorf("check booking conflict for listing %s: %w", listingID.String(), err)
	}
	return exists, nil
}

func (r *bookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.BookingStatus, next entity.BookingStatus, update entity.BookingUpdate) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $2,
		    payment_intent_id = COALESCE($3, payment_intent_id),
		    cancel_reason = COALESCE($4, cancel_reason),
		    authorized_at = COALESCE($5, authorized_at),
		    captured_at = COALESCE($6, captured_at),
		    updated_at = NOW()
		WHERE id = $1 AND status = ANY($7)
	`

	expected := make([]string, len(from))
	for i, s := range from {
		expected[i] = string(s)
	}

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		id,
		next,
		update.PaymentIntentID,
		update.CancelReason,
		update.AuthorizedAt,
		update.CapturedAt,
		expected,
	)
	if err != nil {
		r.log.Error("Failed to transition booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("status", string(next)),
		)
		return false, fmt.Errorf("transition booking %s to %s: %w", id.String(), next, err)
	}

	return result.RowsAffected() == 1, nil
}

// SumCapturedHostAmount totals host_amount over completed, captured
// bookings of the host's listings.
func (r *bookingRepository) SumCapturedHostAmount(ctx context.Context, hostProfileID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(b.host_amount), 0)
		FROM bookings b
		JOIN listings l ON l.id = b.listing_id
		WHERE l.host_profile_id = $1
		  AND b.status = $2
		  AND b.captured_at IS NOT NULL
	`

	var total int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, hostProfileID, entity.BookingStatusCompleted).Scan(&total)
	if err != nil {
		r.log.Error("Failed to sum host earnings",
			zap.Error(err),
			zap.String("host_profile_id", hostProfileID.String()),
		)
		return 0, fmt.Errorf("sum earnings for host %s: %w", hostProfileID.String(), err)
	}
	return total, nil
}

func (r *bookingRepository) FindRecentCompleted(ctx context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.BookingWithListing, error) {
	query := bookingWithListingQuery + `
		WHERE l.host_profile_id = $1 AND b.status = $2 AND b.captured_at IS NOT NULL
		ORDER BY b.captured_at DESC
		LIMIT $3
	`
	return r.list(ctx, query, hostProfileID, entity.BookingStatusCompleted, limit)
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...any) ([]*entity.BookingWithListing, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list bookings", zap.Error(err))
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.BookingWithListing
	for rows.Next() {
		bw, err := scanBookingWithListing(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, bw)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}
