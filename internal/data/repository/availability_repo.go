package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// MaxAvailableSlots caps the public slot listing.
const MaxAvailableSlots = 10

type AvailabilityRepository interface {
	Create(ctx context.Context, slot *entity.Availability) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Availability, error)
	Delete(ctx context.Context, id uuid.UUID) error
	HasOverlap(ctx context.Context, listingID uuid.UUID, window entity.Window) (bool, error)
	FindAvailable(ctx context.Context, listingID uuid.UUID, after time.Time) ([]*entity.Availability, error)
	FindByListingID(ctx context.Context, listingID uuid.UUID) ([]*entity.Availability, error)
	// MarkBookedInWindow flags every slot of the listing overlapping window.
	MarkBookedInWindow(ctx context.Context, listingID uuid.UUID, window entity.Window) (int64, error)
	// ReleaseInWindow clears the flag on slots overlapping window unless
	// another slot-holding booking, other than exceptBookingID, still
	// overlaps them.
	ReleaseInWindow(ctx context.Context, listingID uuid.UUID, window entity.Window, exceptBookingID uuid.UUID) (int64, error)
}

type availabilityRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAvailabilityRepository(db database.PgxIface, log *zap.Logger) AvailabilityRepository {
	return &availabilityRepository{
		db:  db,
		log: log.With(zap.String("repository", "availability")),
	}
}

// overlapClause is the three-way overlap test against ($2, $3): the row
// starts inside the window, ends inside it, or contains it.
const overlapClause = `(
	(start_time >= $2 AND start_time < $3) OR
	(end_time > $2 AND end_time <= $3) OR
	(start_time <= $2 AND end_time >= $3)
)`

const availabilityColumns = `id, listing_id, start_time, end_time, is_booked, created_at`

func scanAvailability(row pgx.Row) (*entity.Availability, error) {
	var a entity.Availability
	if err := row.Scan(&a.ID, &a.ListingID, &a.StartTime, &a.EndTime, &a.IsBooked, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *availabilityRepository) Create(ctx context.Context, slot *entity.Availability) error {
	query := `
		INSERT INTO availability (id, listing_id, start_time, end_time, is_booked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		slot.ID,
		slot.ListingID,
		slot.StartTime,
		slot.EndTime,
		slot.IsBooked,
		slot.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create availability slot",
			zap.Error(err),
			zap.String("listing_id", slot.ListingID.String()),
		)
		return fmt.Errorf("create slot for listing %s: %w", slot.ListingID.String(), err)
	}

	return nil
}

func (r *availabilityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE id = $1`

	slot, err := scanAvailability(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find availability slot",
			zap.Error(err),
			zap.String("slot_id", id.String()),
		)
		return nil, fmt.Errorf("find slot %s: %w", id.String(), err)
	}
	return slot, nil
}

// Delete removes an unbooked slot. Booked slots are left untouched.
func (r *availabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM availability WHERE id = $1 AND is_booked = FALSE`, id)
	if err != nil {
		r.log.Error("Failed to delete availability slot",
			zap.Error(err),
			zap.String("slot_id", id.String()),
		)
		return fmt.Errorf("delete slot %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("slot %s not found or already booked", id.String())
	}

	return nil
}

func (r *availabilityRepository) HasOverlap(ctx context.Context, listingID uuid.UUID, window entity.Window) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM availability WHERE listing_id = $1 AND ` + overlapClause + `)`

	var exists bool
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, listingID, window.Start, window.End).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check slot overlap",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return false, fmt.Errorf("check slot overlap for listing %s: %w", listingID.String(), err)
	}
	return exists, nil
}

func (r *availabilityRepository) FindAvailable(ctx context.Context, listingID uuid.UUID, after time.Time) ([]*entity.Availability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM availability
		WHERE listing_id = $1 AND is_booked = FALSE AND start_time > $2
		ORDER BY start_time ASC
		LIMIT $3
	`
	return r.list(ctx, query, listingID, after, MaxAvailableSlots)
}

func (r *availabilityRepository) FindByListingID(ctx context.Context, listingID uuid.UUID) ([]*entity.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE listing_id = $1 ORDER BY start_time ASC`
	return r.list(ctx, query, listingID)
}

func (r *availabilityRepository) list(ctx context.Context, query string, listingID uuid.UUID, args ...any) ([]*entity.Availability, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, append([]any{listingID}, args...)...)
	if err != nil {
		r.log.Error("Failed to get availability slots",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return nil, fmt.Errorf("find slots for listing %s: %w", listingID.String(), err)
	}
	defer rows.Close()

	var slots []*entity.Availability
	for rows.Next() {
		slot, err := scanAvailability(rows)
		if err != nil {
			r.log.Error("Failed to scan slot row", zap.Error(err))
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate slot rows: %w", err)
	}

	return slots, nil
}

func (r *availabilityRepository) MarkBookedInWindow(ctx context.Context, listingID uuid.UUID, window entity.Window) (int64, error) {
	query := `UPDATE availability SET is_booked = TRUE WHERE listing_id = $1 AND ` + overlapClause

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, listingID, window.Start, window.End)
	if err != nil {
		r.log.Error("Failed to mark slots booked",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return 0, fmt.Errorf("mark slots booked for listing %s: %w", listingID.String(), err)
	}
	return result.RowsAffected(), nil
}

func (r *availabilityRepository) ReleaseInWindow(ctx context.Context, listingID uuid.UUID, window entity.Window, exceptBookingID uuid.UUID) (int64, error) {
	query := `
		UPDATE availability a SET is_booked = FALSE
		WHERE a.listing_id = $1 AND a.is_booked AND ` + overlapClause + `
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.listing_id = a.listing_id
			  AND b.id <> $4
			  AND b.status = ANY($5)
			  AND b.scheduled_start < a.end_time
			  AND b.scheduled_end > a.start_time
		  )
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		listingID, window.Start, window.End, exceptBookingID, statusStrings(entity.SlotHoldingStatuses))
	if err != nil {
		r.log.Error("Failed to release slots",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
			zap.String("booking_id", exceptBookingID.String()),
		)
		return 0, fmt.Errorf("release slots for listing %s: %w", listingID.String(), err)
	}
	return result.RowsAffected(), nil
}
