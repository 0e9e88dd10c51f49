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

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	Update(ctx context.Context, listing *entity.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	// FindByIDForUpdate locks the listing row until the surrounding
	// transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindByIDWithHost(ctx context.Context, id uuid.UUID) (*entity.ListingWithHost, error)
	FindBySlugWithHost(ctx context.Context, slug string) (*entity.ListingWithHost, error)
	FindByHostProfileID(ctx context.Context, hostProfileID uuid.UUID) ([]*entity.Listing, error)
	FindByStatus(ctx context.Context, status entity.ListingStatus, limit, offset int) ([]*entity.ListingWithHost, error)
	CountByStatus(ctx context.Context, status entity.ListingStatus) (int64, error)
	// TransitionStatus moves the listing to next only while its current
	// status is one of from. It reports false when no row matched.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.ListingStatus, next entity.ListingStatus, update ListingStatusUpdate) (bool, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	IncrementBookingCount(ctx context.Context, id uuid.UUID) error
}

// ListingStatusUpdate carries the optional columns stamped with a status
// change.
type ListingStatusUpdate struct {
	RejectionReason *string
	PublishedAt     *time.Time
}

type listingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewListingRepository(db database.PgxIface, log *zap.Logger) ListingRepository {
	return &listingRepository{
		db:  db,
		log: log.With(zap.String("repository", "listing")),
	}
}

const listingColumns = `l.id, l.host_profile_id, l.title, l.slug, l.type, l.description,
	l.price_amount, l.price_currency, l.duration_minutes, l.max_guests, l.city, l.state,
	l.status, l.view_count, l.booking_count, l.rejection_reason, l.published_at,
	l.created_at, l.updated_at`

func listingDest(l *entity.Listing) []any {
	return []any{
		&l.ID,
		&l.HostProfileID,
		&l.Title,
		&l.Slug,
		&l.Type,
		&l.Description,
		&l.PriceAmount,
		&l.PriceCurrency,
		&l.DurationMinutes,
		&l.MaxGuests,
		&l.City,
		&l.State,
		&l.Status,
		&l.ViewCount,
		&l.BookingCount,
		&l.RejectionReason,
		&l.PublishedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	}
}

func scanListingWithHost(row pgx.Row) (*entity.ListingWithHost, error) {
	var lw entity.ListingWithHost
	dest := append(listingDest(&lw.Listing), &lw.HostUserID, &lw.HostDisplayName, &lw.HostAvatarURL)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &lw, nil
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	query := `
		INSERT INTO listings (id, host_profile_id, title, slug, type, description,
		                      price_amount, price_currency, duration_minutes, max_guests,
		                      city, state, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		listing.ID,
		listing.HostProfileID,
		listing.Title,
		listing.Slug,
		listing.Type,
		listing.Description,
		listing.PriceAmount,
		listing.PriceCurrency,
		listing.DurationMinutes,
		listing.MaxGuests,
		listing.City,
		listing.State,
		listing.Status,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create listing",
			zap.Error(err),
			zap.String("host_profile_id", listing.HostProfileID.String()),
			zap.String("slug", listing.Slug),
		)
		return fmt.Errorf("create listing %s: %w", listing.Slug, err)
	}

	return nil
}

// Update rewrites the host-editable fields. Status moves go through
// TransitionStatus.
func (r *listingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	query := `
		UPDATE listings
		SET title = $2, slug = $3, type = $4, description = $5, price_amount = $6,
		    price_currency = $7, duration_minutes = $8, max_guests = $9,
		    city = $10, state = $11, updated_at = NOW()
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		listing.ID,
		listing.Title,
		listing.Slug,
		listing.Type,
		listing.Description,
		listing.PriceAmount,
		listing.PriceCurrency,
		listing.DurationMinutes,
		listing.MaxGuests,
		listing.City,
		listing.State,
	)
	if err != nil {
		r.log.Error("Failed to update listing",
			zap.Error(err),
			zap.String("listing_id", listing.ID.String()),
		)
		return fmt.Errorf("update listing %s: %w", listing.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("listing %s not found", listing.ID.String())
	}

	return nil
}

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings l WHERE l.id = $1`
	return r.findOne(ctx, query, id)
}

func (r *listingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings l WHERE l.id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id)
}

func (r *listingRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Listing, error) {
	var listing entity.Listing
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(listingDest(&listing)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find listing",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return nil, fmt.Errorf("find listing %s: %w", id.String(), err)
	}
	return &listing, nil
}

const listingWithHostQuery = `
	SELECT ` + listingColumns + `, h.user_id, h.display_name, h.avatar_url
	FROM listings l
	JOIN host_profiles h ON h.id = l.host_profile_id
`

func (r *listingRepository) FindByIDWithHost(ctx context.Context, id uuid.UUID) (*entity.ListingWithHost, error) {
	lw, err := scanListingWithHost(database.Conn(ctx, r.db).QueryRow(ctx, listingWithHostQuery+` WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find listing with host",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return nil, fmt.Errorf("find listing with host %s: %w", id.String(), err)
	}
	return lw, nil
}

func (r *listingRepository) FindBySlugWithHost(ctx context.Context, slug string) (*entity.ListingWithHost, error) {
	lw, err := scanListingWithHost(database.Conn(ctx, r.db).QueryRow(ctx, listingWithHostQuery+` WHERE l.slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find listing by slug",
			zap.Error(err),
			zap.String("slug", slug),
		)
		return nil, fmt.Errorf("find listing by slug %s: %w", slug, err)
	}
	return lw, nil
}

func (r *listingRepository) FindByHostProfileID(ctx context.Context, hostProfileID uuid.UUID) ([]*entity.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings l WHERE l.host_profile_id = $1 ORDER BY l.created_at DESC`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, hostProfileID)
	if err != nil {
		r.log.Error("Failed to get host listings",
			zap.Error(err),
			zap.String("host_profile_id", hostProfileID.String()),
		)
		return nil, fmt.Errorf("find listings for host %s: %w", hostProfileID.String(), err)
	}
	defer rows.Close()

	var listings []*entity.Listing
	for rows.Next() {
		var listing entity.Listing
		if err := rows.Scan(listingDest(&listing)...); err != nil {
			r.log.Error("Failed to scan listing row", zap.Error(err))
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		listings = append(listings, &listing)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}

	return listings, nil
}

// FindByStatus feeds the moderation queue, oldest first.
func (r *listingRepository) FindByStatus(ctx context.Context, status entity.ListingStatus, limit, offset int) ([]*entity.ListingWithHost, error) {
	query := listingWithHostQuery + ` WHERE l.status = $1 ORDER BY l.created_at ASC LIMIT $2 OFFSET $3`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, status, limit, offset)
	if err != nil {
		r.log.Error("Failed to get listings by status",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("find listings by status %s: %w", status, err)
	}
	defer rows.Close()

	var listings []*entity.ListingWithHost
	for rows.Next() {
		lw, err := scanListingWithHost(rows)
		if err != nil {
			r.log.Error("Failed to scan listing row", zap.Error(err))
			return nil, fmt.Errorf("scan listing row: %w", err)
		}
		listings = append(listings, lw)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate listing rows: %w", err)
	}

	return listings, nil
}

func (r *listingRepository) CountByStatus(ctx context.Context, status entity.ListingStatus) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM listings WHERE status = $1`, status).Scan(&count)
	if err != nil {
		r.log.Error("Database error counting listings",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return 0, fmt.Errorf("count listings by status %s: %w", status, err)
	}
	return count, nil
}

func (r *listingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.ListingStatus, next entity.ListingStatus, update ListingStatusUpdate) (bool, error) {
	query := `
		UPDATE listings
		SET status = $2,
		    rejection_reason = $3,
		    published_at = COALESCE($4, published_at),
		    updated_at = NOW()
		WHERE id = $1 AND status = ANY($5)
	`

	expected := make([]string, len(from))
	for i, s := range from {
		expected[i] = string(s)
	}

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id, next, update.RejectionReason, update.PublishedAt, expected)
	if err != nil {
		r.log.Error("Failed to transition listing status",
			zap.Error(err),
			zap.String("listing_id", id.String()),
			zap.String("status", string(next)),
		)
		return false, fmt.Errorf("transition listing %s to %s: %w", id.String(), next, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *listingRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := database.Conn(ctx, r.db).Exec(ctx, `UPDATE listings SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		r.log.Warn("Failed to increment view count",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return fmt.Errorf("increment view count %s: %w", id.String(), err)
	}
	return nil
}

func (r *listingRepository) IncrementBookingCount(ctx context.Context, id uuid.UUID) error {
	_, err := database.Conn(ctx, r.db).Exec(ctx, `UPDATE listings SET booking_count = booking_count + 1 WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to increment booking count",
			zap.Error(err),
			zap.String("listing_id", id.String()),
		)
		return fmt.Errorf("increment booking count %s: %w", id.String(), err)
	}
	return nil
}
