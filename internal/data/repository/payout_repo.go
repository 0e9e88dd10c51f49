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

type PayoutRepository interface {
	Create(ctx context.Context, payout *entity.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payout, error)
	FindByHostProfileID(ctx context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.Payout, error)
	// FindAll lists payouts oldest first, filtered by status when given.
	FindAll(ctx context.Context, status *entity.PayoutStatus, limit, offset int) ([]*entity.Payout, error)
	CountAll(ctx context.Context, status *entity.PayoutStatus) (int64, error)
	// Totals sums COMPLETED payouts and those still PENDING or PROCESSING.
	Totals(ctx context.Context, hostProfileID uuid.UUID) (entity.PayoutTotals, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.PayoutStatus, next entity.PayoutStatus, update PayoutStatusUpdate) (bool, error)
}

// PayoutStatusUpdate carries the optional columns stamped with a status
// change.
type PayoutStatusUpdate struct {
	TransferID    *string
	FailureReason *string
	ProcessedAt   *time.Time
	CompletedAt   *time.Time
}

type payoutRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPayoutRepository(db database.PgxIface, log *zap.Logger) PayoutRepository {
	return &payoutRepository{
		db:  db,
		log: log.With(zap.String("repository", "payout")),
	}
}

const payoutColumns = `id, host_profile_id, amount, currency, status, notes, transfer_id,
	failure_reason, requested_at, processed_at, completed_at`

func scanPayout(row pgx.Row) (*entity.Payout, error) {
	var p entity.Payout
	err := row.Scan(
		&p.ID,
		&p.HostProfileID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.Notes,
		&p.TransferID,
		&p.FailureReason,
		&p.RequestedAt,
		&p.ProcessedAt,
		&p.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *payoutRepository) Create(ctx context.Context, payout *entity.Payout) error {
	query := `
		INSERT INTO payouts (id, host_profile_id, amount, currency, status, notes, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		payout.ID,
		payout.HostProfileID,
		payout.Amount,
		payout.Currency,
		payout.Status,
		payout.Notes,
		payout.RequestedAt,
	)
	if err != nil {
		r.log.Error("Failed to create payout",
			zap.Error(err),
			zap.String("host_profile_id", payout.HostProfileID.String()),
			zap.Int64("amount", payout.Amount),
		)
		return fmt.Errorf("create payout for host %s: %w", payout.HostProfileID.String(), err)
	}

	return nil
}

func (r *payoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	payout, err := scanPayout(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payout",
			zap.Error(err),
			zap.String("payout_id", id.String()),
		)
		return nil, fmt.Errorf("find payout %s: %w", id.String(), err)
	}
	return payout, nil
}

func (r *payoutRepository) FindByHostProfileID(ctx context.Context, hostProfileID uuid.UUID, limit int) ([]*entity.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE host_profile_id = $1 ORDER BY requested_at DESC LIMIT $2`
	return r.list(ctx, query, hostProfileID, limit)
}

func (r *payoutRepository) FindAll(ctx context.Context, status *entity.PayoutStatus, limit, offset int) ([]*entity.Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY requested_at ASC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, statusArg(status), limit, offset)
}

func (r *payoutRepository) CountAll(ctx context.Context, status *entity.PayoutStatus) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM payouts WHERE ($1::text IS NULL OR status = $1)`, statusArg(status)).Scan(&count)
	if err != nil {
		r.log.Error("Database error counting payouts", zap.Error(err))
		return 0, fmt.Errorf("count payouts: %w", err)
	}
	return count, nil
}

func statusArg(status *entity.PayoutStatus) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

func (r *payoutRepository) Totals(ctx context.Context, hostProfileID uuid.UUID) (entity.PayoutTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status IN ('PENDING', 'PROCESSING')), 0)
		FROM payouts
		WHERE host_profile_id = $1
	`

	var totals entity.PayoutTotals
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, hostProfileID).Scan(&totals.Completed, &totals.Pending)
	if err != nil {
		r.log.Error("Failed to sum payouts",
			zap.Error(err),
			zap.String("host_profile_id", hostProfileID.String()),
		)
		return entity.PayoutTotals{}, fmt.Errorf("sum payouts for host %s: %w", hostProfileID.String(), err)
	}
	return totals, nil
}

func (r *payoutRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.PayoutStatus, next entity.PayoutStatus, update PayoutStatusUpdate) (bool, error) {
	query := `
		UPDATE payouts
		SET status = $2,
		    transfer_id = COALESCE($3, transfer_id),
		    failure_reason = COALESCE($4, failure_reason),
		    processed_at = COALESCE($5, processed_at),
		    completed_at = COALESCE($6, completed_at)
		WHERE id = $1 AND status = ANY($7)
	`

	expected := make([]string, len(from))
	for i, s := range from {
		expected[i] = string(s)
	}

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		id,
		next,
		update.TransferID,
		update.FailureReason,
		update.ProcessedAt,
		update.CompletedAt,
		expected,
	)
	if err != nil {
		r.log.Error("Failed to transition payout status",
			zap.Error(err),
			zap.String("payout_id", id.String()),
			zap.String("status", string(next)),
		)
		return false, fmt.Errorf("transition payout %s to %s: %w", id.String(), next, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *payoutRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Payout, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list payouts", zap.Error(err))
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*entity.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			r.log.Error("Failed to scan payout row", zap.Error(err))
			return nil, fmt.Errorf("scan payout row: %w", err)
		}
		payouts = append(payouts, payout)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate payout rows: %w", err)
	}

	return payouts, nil
}
