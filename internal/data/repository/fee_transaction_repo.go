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

// FeeTransactionRepository is append-only apart from MarkProcessed.
type FeeTransactionRepository interface {
	Create(ctx context.Context, fee *entity.FeeTransaction) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.FeeTransaction, error)
	MarkProcessed(ctx context.Context, bookingID uuid.UUID) error
}

type feeTransactionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewFeeTransactionRepository(db database.PgxIface, log *zap.Logger) FeeTransactionRepository {
	return &feeTransactionRepository{
		db:  db,
		log: log.With(zap.String("repository", "fee_transaction")),
	}
}

func (r *feeTransactionRepository) Create(ctx context.Context, fee *entity.FeeTransaction) error {
	query := `
		INSERT INTO fee_transactions (id, booking_id, processor, transaction_id, amount,
		                              platform_fee, host_payout, processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		fee.ID,
		fee.BookingID,
		fee.Processor,
		fee.TransactionID,
		fee.Amount,
		fee.PlatformFee,
		fee.HostPayout,
		fee.Processed,
		fee.CreatedAt,
	)

	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return fmt.Errorf("create fee transaction for booking %s: %w", fee.BookingID.String(), ErrConflict)
	}
	if err != nil {
		r.log.Error("Failed to create fee transaction",
			zap.Error(err),
			zap.String("booking_id", fee.BookingID.String()),
			zap.String("processor", fee.Processor),
		)
		return fmt.Errorf("create fee transaction for booking %s: %w", fee.BookingID.String(), err)
	}

	return nil
}

func (r *feeTransactionRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.FeeTransaction, error) {
	query := `
		SELECT id, booking_id, processor, transaction_id, amount, platform_fee,
		       host_payout, processed, processed_at, created_at
		FROM fee_transactions
		WHERE booking_id = $1
	`

	var fee entity.FeeTransaction
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, bookingID).Scan(
		&fee.ID,
		&fee.BookingID,
		&fee.Processor,
		&fee.TransactionID,
		&fee.Amount,
		&fee.PlatformFee,
		&fee.HostPayout,
		&fee.Processed,
		&fee.ProcessedAt,
		&fee.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find fee transaction",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find fee transaction for booking %s: %w", bookingID.String(), err)
	}

	return &fee, nil
}

func (r *feeTransactionRepository) MarkProcessed(ctx context.Context, bookingID uuid.UUID) error {
	query := `
		UPDATE fee_transactions
		SET processed = TRUE, processed_at = NOW()
		WHERE booking_id = $1 AND processed = FALSE
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to mark fee transaction processed",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return fmt.Errorf("mark fee transaction processed for booking %s: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("fee transaction for booking %s not found or already processed", bookingID.String())
	}

	return nil
}
