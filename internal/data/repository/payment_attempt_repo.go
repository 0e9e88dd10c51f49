package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentAttemptRepository interface {
	Create(ctx context.Context, attempt *entity.PaymentAttempt) error
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.PaymentAttempt, error)
	MarkSucceeded(ctx context.Context, key, processor, transactionID string) error
	MarkFailed(ctx context.Context, key string, processor *string, message string) error
	// Reopen moves a FAILED attempt back to PENDING so the same key can be
	// retried. It reports false when the attempt was not FAILED.
	Reopen(ctx context.Context, key string) (bool, error)
}

type paymentAttemptRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentAttemptRepository(db database.PgxIface, log *zap.Logger) PaymentAttemptRepository {
	return &paymentAttemptRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_attempt")),
	}
}

// Create records a PENDING attempt. A reused key is reported as ErrConflict.
func (r *paymentAttemptRepository) Create(ctx context.Context, attempt *entity.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts (id, booking_id, idempotency_key, amount, currency,
		                              status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		attempt.ID,
		attempt.BookingID,
		attempt.IdempotencyKey,
		attempt.Amount,
		attempt.Currency,
		attempt.Status,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)

	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return fmt.Errorf("create payment attempt %s: %w", attempt.IdempotencyKey, ErrConflict)
	}
	if err != nil {
		r.log.Error("Failed to create payment attempt",
			zap.Error(err),
			zap.String("booking_id", attempt.BookingID.String()),
			zap.String("idempotency_key", attempt.IdempotencyKey),
		)
		return fmt.Errorf("create payment attempt %s: %w", attempt.IdempotencyKey, err)
	}

	return nil
}

func (r *paymentAttemptRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.PaymentAttempt, error) {
	query := `
		SELECT id, booking_id, idempotency_key, amount, currency, status, processor,
		       transaction_id, error_message, created_at, updated_at
		FROM payment_attempts
		WHERE idempotency_key = $1
	`

	var a entity.PaymentAttempt
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, key).Scan(
		&a.ID,
		&a.BookingID,
		&a.IdempotencyKey,
		&a.Amount,
		&a.Currency,
		&a.Status,
		&a.Processor,
		&a.TransactionID,
		&a.ErrorMessage,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment attempt",
			zap.Error(err),
			zap.String("idempotency_key", key),
		)
		return nil, fmt.Errorf("find payment attempt %s: %w", key, err)
	}

	return &a, nil
}

func (r *paymentAttemptRepository) MarkSucceeded(ctx context.Context, key, processor, transactionID string) error {
	query := `
		UPDATE payment_attempts
		SET status = $2, processor = $3, transaction_id = $4, error_message = NULL, updated_at = NOW()
		WHERE idempotency_key = $1
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query, key, entity.PaymentAttemptSucceeded, processor, transactionID)
	if err != nil {
		r.log.Error("Failed to mark payment attempt succeeded",
			zap.Error(err),
			zap.String("idempotency_key", key),
		)
		return fmt.Errorf("mark payment attempt %s succeeded: %w", key, err)
	}
	return nil
}

func (r *paymentAttemptRepository) MarkFailed(ctx context.Context, key string, processor *string, message string) error {
	query := `
		UPDATE payment_attempts
		SET status = $2, processor = COALESCE($3, processor), error_message = $4, updated_at = NOW()
		WHERE idempotency_key = $1
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query, key, entity.PaymentAttemptFailed, processor, message)
	if err != nil {
		r.log.Error("Failed to mark payment attempt failed",
			zap.Error(err),
			zap.String("idempotency_key", key),
		)
		return fmt.Errorf("mark payment attempt %s failed: %w", key, err)
	}
	return nil
}

func (r *paymentAttemptRepository) Reopen(ctx context.Context, key string) (bool, error) {
	query := `
		UPDATE payment_attempts
		SET status = $2, error_message = NULL, updated_at = NOW()
		WHERE idempotency_key = $1 AND status = $3
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, key, entity.PaymentAttemptPending, entity.PaymentAttemptFailed)
	if err != nil {
		r.log.Error("Failed to reopen payment attempt",
			zap.Error(err),
			zap.String("idempotency_key", key),
		)
		return false, fmt.Errorf("reopen payment attempt %s: %w", key, err)
	}
	return result.RowsAffected() == 1, nil
}
