package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the data layer reacts to.
const (
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeUniqueViolation      = "23505"
	CodeExclusionViolation   = "23P01"
)

const maxTxAttempts = 3

type txKey struct{}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// Transactor runs a function inside a database transaction. Repositories
// called with the ctx passed to fn join that transaction through Conn.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type pgTransactor struct {
	db   PgxIface
	opts pgx.TxOptions
}

// NewTransactor returns a serializable Transactor that retries
// serialization failures.
func NewTransactor(db PgxIface) Transactor {
	return &pgTransactor{
		db:   db,
		opts: pgx.TxOptions{IsoLevel: pgx.Serializable},
	}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = t.run(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", maxTxAttempts, err)
}

func (t *pgTransactor) run(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// PgErrorCode extracts the SQLSTATE from err, or "" when err is not a
// Postgres error.
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsRetryable(err error) bool {
	code := PgErrorCode(err)
	return code == CodeSerializationFailure || code == CodeDeadlockDetected
}
