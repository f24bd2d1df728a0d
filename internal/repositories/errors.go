package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrLockTimeout is returned when a row lock could not be acquired in time,
	// or the transaction was chosen as a deadlock/serialization victim. Retryable.
	ErrLockTimeout = errors.New("lock wait timeout")
)

// Postgres SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
	pgQueryCanceled        = "57014"
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
// This allows for generic scanning helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// translateError maps driver errors onto the repository error taxonomy.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, op, pqErr.Constraint)
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure, pgQueryCanceled:
			return fmt.Errorf("%w: %s: %v", ErrLockTimeout, op, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s (constraint: %s): %v", ErrDatabaseError, op, pqErr.Constraint, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrLockTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
}

// notFoundOr returns ErrNotFound for sql.ErrNoRows and translates everything else.
func notFoundOr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return translateError(op, err)
}
