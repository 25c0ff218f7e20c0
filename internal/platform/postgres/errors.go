package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// Constraint names that map to entity-specific errors.
const (
	activeSessionIndex     = "idx_sessions_one_active"
	responseItemConstraint = "session_responses_session_id_item_id_key"
	reviewRecordPrimaryKey = "review_records_pkey"
)

// MapError maps a database error to a store error. The original error is
// kept in the chain for logging, but callers should only match on the
// store sentinels. notFound is returned for sql.ErrNoRows.
func MapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound == nil {
		notFound = store.ErrNotFound
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", duplicateFor(pgErr.ConstraintName), err)
		case foreignKeyViolationCode:
			return fmt.Errorf("%w: foreign key violation (%s): %v",
				store.ErrInvalidEntity, pgErr.ConstraintName, err)
		case checkViolationCode:
			return fmt.Errorf("%w: check constraint violation (%s): %v",
				store.ErrInvalidEntity, pgErr.ConstraintName, err)
		case notNullViolationCode:
			return fmt.Errorf("%w: not null violation (%s): %v",
				store.ErrInvalidEntity, pgErr.ColumnName, err)
		}
	}

	return fmt.Errorf("%w: %v", store.ErrInternal, err)
}

func duplicateFor(constraint string) error {
	switch constraint {
	case activeSessionIndex:
		return store.ErrActiveSessionExists
	case responseItemConstraint:
		return store.ErrResponseExists
	case reviewRecordPrimaryKey:
		return store.ErrReviewExists
	default:
		return store.ErrDuplicate
	}
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected returns a StoreError wrapping notFound when an UPDATE on
// entity touched no rows.
func CheckRowsAffected(result sql.Result, entity string, notFound error) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", store.ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %v", store.ErrInternal, err)
	}
	if rows == 0 {
		return store.NewStoreError(entity, "update", "no rows affected", notFound)
	}
	return nil
}
