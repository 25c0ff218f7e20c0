package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation affects no rows
	// or violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInternal is returned for unexpected database failures. The wrapped
	// error is never shown to clients.
	ErrInternal = errors.New("internal store error")

	// Entity-specific "not found" errors

	ErrItemNotFound     = fmt.Errorf("%w: item", ErrNotFound)
	ErrDomainNotFound   = fmt.Errorf("%w: knowledge domain", ErrNotFound)
	ErrSessionNotFound  = fmt.Errorf("%w: session", ErrNotFound)
	ErrReviewNotFound   = fmt.Errorf("%w: review record", ErrNotFound)
	ErrAbilityNotFound  = fmt.Errorf("%w: user ability", ErrNotFound)
	ErrGoalNotFound     = fmt.Errorf("%w: study goal", ErrNotFound)
	ErrAnalysisNotFound = fmt.Errorf("%w: domain analysis", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrActiveSessionExists indicates the user already has an active session in that mode.
	ErrActiveSessionExists = fmt.Errorf("%w: active session", ErrDuplicate)

	// ErrResponseExists indicates the item was already answered in the session.
	ErrResponseExists = fmt.Errorf("%w: response", ErrDuplicate)

	// ErrReviewExists indicates the user already has a review record for the item.
	ErrReviewExists = fmt.Errorf("%w: review record", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsInternalError checks if the error is an unexpected store failure.
func IsInternalError(err error) bool {
	return errors.Is(err, ErrInternal)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "session", "review_record")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
