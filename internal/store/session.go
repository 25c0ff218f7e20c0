package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// SessionStore defines the interface for diagnostic session persistence.
type SessionStore interface {
	// Create saves a new session.
	// Returns ErrActiveSessionExists if the user already has an active session in that mode.
	Create(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID without its responses.
	// Returns ErrSessionNotFound if the session does not exist.
	// NOTE: This method does NOT provide any row locking.
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// GetForUpdate retrieves a session with a row-level lock using SELECT FOR UPDATE.
	// This should be used within a transaction when the session will be modified.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// GetActive retrieves the user's active session in the given mode.
	// Returns ErrSessionNotFound if there is none.
	GetActive(ctx context.Context, userID uuid.UUID, mode domain.TestMode) (*domain.Session, error)

	// LockUserMode takes a transaction-scoped lock on the (user, mode) pair so
	// concurrent starts cannot both create a session. Must run inside a transaction.
	LockUserMode(ctx context.Context, userID uuid.UUID, mode domain.TestMode) error

	// Update saves the mutable session fields.
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.Session) error

	// WithTx returns a new SessionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) SessionStore
}

// ResponseStore persists the append-only response history of a session.
type ResponseStore interface {
	// Create appends a response.
	// Returns ErrResponseExists if the item was already answered in the session.
	Create(ctx context.Context, response *domain.Response) error

	// ListBySession returns a session's responses ordered by sequence.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Response, error)

	// WithTx returns a new ResponseStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ResponseStore
}
