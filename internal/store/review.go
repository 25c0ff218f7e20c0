package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// ReviewStore defines the interface for spaced repetition state persistence.
type ReviewStore interface {
	// Create saves a new review record.
	// Returns ErrReviewExists if the user already has a record for the item.
	Create(ctx context.Context, record *domain.ReviewRecord) error

	// Get retrieves the record for a (user, item) pair.
	// Returns ErrReviewNotFound if it does not exist.
	// NOTE: This method does NOT provide any row locking.
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewRecord, error)

	// GetForUpdate retrieves the record with a row-level lock using SELECT FOR UPDATE.
	GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewRecord, error)

	// Update saves a record identified by its user and item IDs.
	// Returns ErrReviewNotFound if it does not exist.
	Update(ctx context.Context, record *domain.ReviewRecord) error

	// ListDue returns active records due at or before now, oldest due first,
	// up to limit records.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]domain.ReviewRecord, error)

	// WithTx returns a new ReviewStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewStore
}
