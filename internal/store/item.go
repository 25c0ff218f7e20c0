package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// ItemStore provides read access to the calibrated item bank.
// Items are authored elsewhere; Create exists for seeding and tests.
type ItemStore interface {
	// Create saves a new item after domain validation.
	Create(ctx context.Context, item *domain.Item) error

	// Get retrieves an item by ID.
	// Returns ErrItemNotFound if the item does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Item, error)

	// List returns every item, calibrated or not, ordered by ID.
	List(ctx context.Context) ([]domain.Item, error)

	// ListUnseen returns calibrated items the user has no review record for,
	// up to limit items, ordered by ID.
	ListUnseen(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Item, error)

	// WithTx returns a new ItemStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ItemStore
}

// DomainStore provides access to the knowledge-domain catalogue.
type DomainStore interface {
	// Create saves a new knowledge domain.
	// Returns ErrDuplicate if the code is taken.
	Create(ctx context.Context, d *domain.KnowledgeDomain) error

	// List returns every domain ordered by code.
	List(ctx context.Context) ([]domain.KnowledgeDomain, error)

	// WithTx returns a new DomainStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) DomainStore
}
