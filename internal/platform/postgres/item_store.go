package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

const itemColumns = `id, domain_code, calibration_status, discrimination, difficulty, guessing`

// PostgresItemStore implements store.ItemStore.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ItemStore = (*PostgresItemStore)(nil)

// NewPostgresItemStore creates an item store over db.
// If logger is nil, a default logger will be used.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// WithTx implements store.ItemStore.
func (s *PostgresItemStore) WithTx(tx *sql.Tx) store.ItemStore {
	return &PostgresItemStore{db: tx, logger: s.logger}
}

// Create implements store.ItemStore.
func (s *PostgresItemStore) Create(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var a, b, c sql.NullFloat64
	if item.Calibration != nil {
		a = sql.NullFloat64{Float64: item.Calibration.Discrimination, Valid: true}
		b = sql.NullFloat64{Float64: item.Calibration.Difficulty, Valid: true}
		c = sql.NullFloat64{Float64: item.Calibration.Guessing, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		item.ID, item.DomainCode, item.Status, a, b, c,
	)
	if err != nil {
		s.logger.Error("failed to create item",
			slog.String("item_id", item.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrItemNotFound)
	}
	return nil
}

// Get implements store.ItemStore.
func (s *PostgresItemStore) Get(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id)

	item, err := scanItem(row)
	if err != nil {
		return nil, MapError(err, store.ErrItemNotFound)
	}
	return item, nil
}

// List implements store.ItemStore.
func (s *PostgresItemStore) List(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, MapError(err, store.ErrItemNotFound)
	}
	return collectItems(rows)
}

// ListUnseen implements store.ItemStore.
func (s *PostgresItemStore) ListUnseen(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items i
		WHERE i.calibration_status = 'calibrated'
		  AND NOT EXISTS (
		      SELECT 1 FROM review_records r
		      WHERE r.user_id = $1 AND r.item_id = i.id
		  )
		ORDER BY i.id
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, MapError(err, store.ErrItemNotFound)
	}
	return collectItems(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*domain.Item, error) {
	var (
		item    domain.Item
		a, b, c sql.NullFloat64
	)
	if err := row.Scan(&item.ID, &item.DomainCode, &item.Status, &a, &b, &c); err != nil {
		return nil, err
	}
	if a.Valid && b.Valid && c.Valid {
		item.Calibration = &domain.Calibration{
			Discrimination: a.Float64,
			Difficulty:     b.Float64,
			Guessing:       c.Float64,
		}
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]domain.Item, error) {
	defer func() { _ = rows.Close() }()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, MapError(err, store.ErrItemNotFound)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err, store.ErrItemNotFound)
	}
	return items, nil
}
