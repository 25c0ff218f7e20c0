package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

const reviewColumns = `user_id, item_id, domain_code, ease_factor, interval_days, adjusted_interval,
	repetitions, last_quality, next_review_at, last_reviewed_at, ability_snapshot,
	difficulty_snapshot, confidence, active, created_at, updated_at`

// PostgresReviewStore implements store.ReviewStore.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// NewPostgresReviewStore creates a review record store over db.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// WithTx implements store.ReviewStore.
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{db: tx, logger: s.logger}
}

// Create implements store.ReviewStore.
func (s *PostgresReviewStore) Create(ctx context.Context, r *domain.ReviewRecord) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_records (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		r.UserID, r.ItemID, r.DomainCode, r.EaseFactor, r.Interval, r.AdjustedInterval,
		r.Repetitions, r.LastQuality, r.NextReviewAt, nullTime(r.LastReviewedAt),
		r.AbilitySnapshot, r.DifficultySnapshot, r.Confidence, r.Active,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create review record",
			slog.String("user_id", r.UserID.String()),
			slog.String("item_id", r.ItemID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrReviewNotFound)
	}
	return nil
}

// Get implements store.ReviewStore.
func (s *PostgresReviewStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM review_records
		WHERE user_id = $1 AND item_id = $2`,
		userID, itemID)
	r, err := scanReview(row)
	if err != nil {
		return nil, MapError(err, store.ErrReviewNotFound)
	}
	return r, nil
}

// GetForUpdate implements store.ReviewStore.
func (s *PostgresReviewStore) GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reviewColumns+`
		FROM review_records
		WHERE user_id = $1 AND item_id = $2
		FOR UPDATE`,
		userID, itemID)
	r, err := scanReview(row)
	if err != nil {
		return nil, MapError(err, store.ErrReviewNotFound)
	}
	return r, nil
}

// Update implements store.ReviewStore.
func (s *PostgresReviewStore) Update(ctx context.Context, r *domain.ReviewRecord) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE review_records
		SET ease_factor = $3,
		    interval_days = $4,
		    adjusted_interval = $5,
		    repetitions = $6,
		    last_quality = $7,
		    next_review_at = $8,
		    last_reviewed_at = $9,
		    ability_snapshot = $10,
		    difficulty_snapshot = $11,
		    confidence = $12,
		    active = $13,
		    updated_at = $14
		WHERE user_id = $1 AND item_id = $2`,
		r.UserID, r.ItemID, r.EaseFactor, r.Interval, r.AdjustedInterval,
		r.Repetitions, r.LastQuality, r.NextReviewAt, nullTime(r.LastReviewedAt),
		r.AbilitySnapshot, r.DifficultySnapshot, r.Confidence, r.Active, r.UpdatedAt,
	)
	if err != nil {
		return MapError(err, store.ErrReviewNotFound)
	}
	return CheckRowsAffected(result, "review_record", store.ErrReviewNotFound)
}

// ListDue implements store.ReviewStore.
func (s *PostgresReviewStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]domain.ReviewRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM review_records
		WHERE user_id = $1 AND active AND next_review_at <= $2
		ORDER BY next_review_at, item_id
		LIMIT $3`,
		userID, now, limit)
	if err != nil {
		return nil, MapError(err, store.ErrReviewNotFound)
	}
	defer func() { _ = rows.Close() }()

	records := []domain.ReviewRecord{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, MapError(err, store.ErrReviewNotFound)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err, store.ErrReviewNotFound)
	}
	return records, nil
}

func scanReview(row scanner) (*domain.ReviewRecord, error) {
	var (
		r            domain.ReviewRecord
		lastReviewed sql.NullTime
	)
	err := row.Scan(
		&r.UserID, &r.ItemID, &r.DomainCode, &r.EaseFactor, &r.Interval, &r.AdjustedInterval,
		&r.Repetitions, &r.LastQuality, &r.NextReviewAt, &lastReviewed,
		&r.AbilitySnapshot, &r.DifficultySnapshot, &r.Confidence, &r.Active,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		r.LastReviewedAt = lastReviewed.Time
	}
	return &r, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
