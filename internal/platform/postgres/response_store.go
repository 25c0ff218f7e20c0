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

const responseColumns = `id, session_id, item_id, domain_code, correct, sequence,
	theta_before, se_before, theta_after, se_after, information,
	discrimination, difficulty, guessing, created_at`

// PostgresResponseStore implements store.ResponseStore.
type PostgresResponseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ResponseStore = (*PostgresResponseStore)(nil)

// NewPostgresResponseStore creates a response store over db.
func NewPostgresResponseStore(db store.DBTX, logger *slog.Logger) *PostgresResponseStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresResponseStore{
		db:     db,
		logger: logger.With(slog.String("component", "response_store")),
	}
}

// WithTx implements store.ResponseStore.
func (s *PostgresResponseStore) WithTx(tx *sql.Tx) store.ResponseStore {
	return &PostgresResponseStore{db: tx, logger: s.logger}
}

// Create implements store.ResponseStore.
func (s *PostgresResponseStore) Create(ctx context.Context, r *domain.Response) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var a, b, c sql.NullFloat64
	if r.Calibration != nil {
		a = sql.NullFloat64{Float64: r.Calibration.Discrimination, Valid: true}
		b = sql.NullFloat64{Float64: r.Calibration.Difficulty, Valid: true}
		c = sql.NullFloat64{Float64: r.Calibration.Guessing, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_responses (`+responseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.SessionID, r.ItemID, r.DomainCode, r.Correct, r.Sequence,
		r.ThetaBefore, r.SEBefore, r.ThetaAfter, r.SEAfter, r.Information,
		a, b, c, r.CreatedAt,
	)
	if err != nil {
		s.logger.Error("failed to append response",
			slog.String("session_id", r.SessionID.String()),
			slog.String("item_id", r.ItemID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrSessionNotFound)
	}
	return nil
}

// ListBySession implements store.ResponseStore.
func (s *PostgresResponseStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+responseColumns+`
		FROM session_responses
		WHERE session_id = $1
		ORDER BY sequence`,
		sessionID)
	if err != nil {
		return nil, MapError(err, store.ErrSessionNotFound)
	}
	defer func() { _ = rows.Close() }()

	responses := []domain.Response{}
	for rows.Next() {
		var (
			r       domain.Response
			a, b, c sql.NullFloat64
		)
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.ItemID, &r.DomainCode, &r.Correct, &r.Sequence,
			&r.ThetaBefore, &r.SEBefore, &r.ThetaAfter, &r.SEAfter, &r.Information,
			&a, &b, &c, &r.CreatedAt,
		); err != nil {
			return nil, MapError(err, store.ErrSessionNotFound)
		}
		if a.Valid && b.Valid && c.Valid {
			r.Calibration = &domain.Calibration{
				Discrimination: a.Float64,
				Difficulty:     b.Float64,
				Guessing:       c.Float64,
			}
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err, store.ErrSessionNotFound)
	}
	return responses, nil
}
