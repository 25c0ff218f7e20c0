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

const sessionColumns = `id, user_id, test_mode, theta, standard_error, status, termination_reason,
	quota_per_domain, min_items, max_items, precision_threshold, time_limit_seconds,
	current_item_id, started_at, completed_at, updated_at`

// PostgresSessionStore implements store.SessionStore.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

// NewPostgresSessionStore creates a session store over db.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// WithTx implements store.SessionStore.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{db: tx, logger: s.logger}
}

// Create implements store.SessionStore.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diagnostic_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		session.ID,
		session.UserID,
		session.Mode,
		session.Theta,
		session.SE,
		session.Status,
		nullString(string(session.TerminationReason)),
		session.QuotaPerDomain,
		session.MinItems,
		session.MaxItems,
		session.PrecisionThreshold,
		int64(session.TimeLimit/time.Second),
		nullUUID(session.CurrentItemID),
		session.StartedAt,
		session.CompletedAt,
		session.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create session",
			slog.String("session_id", session.ID.String()),
			slog.String("user_id", session.UserID.String()),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrSessionNotFound)
	}
	return nil
}

// Get implements store.SessionStore.
func (s *PostgresSessionStore) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.getOne(ctx, `SELECT `+sessionColumns+` FROM diagnostic_sessions WHERE id = $1`, id)
}

// GetForUpdate implements store.SessionStore.
func (s *PostgresSessionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.getOne(ctx, `SELECT `+sessionColumns+` FROM diagnostic_sessions WHERE id = $1 FOR UPDATE`, id)
}

// GetActive implements store.SessionStore.
func (s *PostgresSessionStore) GetActive(
	ctx context.Context,
	userID uuid.UUID,
	mode domain.TestMode,
) (*domain.Session, error) {
	return s.getOne(ctx, `
		SELECT `+sessionColumns+`
		FROM diagnostic_sessions
		WHERE user_id = $1 AND test_mode = $2 AND status = 'active'`,
		userID, mode)
}

// LockUserMode implements store.SessionStore with a transaction-scoped advisory lock.
func (s *PostgresSessionStore) LockUserMode(ctx context.Context, userID uuid.UUID, mode domain.TestMode) error {
	key := userID.String() + ":" + string(mode)
	if _, err := s.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return MapError(err, store.ErrSessionNotFound)
	}
	return nil
}

// Update implements store.SessionStore.
func (s *PostgresSessionStore) Update(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE diagnostic_sessions
		SET theta = $2,
		    standard_error = $3,
		    status = $4,
		    termination_reason = $5,
		    current_item_id = $6,
		    completed_at = $7,
		    updated_at = $8
		WHERE id = $1`,
		session.ID,
		session.Theta,
		session.SE,
		session.Status,
		nullString(string(session.TerminationReason)),
		nullUUID(session.CurrentItemID),
		session.CompletedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return MapError(err, store.ErrSessionNotFound)
	}
	return CheckRowsAffected(result, "session", store.ErrSessionNotFound)
}

func (s *PostgresSessionStore) getOne(ctx context.Context, query string, args ...any) (*domain.Session, error) {
	var (
		session     domain.Session
		reason      sql.NullString
		limitSecs   int64
		currentItem uuid.NullUUID
		completedAt sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&session.ID,
		&session.UserID,
		&session.Mode,
		&session.Theta,
		&session.SE,
		&session.Status,
		&reason,
		&session.QuotaPerDomain,
		&session.MinItems,
		&session.MaxItems,
		&session.PrecisionThreshold,
		&limitSecs,
		&currentItem,
		&session.StartedAt,
		&completedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, MapError(err, store.ErrSessionNotFound)
	}

	session.TerminationReason = domain.TerminationReason(reason.String)
	session.TimeLimit = time.Duration(limitSecs) * time.Second
	if currentItem.Valid {
		session.CurrentItemID = currentItem.UUID
	}
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	return &session, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
