package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// PostgresAbilityStore implements store.AbilityStore.
type PostgresAbilityStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AbilityStore = (*PostgresAbilityStore)(nil)

// NewPostgresAbilityStore creates an ability store over db.
func NewPostgresAbilityStore(db store.DBTX, logger *slog.Logger) *PostgresAbilityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAbilityStore{
		db:     db,
		logger: logger.With(slog.String("component", "ability_store")),
	}
}

// WithTx implements store.AbilityStore.
func (s *PostgresAbilityStore) WithTx(tx *sql.Tx) store.AbilityStore {
	return &PostgresAbilityStore{db: tx, logger: s.logger}
}

// Get implements store.AbilityStore.
func (s *PostgresAbilityStore) Get(ctx context.Context, userID uuid.UUID, domainCode string) (*domain.UserAbility, error) {
	var a domain.UserAbility
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, domain_code, theta, standard_error, source, updated_at
		FROM user_abilities
		WHERE user_id = $1 AND domain_code = $2`,
		userID, domainCode,
	).Scan(&a.UserID, &a.DomainCode, &a.Theta, &a.SE, &a.Source, &a.UpdatedAt)
	if err != nil {
		return nil, MapError(err, store.ErrAbilityNotFound)
	}
	return &a, nil
}

// ListByUser implements store.AbilityStore.
func (s *PostgresAbilityStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserAbility, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, domain_code, theta, standard_error, source, updated_at
		FROM user_abilities
		WHERE user_id = $1
		ORDER BY domain_code`,
		userID)
	if err != nil {
		return nil, MapError(err, store.ErrAbilityNotFound)
	}
	defer func() { _ = rows.Close() }()

	abilities := []domain.UserAbility{}
	for rows.Next() {
		var a domain.UserAbility
		if err := rows.Scan(&a.UserID, &a.DomainCode, &a.Theta, &a.SE, &a.Source, &a.UpdatedAt); err != nil {
			return nil, MapError(err, store.ErrAbilityNotFound)
		}
		abilities = append(abilities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err, store.ErrAbilityNotFound)
	}
	return abilities, nil
}

// Upsert implements store.AbilityStore.
func (s *PostgresAbilityStore) Upsert(ctx context.Context, a *domain.UserAbility) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_abilities (user_id, domain_code, theta, standard_error, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, domain_code) DO UPDATE
		SET theta = EXCLUDED.theta,
		    standard_error = EXCLUDED.standard_error,
		    source = EXCLUDED.source,
		    updated_at = EXCLUDED.updated_at`,
		a.UserID, a.DomainCode, domain.ClampTheta(a.Theta), domain.ClampSE(a.SE), a.Source, a.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to upsert ability",
			slog.String("user_id", a.UserID.String()),
			slog.String("domain_code", a.DomainCode),
			slog.String("error", err.Error()))
		return MapError(err, store.ErrAbilityNotFound)
	}
	return nil
}

// PostgresAnalysisStore implements store.AnalysisStore.
type PostgresAnalysisStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AnalysisStore = (*PostgresAnalysisStore)(nil)

// NewPostgresAnalysisStore creates a domain analysis store over db.
func NewPostgresAnalysisStore(db store.DBTX, logger *slog.Logger) *PostgresAnalysisStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAnalysisStore{
		db:     db,
		logger: logger.With(slog.String("component", "analysis_store")),
	}
}

// WithTx implements store.AnalysisStore.
func (s *PostgresAnalysisStore) WithTx(tx *sql.Tx) store.AnalysisStore {
	return &PostgresAnalysisStore{db: tx, logger: s.logger}
}

// Create implements store.AnalysisStore.
func (s *PostgresAnalysisStore) Create(ctx context.Context, a *domain.DomainAnalysis) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO domain_analyses
		    (id, user_id, session_id, domain_code, theta, standard_error, item_count, correct_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.SessionID, a.DomainCode, a.Theta, a.SE, a.ItemCount, a.CorrectCount, a.CreatedAt,
	)
	if err != nil {
		return MapError(err, store.ErrAnalysisNotFound)
	}
	return nil
}

// LatestByUser implements store.AnalysisStore.
func (s *PostgresAnalysisStore) LatestByUser(ctx context.Context, userID uuid.UUID) ([]domain.DomainAnalysis, error) {
	return s.list(ctx, `
		SELECT DISTINCT ON (domain_code)
		    id, user_id, session_id, domain_code, theta, standard_error, item_count, correct_count, created_at
		FROM domain_analyses
		WHERE user_id = $1
		ORDER BY domain_code, created_at DESC, id`,
		userID)
}

// ListBySession implements store.AnalysisStore.
func (s *PostgresAnalysisStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.DomainAnalysis, error) {
	return s.list(ctx, `
		SELECT id, user_id, session_id, domain_code, theta, standard_error, item_count, correct_count, created_at
		FROM domain_analyses
		WHERE session_id = $1
		ORDER BY domain_code`,
		sessionID)
}

func (s *PostgresAnalysisStore) list(ctx context.Context, query string, args ...any) ([]domain.DomainAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err, store.ErrAnalysisNotFound)
	}
	defer func() { _ = rows.Close() }()

	analyses := []domain.DomainAnalysis{}
	for rows.Next() {
		var a domain.DomainAnalysis
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.SessionID, &a.DomainCode, &a.Theta, &a.SE,
			&a.ItemCount, &a.CorrectCount, &a.CreatedAt,
		); err != nil {
			return nil, MapError(err, store.ErrAnalysisNotFound)
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err, store.ErrAnalysisNotFound)
	}
	return analyses, nil
}

// PostgresGoalStore implements store.GoalStore.
type PostgresGoalStore struct {
	db store.DBTX
}

var _ store.GoalStore = (*PostgresGoalStore)(nil)

// NewPostgresGoalStore creates a study goal store over db.
func NewPostgresGoalStore(db store.DBTX) *PostgresGoalStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &PostgresGoalStore{db: db}
}

// WithTx implements store.GoalStore.
func (s *PostgresGoalStore) WithTx(tx *sql.Tx) store.GoalStore {
	return &PostgresGoalStore{db: tx}
}

// Get implements store.GoalStore.
func (s *PostgresGoalStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StudyGoal, error) {
	var (
		g      domain.StudyGoal
		target sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, target_date, updated_at FROM study_goals WHERE user_id = $1`,
		userID,
	).Scan(&g.UserID, &target, &g.UpdatedAt)
	if err != nil {
		return nil, MapError(err, store.ErrGoalNotFound)
	}
	if target.Valid {
		t := target.Time
		g.TargetDate = &t
	}
	return &g, nil
}

// Upsert implements store.GoalStore.
func (s *PostgresGoalStore) Upsert(ctx context.Context, g *domain.StudyGoal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO study_goals (user_id, target_date, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET target_date = EXCLUDED.target_date,
		    updated_at = EXCLUDED.updated_at`,
		g.UserID, g.TargetDate, g.UpdatedAt,
	)
	return MapError(err, store.ErrGoalNotFound)
}
