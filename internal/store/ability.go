package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// AbilityStore persists the live ability estimates of each user.
type AbilityStore interface {
	// Get retrieves the ability for a user in a domain (domain.OverallDomain for overall).
	// Returns ErrAbilityNotFound if none has been recorded.
	Get(ctx context.Context, userID uuid.UUID, domainCode string) (*domain.UserAbility, error)

	// ListByUser returns every ability recorded for the user, ordered by domain code.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserAbility, error)

	// Upsert creates or replaces the ability for (user, domain).
	Upsert(ctx context.Context, ability *domain.UserAbility) error

	// WithTx returns a new AbilityStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AbilityStore
}

// AnalysisStore persists immutable per-domain diagnostic snapshots.
type AnalysisStore interface {
	// Create saves a snapshot.
	Create(ctx context.Context, analysis *domain.DomainAnalysis) error

	// LatestByUser returns the most recent snapshot per domain for the user.
	LatestByUser(ctx context.Context, userID uuid.UUID) ([]domain.DomainAnalysis, error)

	// ListBySession returns the snapshots written for a session.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.DomainAnalysis, error)

	// WithTx returns a new AnalysisStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AnalysisStore
}

// GoalStore persists each user's study goal.
type GoalStore interface {
	// Get retrieves the user's goal.
	// Returns ErrGoalNotFound if none is set.
	Get(ctx context.Context, userID uuid.UUID) (*domain.StudyGoal, error)

	// Upsert creates or replaces the user's goal.
	Upsert(ctx context.Context, goal *domain.StudyGoal) error

	// WithTx returns a new GoalStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) GoalStore
}
