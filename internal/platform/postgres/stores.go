package postgres

import (
	"log/slog"

	"github.com/phrazzld/scry-adaptive/internal/store"
)

// NewStores builds every PostgreSQL store over db.
func NewStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Items:     NewPostgresItemStore(db, logger),
		Domains:   NewPostgresDomainStore(db, logger),
		Sessions:  NewPostgresSessionStore(db, logger),
		Responses: NewPostgresResponseStore(db, logger),
		Reviews:   NewPostgresReviewStore(db, logger),
		Abilities: NewPostgresAbilityStore(db, logger),
		Analyses:  NewPostgresAnalysisStore(db, logger),
		Goals:     NewPostgresGoalStore(db),
	}
}
