package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// PostgresDomainStore implements store.DomainStore.
type PostgresDomainStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.DomainStore = (*PostgresDomainStore)(nil)

// NewPostgresDomainStore creates a knowledge-domain store over db.
func NewPostgresDomainStore(db store.DBTX, logger *slog.Logger) *PostgresDomainStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDomainStore{
		db:     db,
		logger: logger.With(slog.String("component", "domain_store")),
	}
}

// WithTx implements store.DomainStore.
func (s *PostgresDomainStore) WithTx(tx *sql.Tx) store.DomainStore {
	return &PostgresDomainStore{db: tx, logger: s.logger}
}

// Create implements store.DomainStore.
func (s *PostgresDomainStore) Create(ctx context.Context, d *domain.KnowledgeDomain) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_domains (code, name, weight) VALUES ($1, $2, $3)`,
		d.Code, d.Name, d.Weight)
	if err != nil {
		return MapError(err, store.ErrDomainNotFound)
	}
	return nil
}

// List implements store.DomainStore.
func (s *PostgresDomainStore) List(ctx context.Context) ([]domain.KnowledgeDomain, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, weight FROM knowledge_domains ORDER BY code`)
	if err != nil {
		return nil, MapError(err, store.ErrDomainNotFound)
	}
	defer func() { _ = rows.Close() }()

	domains := []domain.KnowledgeDomain{}
	for rows.Next() {
		var d domain.KnowledgeDomain
		if err := rows.Scan(&d.Code, &d.Name, &d.Weight); err != nil {
			return nil, MapError(err, store.ErrDomainNotFound)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err, store.ErrDomainNotFound)
	}
	return domains, nil
}
