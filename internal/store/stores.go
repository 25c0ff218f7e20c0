package store

import (
	"context"
	"database/sql"
)

// Stores groups every store so services can take one dependency and
// transactions can rebind them all at once.
type Stores struct {
	Items     ItemStore
	Domains   DomainStore
	Sessions  SessionStore
	Responses ResponseStore
	Reviews   ReviewStore
	Abilities AbilityStore
	Analyses  AnalysisStore
	Goals     GoalStore
}

// WithTx returns a copy of s with every store bound to tx.
func (s Stores) WithTx(tx *sql.Tx) Stores {
	return Stores{
		Items:     s.Items.WithTx(tx),
		Domains:   s.Domains.WithTx(tx),
		Sessions:  s.Sessions.WithTx(tx),
		Responses: s.Responses.WithTx(tx),
		Reviews:   s.Reviews.WithTx(tx),
		Abilities: s.Abilities.WithTx(tx),
		Analyses:  s.Analyses.WithTx(tx),
		Goals:     s.Goals.WithTx(tx),
	}
}

// Transactor runs a unit of work atomically. The Stores passed to fn are
// bound to the transaction; fn must not retain them.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// SQLTransactor is the database/sql Transactor.
type SQLTransactor struct {
	db     *sql.DB
	stores Stores
}

var _ Transactor = (*SQLTransactor)(nil)

// NewSQLTransactor creates a Transactor that rebinds stores to each transaction.
func NewSQLTransactor(db *sql.DB, stores Stores) *SQLTransactor {
	return &SQLTransactor{db: db, stores: stores}
}

// RunInTx implements Transactor using RunInTransaction.
func (t *SQLTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	return RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, t.stores.WithTx(tx))
	})
}
