package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// Operation names accepted as keys of MemoryDB.Errors.
const (
	OpItemList         = "items.list"
	OpItemListUnseen   = "items.list_unseen"
	OpDomainList       = "domains.list"
	OpSessionCreate    = "sessions.create"
	OpSessionUpdate    = "sessions.update"
	OpResponseCreate   = "responses.create"
	OpReviewCreate     = "reviews.create"
	OpReviewUpdate     = "reviews.update"
	OpReviewListDue    = "reviews.list_due"
	OpAbilityUpsert    = "abilities.upsert"
	OpAbilityListUser  = "abilities.list_by_user"
	OpAnalysisCreate   = "analyses.create"
	OpAnalysisLatest   = "analyses.latest_by_user"
	OpGoalGet          = "goals.get"
	OpTransactionStart = "tx.begin"
)

type reviewKey struct {
	userID uuid.UUID
	itemID uuid.UUID
}

type abilityKey struct {
	userID     uuid.UUID
	domainCode string
}

type tables struct {
	domains   map[string]domain.KnowledgeDomain
	items     map[uuid.UUID]domain.Item
	sessions  map[uuid.UUID]domain.Session
	responses map[uuid.UUID][]domain.Response
	reviews   map[reviewKey]domain.ReviewRecord
	abilities map[abilityKey]domain.UserAbility
	analyses  []domain.DomainAnalysis
	goals     map[uuid.UUID]domain.StudyGoal
}

func newTables() tables {
	return tables{
		domains:   make(map[string]domain.KnowledgeDomain),
		items:     make(map[uuid.UUID]domain.Item),
		sessions:  make(map[uuid.UUID]domain.Session),
		responses: make(map[uuid.UUID][]domain.Response),
		reviews:   make(map[reviewKey]domain.ReviewRecord),
		abilities: make(map[abilityKey]domain.UserAbility),
		goals:     make(map[uuid.UUID]domain.StudyGoal),
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.domains {
		c.domains[k] = v
	}
	for k, v := range t.items {
		c.items[k] = v
	}
	for k, v := range t.sessions {
		c.sessions[k] = v
	}
	for k, v := range t.responses {
		c.responses[k] = append([]domain.Response(nil), v...)
	}
	for k, v := range t.reviews {
		c.reviews[k] = v
	}
	for k, v := range t.abilities {
		c.abilities[k] = v
	}
	c.analyses = append([]domain.DomainAnalysis(nil), t.analyses...)
	for k, v := range t.goals {
		c.goals[k] = v
	}
	return c
}

// MemoryDB is an in-memory database shared by the memory stores.
type MemoryDB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data tables

	// Errors makes the named operation fail with the given error.
	Errors map[string]error

	// TxCount counts committed and rolled back transactions.
	TxCount int
}

var _ store.Transactor = (*MemoryDB)(nil)

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		data:   newTables(),
		Errors: make(map[string]error),
	}
}

// Stores returns every store backed by this database.
func (db *MemoryDB) Stores() store.Stores {
	return store.Stores{
		Items:     &MemoryItemStore{db: db},
		Domains:   &MemoryDomainStore{db: db},
		Sessions:  &MemorySessionStore{db: db},
		Responses: &MemoryResponseStore{db: db},
		Reviews:   &MemoryReviewStore{db: db},
		Abilities: &MemoryAbilityStore{db: db},
		Analyses:  &MemoryAnalysisStore{db: db},
		Goals:     &MemoryGoalStore{db: db},
	}
}

// RunInTx implements store.Transactor. Transactions run one at a time and
// roll back to the prior state when fn returns an error or panics.
func (db *MemoryDB) RunInTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) (err error) {
	if err := db.fail(OpTransactionStart); err != nil {
		return err
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.data.clone()
	db.TxCount++
	db.mu.Unlock()

	rollback := func() {
		db.mu.Lock()
		db.data = snapshot
		db.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(ctx, db.Stores()); err != nil {
		rollback()
	}
	return err
}

func (db *MemoryDB) fail(op string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.Errors[op]
}

// SetError makes op fail with err. A nil err clears it.
func (db *MemoryDB) SetError(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.Errors, op)
		return
	}
	db.Errors[op] = err
}

// SeedDomains adds domains to the catalogue.
func (db *MemoryDB) SeedDomains(domains ...domain.KnowledgeDomain) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, d := range domains {
		db.data.domains[d.Code] = d
	}
}

// SeedItems adds items to the item bank.
func (db *MemoryDB) SeedItems(items ...domain.Item) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, item := range items {
		db.data.items[item.ID] = item
	}
}

// SeedReviews stores review records as they are.
func (db *MemoryDB) SeedReviews(records ...domain.ReviewRecord) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, r := range records {
		db.data.reviews[reviewKey{r.UserID, r.ItemID}] = r
	}
}

// SeedAbilities stores abilities as they are.
func (db *MemoryDB) SeedAbilities(abilities ...domain.UserAbility) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, a := range abilities {
		db.data.abilities[abilityKey{a.UserID, a.DomainCode}] = a
	}
}

// SeedAnalyses stores domain analyses as they are.
func (db *MemoryDB) SeedAnalyses(analyses ...domain.DomainAnalysis) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.analyses = append(db.data.analyses, analyses...)
}

// SeedGoal stores a study goal.
func (db *MemoryDB) SeedGoal(goal domain.StudyGoal) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data.goals[goal.UserID] = goal
}

// Responses returns a copy of a session's stored responses.
func (db *MemoryDB) Responses(sessionID uuid.UUID) []domain.Response {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]domain.Response(nil), db.data.responses[sessionID]...)
}

// SessionCount returns the number of stored sessions.
func (db *MemoryDB) SessionCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.data.sessions)
}
