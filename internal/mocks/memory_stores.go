package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// MemoryItemStore implements store.ItemStore.
type MemoryItemStore struct{ db *MemoryDB }

// MemoryDomainStore implements store.DomainStore.
type MemoryDomainStore struct{ db *MemoryDB }

// MemorySessionStore implements store.SessionStore.
type MemorySessionStore struct{ db *MemoryDB }

// MemoryResponseStore implements store.ResponseStore.
type MemoryResponseStore struct{ db *MemoryDB }

// MemoryReviewStore implements store.ReviewStore.
type MemoryReviewStore struct{ db *MemoryDB }

// MemoryAbilityStore implements store.AbilityStore.
type MemoryAbilityStore struct{ db *MemoryDB }

// MemoryAnalysisStore implements store.AnalysisStore.
type MemoryAnalysisStore struct{ db *MemoryDB }

// MemoryGoalStore implements store.GoalStore.
type MemoryGoalStore struct{ db *MemoryDB }

var (
	_ store.ItemStore     = (*MemoryItemStore)(nil)
	_ store.DomainStore   = (*MemoryDomainStore)(nil)
	_ store.SessionStore  = (*MemorySessionStore)(nil)
	_ store.ResponseStore = (*MemoryResponseStore)(nil)
	_ store.ReviewStore   = (*MemoryReviewStore)(nil)
	_ store.AbilityStore  = (*MemoryAbilityStore)(nil)
	_ store.AnalysisStore = (*MemoryAnalysisStore)(nil)
	_ store.GoalStore     = (*MemoryGoalStore)(nil)
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
}

// Items

func (s *MemoryItemStore) Create(_ context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return invalid(err)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.data.items[item.ID]; ok {
		return store.ErrDuplicate
	}
	s.db.data.items[item.ID] = *item
	return nil
}

func (s *MemoryItemStore) Get(_ context.Context, id uuid.UUID) (*domain.Item, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	item, ok := s.db.data.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	return &item, nil
}

func (s *MemoryItemStore) List(_ context.Context) ([]domain.Item, error) {
	if err := s.db.fail(OpItemList); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := make([]domain.Item, 0, len(s.db.data.items))
	for _, item := range s.db.data.items {
		items = append(items, item)
	}
	sortItems(items)
	return items, nil
}

func (s *MemoryItemStore) ListUnseen(_ context.Context, userID uuid.UUID, limit int) ([]domain.Item, error) {
	if err := s.db.fail(OpItemListUnseen); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	items := []domain.Item{}
	for _, item := range s.db.data.items {
		if !item.Calibrated() {
			continue
		}
		if _, seen := s.db.data.reviews[reviewKey{userID, item.ID}]; seen {
			continue
		}
		items = append(items, item)
	}
	sortItems(items)
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *MemoryItemStore) WithTx(*sql.Tx) store.ItemStore { return s }

func sortItems(items []domain.Item) {
	sort.Slice(items, func(i, j int) bool { return domain.LessID(items[i].ID, items[j].ID) })
}

// Domains

func (s *MemoryDomainStore) Create(_ context.Context, d *domain.KnowledgeDomain) error {
	if err := d.Validate(); err != nil {
		return invalid(err)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.data.domains[d.Code]; ok {
		return store.ErrDuplicate
	}
	s.db.data.domains[d.Code] = *d
	return nil
}

func (s *MemoryDomainStore) List(_ context.Context) ([]domain.KnowledgeDomain, error) {
	if err := s.db.fail(OpDomainList); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	domains := make([]domain.KnowledgeDomain, 0, len(s.db.data.domains))
	for _, d := range s.db.data.domains {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i].Code < domains[j].Code })
	return domains, nil
}

func (s *MemoryDomainStore) WithTx(*sql.Tx) store.DomainStore { return s }

// Sessions

func (s *MemorySessionStore) Create(_ context.Context, session *domain.Session) error {
	if err := s.db.fail(OpSessionCreate); err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return invalid(err)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.data.sessions[session.ID]; ok {
		return store.ErrDuplicate
	}
	if session.Active() {
		for _, existing := range s.db.data.sessions {
			if existing.Active() && existing.UserID == session.UserID && existing.Mode == session.Mode {
				return store.ErrActiveSessionExists
			}
		}
	}
	stored := *session
	stored.Responses = nil
	s.db.data.sessions[session.ID] = stored
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	session, ok := s.db.data.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemorySessionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.Get(ctx, id)
}

func (s *MemorySessionStore) GetActive(
	_ context.Context,
	userID uuid.UUID,
	mode domain.TestMode,
) (*domain.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, session := range s.db.data.sessions {
		if session.Active() && session.UserID == userID && session.Mode == mode {
			return &session, nil
		}
	}
	return nil, store.ErrSessionNotFound
}

// LockUserMode is a no-op: MemoryDB already runs one transaction at a time.
func (s *MemorySessionStore) LockUserMode(context.Context, uuid.UUID, domain.TestMode) error {
	return nil
}

func (s *MemorySessionStore) Update(_ context.Context, session *domain.Session) error {
	if err := s.db.fail(OpSessionUpdate); err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return invalid(err)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.data.sessions[session.ID]; !ok {
		return store.ErrSessionNotFound
	}
	stored := *session
	stored.Responses = nil
	s.db.data.sessions[session.ID] = stored
	return nil
}

func (s *MemorySessionStore) WithTx(*sql.Tx) store.SessionStore { return s }

// Responses

func (s *MemoryResponseStore) Create(_ context.Context, r *domain.Response) error {
	if err := s.db.fail(OpResponseCreate); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return invalid(err)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.data.sessions[r.SessionID]; !ok {
		return store.ErrInvalidEntity
	}
	for _, existing := range s.db.data.responses[r.SessionID] {
		if existing.ItemID == r.ItemID {
			return store.ErrResponseExists
		}
		if existing.Sequence == r.Sequence {
			return store.ErrDuplicate
		}
	}
	s.db.data.responses[r.SessionID] = append(s.db.data.responses[r.SessionID], *r)
	return nil
}

func (s *MemoryResponseStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]domain.Response, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := append([]domain.Response{}, s.db.data.responses[sessionID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *MemoryResponseStore) WithTx(*sql.Tx) store.ResponseStore { return s }

// Reviews

func (s *MemoryReviewStore) Create(_ context.Context, r *domain.ReviewRecord) error {
	if err := s.db.fail(OpReviewCreate); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return invalid(err)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := reviewKey{r.UserID, r.ItemID}
	if _, ok := s.db.data.reviews[key]; ok {
		return store.ErrReviewExists
	}
	s.db.data.reviews[key] = *r
	return nil
}

func (s *MemoryReviewStore) Get(_ context.Context, userID, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.data.reviews[reviewKey{userID, itemID}]
	if !ok {
		return nil, store.ErrReviewNotFound
	}
	return &r, nil
}

func (s *MemoryReviewStore) GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	return s.Get(ctx, userID, itemID)
}

func (s *MemoryReviewStore) Update(_ context.Context, r *domain.ReviewRecord) error {
	if err := s.db.fail(OpReviewUpdate); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return invalid(err)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := reviewKey{r.UserID, r.ItemID}
	if _, ok := s.db.data.reviews[key]; !ok {
		return store.ErrReviewNotFound
	}
	s.db.data.reviews[key] = *r
	return nil
}

func (s *MemoryReviewStore) ListDue(
	_ context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]domain.ReviewRecord, error) {
	if err := s.db.fail(OpReviewListDue); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	due := []domain.ReviewRecord{}
	for _, r := range s.db.data.reviews {
		if r.UserID == userID && r.IsDue(now) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].NextReviewAt.Before(due[j].NextReviewAt)
		}
		return domain.LessID(due[i].ItemID, due[j].ItemID)
	})
	if limit >= 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryReviewStore) WithTx(*sql.Tx) store.ReviewStore { return s }

// Abilities

func (s *MemoryAbilityStore) Get(_ context.Context, userID uuid.UUID, domainCode string) (*domain.UserAbility, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.data.abilities[abilityKey{userID, domainCode}]
	if !ok {
		return nil, store.ErrAbilityNotFound
	}
	return &a, nil
}

func (s *MemoryAbilityStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.UserAbility, error) {
	if err := s.db.fail(OpAbilityListUser); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []domain.UserAbility{}
	for key, a := range s.db.data.abilities {
		if key.userID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DomainCode < out[j].DomainCode })
	return out, nil
}

func (s *MemoryAbilityStore) Upsert(_ context.Context, a *domain.UserAbility) error {
	if err := s.db.fail(OpAbilityUpsert); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored := *a
	stored.Theta = domain.ClampTheta(stored.Theta)
	stored.SE = domain.ClampSE(stored.SE)
	s.db.data.abilities[abilityKey{a.UserID, a.DomainCode}] = stored
	return nil
}

func (s *MemoryAbilityStore) WithTx(*sql.Tx) store.AbilityStore { return s }

// Analyses

func (s *MemoryAnalysisStore) Create(_ context.Context, a *domain.DomainAnalysis) error {
	if err := s.db.fail(OpAnalysisCreate); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.data.analyses {
		if existing.SessionID == a.SessionID && existing.DomainCode == a.DomainCode {
			return store.ErrDuplicate
		}
	}
	s.db.data.analyses = append(s.db.data.analyses, *a)
	return nil
}

func (s *MemoryAnalysisStore) LatestByUser(_ context.Context, userID uuid.UUID) ([]domain.DomainAnalysis, error) {
	if err := s.db.fail(OpAnalysisLatest); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	latest := make(map[string]domain.DomainAnalysis)
	for _, a := range s.db.data.analyses {
		if a.UserID != userID {
			continue
		}
		if cur, ok := latest[a.DomainCode]; !ok || a.CreatedAt.After(cur.CreatedAt) {
			latest[a.DomainCode] = a
		}
	}
	out := make([]domain.DomainAnalysis, 0, len(latest))
	for _, a := range latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DomainCode < out[j].DomainCode })
	return out, nil
}

func (s *MemoryAnalysisStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]domain.DomainAnalysis, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []domain.DomainAnalysis{}
	for _, a := range s.db.data.analyses {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DomainCode < out[j].DomainCode })
	return out, nil
}

func (s *MemoryAnalysisStore) WithTx(*sql.Tx) store.AnalysisStore { return s }

// Goals

func (s *MemoryGoalStore) Get(_ context.Context, userID uuid.UUID) (*domain.StudyGoal, error) {
	if err := s.db.fail(OpGoalGet); err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	g, ok := s.db.data.goals[userID]
	if !ok {
		return nil, store.ErrGoalNotFound
	}
	return &g, nil
}

func (s *MemoryGoalStore) Upsert(_ context.Context, g *domain.StudyGoal) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.data.goals[g.UserID] = *g
	return nil
}

func (s *MemoryGoalStore) WithTx(*sql.Tx) store.GoalStore { return s }
