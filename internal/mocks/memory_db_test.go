package mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDB_RollbackOnError(t *testing.T) {
	t.Parallel()

	db := NewMemoryDB()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	userID, itemID := uuid.New(), uuid.New()

	boom := errors.New("boom")
	err := db.RunInTx(ctx, func(ctx context.Context, s store.Stores) error {
		r, err := domain.NewReviewRecord(userID, itemID, "algebra", now)
		require.NoError(t, err)
		require.NoError(t, s.Reviews.Create(ctx, r))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.Stores().Reviews.Get(ctx, userID, itemID)
	assert.ErrorIs(t, err, store.ErrReviewNotFound)
	assert.Equal(t, 1, db.TxCount)
}

func TestMemoryDB_RollbackOnPanic(t *testing.T) {
	t.Parallel()

	db := NewMemoryDB()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = db.RunInTx(ctx, func(ctx context.Context, s store.Stores) error {
			require.NoError(t, s.Domains.Create(ctx, &domain.KnowledgeDomain{Code: "a", Weight: 1}))
			panic("bad")
		})
	})

	domains, err := db.Stores().Domains.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, domains)
}

func TestMemoryDB_InjectedError(t *testing.T) {
	t.Parallel()

	db := NewMemoryDB()
	boom := errors.New("down")
	db.SetError(OpDomainList, boom)

	_, err := db.Stores().Domains.List(context.Background())
	assert.ErrorIs(t, err, boom)

	db.SetError(OpDomainList, nil)
	_, err = db.Stores().Domains.List(context.Background())
	assert.NoError(t, err)
}

func TestMemorySessionStore_OneActivePerMode(t *testing.T) {
	t.Parallel()

	db := NewMemoryDB()
	ctx := context.Background()
	now := time.Now()
	userID := uuid.New()

	first, err := domain.NewSession(userID, domain.TestModeQuick, 1, 1, 5, 0.4, 0, now)
	require.NoError(t, err)
	require.NoError(t, db.Stores().Sessions.Create(ctx, first))

	second, err := domain.NewSession(userID, domain.TestModeQuick, 1, 1, 5, 0.4, 0, now)
	require.NoError(t, err)
	assert.ErrorIs(t, db.Stores().Sessions.Create(ctx, second), store.ErrActiveSessionExists)

	other, err := domain.NewSession(userID, domain.TestModeStandard, 1, 1, 5, 0.4, 0, now)
	require.NoError(t, err)
	assert.NoError(t, db.Stores().Sessions.Create(ctx, other))
}

func TestMemoryItemStore_ListUnseen(t *testing.T) {
	t.Parallel()

	db := NewMemoryDB()
	ctx := context.Background()
	userID := uuid.New()
	cal := domain.Calibration{Discrimination: 1, Difficulty: 0, Guessing: 0.2}
	seen := domain.Item{ID: uuid.New(), DomainCode: "a", Calibration: &cal, Status: domain.CalibrationStatusCalibrated}
	fresh := domain.Item{ID: uuid.New(), DomainCode: "a", Calibration: &cal, Status: domain.CalibrationStatusCalibrated}
	raw := domain.Item{ID: uuid.New(), DomainCode: "a", Status: domain.CalibrationStatusUncalibrated}
	db.SeedItems(seen, fresh, raw)

	r, err := domain.NewReviewRecord(userID, seen.ID, "a", time.Now())
	require.NoError(t, err)
	db.SeedReviews(*r)

	got, err := db.Stores().Items.ListUnseen(ctx, userID, 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.Item{fresh}, got)
}
