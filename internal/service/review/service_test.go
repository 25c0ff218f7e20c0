package review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
	"github.com/phrazzld/scry-adaptive/internal/domain/srs"
	"github.com/phrazzld/scry-adaptive/internal/mocks"
	"github.com/phrazzld/scry-adaptive/internal/platform/keylock"
	"github.com/phrazzld/scry-adaptive/internal/service"
	"github.com/phrazzld/scry-adaptive/internal/service/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func calibratedItem(domainCode string, difficulty float64) domain.Item {
	cal := domain.Calibration{Discrimination: 1, Difficulty: difficulty, Guessing: 0.25}
	return domain.Item{
		ID:          uuid.New(),
		DomainCode:  domainCode,
		Calibration: &cal,
		Status:      domain.CalibrationStatusCalibrated,
	}
}

type fixture struct {
	db  *mocks.MemoryDB
	svc review.Service
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	scheduler, err := srs.NewDefaultService()
	require.NoError(t, err)

	f := &fixture{db: mocks.NewMemoryDB(), now: baseTime}
	f.svc = review.NewService(
		f.db.Stores(),
		f.db,
		keylock.NewMemoryLocker(),
		scheduler,
		integrator.New(integrator.DefaultWeights()),
		nil,
		review.WithClock(func() time.Time { return f.now }),
	)
	return f
}

func (f *fixture) abilities(t *testing.T, userID uuid.UUID) map[string]domain.UserAbility {
	t.Helper()
	list, err := f.db.Stores().Abilities.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	out := make(map[string]domain.UserAbility, len(list))
	for _, a := range list {
		out[a.DomainCode] = a
	}
	return out
}

func TestRecordReview_FirstReviewCreatesRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	item := calibratedItem("algebra", 0)
	f.db.SeedItems(item)
	userID := uuid.New()

	res, err := f.svc.RecordReview(context.Background(), userID, item.ID, 5)
	require.NoError(t, err)

	r := res.Record
	assert.Equal(t, 5, res.Quality)
	assert.Equal(t, 1, r.Repetitions)
	assert.Equal(t, 1, r.Interval)
	assert.Equal(t, 1, r.AdjustedInterval)
	assert.Equal(t, domain.MaxEaseFactor, r.EaseFactor)
	assert.Equal(t, baseTime.AddDate(0, 0, 1), r.NextReviewAt)
	assert.Equal(t, baseTime, r.LastReviewedAt)
	assert.Equal(t, "algebra", r.DomainCode)

	// lr = 1 · (1 - 0.5) so θ moves up by 0.05 · 0.5.
	assert.Equal(t, domain.InitialTheta, res.AbilityBefore)
	assert.InDelta(t, 0.025, res.AbilityAfter, 1e-12)

	stored := f.abilities(t, userID)
	require.Contains(t, stored, "algebra")
	assert.InDelta(t, 0.025, stored["algebra"].Theta, 1e-12)
	assert.Equal(t, domain.AbilitySourceReview, stored["algebra"].Source)
	assert.Equal(t, domain.InitialSE, stored["algebra"].SE)
}

func TestRecordReview_IntervalProgression(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	item := calibratedItem("algebra", 0)
	f.db.SeedItems(item)
	userID := uuid.New()

	expected := []int{1, 6, 15}
	for i, want := range expected {
		res, err := f.svc.RecordReview(context.Background(), userID, item.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, want, res.Record.Interval, "review %d", i+1)
		assert.Equal(t, want, res.Record.AdjustedInterval, "review %d", i+1)
		f.now = res.Record.NextReviewAt
	}
}

func TestRecordReview_QualityAdjustedForEasyItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	item := calibratedItem("algebra", 0)
	f.db.SeedItems(item)
	userID := uuid.New()
	f.db.SeedAbilities(domain.UserAbility{
		UserID: userID, DomainCode: "algebra", Theta: 2, SE: 0.4, Source: domain.AbilitySourceDiagnostic,
	})

	res, err := f.svc.RecordReview(context.Background(), userID, item.ID, 3)
	require.NoError(t, err)

	// Far above the item: the grade drops below passing.
	assert.Equal(t, 2, res.Quality)
	assert.Equal(t, 0, res.Record.Repetitions)
	assert.Equal(t, 1, res.Record.Interval)
	assert.InDelta(t, 2-0.03*0.8, res.AbilityAfter, 1e-12)

	stored := f.abilities(t, userID)["algebra"]
	assert.InDelta(t, res.AbilityAfter, stored.Theta, 1e-12)
	assert.Equal(t, 0.4, stored.SE)
	assert.Equal(t, domain.AbilitySourceReview, stored.Source)
}

func TestRecordReview_FallsBackToOverallAbility(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	item := calibratedItem("geometry", 0)
	f.db.SeedItems(item)
	userID := uuid.New()
	f.db.SeedAbilities(domain.UserAbility{
		UserID: userID, DomainCode: domain.OverallDomain, Theta: 1.5, SE: 0.5, Source: domain.AbilitySourceDiagnostic,
	})

	res, err := f.svc.RecordReview(context.Background(), userID, item.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, 1.5, res.AbilityBefore)
	assert.Equal(t, 3, res.Quality)
	assert.InDelta(t, 1.5+0.05*0.7, res.AbilityAfter, 1e-12)

	stored := f.abilities(t, userID)
	assert.Equal(t, 1.5, stored[domain.OverallDomain].Theta, "overall ability is left alone")
	assert.InDelta(t, res.AbilityAfter, stored["geometry"].Theta, 1e-12)
}

func TestRecordReview_UncalibratedItemUsesPlainSM2(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	item := domain.Item{ID: uuid.New(), DomainCode: "algebra", Status: domain.CalibrationStatusUncalibrated}
	f.db.SeedItems(item)
	userID := uuid.New()

	res, err := f.svc.RecordReview(context.Background(), userID, item.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Quality)
	assert.Equal(t, res.AbilityBefore, res.AbilityAfter)
	assert.Equal(t, res.Record.Interval, res.Record.AdjustedInterval)
	assert.Empty(t, f.abilities(t, userID))
}

func TestListDue_UncalibratedRanksWithCalibrated(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	calibrated := calibratedItem("algebra", 0)
	loose := domain.Item{ID: uuid.New(), DomainCode: "algebra", Status: domain.CalibrationStatusUncalibrated}
	f.db.SeedItems(calibrated, loose)
	userID := uuid.New()

	first, err := f.svc.RecordReview(context.Background(), userID, calibrated.ID, 4)
	require.NoError(t, err)
	second, err := f.svc.RecordReview(context.Background(), userID, loose.ID, 4)
	require.NoError(t, err)

	// Same history on both, so the same confidence: 0.6·0.5 + 0.4·min(1, 0.2 + 0.4).
	assert.InDelta(t, 0.54, first.Record.Confidence, 1e-9)
	assert.InDelta(t, 0.54, second.Record.Confidence, 1e-9)
	assert.Equal(t, second.AbilityBefore, second.Record.DifficultySnapshot)

	f.now = baseTime.AddDate(0, 0, 3)
	ranked, err := f.svc.ListDue(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	// Only the calibrated item carries a difficulty gap, so it ranks first and
	// the two priorities differ by that gap alone.
	theta := first.AbilityAfter
	assert.Equal(t, calibrated.ID, ranked[0].Record.ItemID)
	assert.Equal(t, loose.ID, ranked[1].Record.ItemID)
	assert.InDelta(t, 0.5*theta, ranked[0].Priority-ranked[1].Priority, 1e-9)
}

func TestRecordReview_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	item := calibratedItem("algebra", 0)
	inactiveItem := calibratedItem("algebra", 1)
	f.db.SeedItems(item, inactiveItem)
	userID := uuid.New()

	inactive, err := domain.NewReviewRecord(userID, inactiveItem.ID, "algebra", baseTime)
	require.NoError(t, err)
	inactive.Active = false
	f.db.SeedReviews(*inactive)

	tests := []struct {
		name     string
		userID   uuid.UUID
		itemID   uuid.UUID
		quality  int
		expected error
	}{
		{"quality too high", userID, item.ID, 6, review.ErrInvalidQuality},
		{"quality negative", userID, item.ID, -1, review.ErrInvalidQuality},
		{"nil user", uuid.Nil, item.ID, 3, review.ErrInvalidUserID},
		{"unknown item", userID, uuid.New(), 3, review.ErrItemNotFound},
		{"inactive record", userID, inactiveItem.ID, 3, review.ErrReviewInactive},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.svc.RecordReview(context.Background(), tt.userID, tt.itemID, tt.quality)
			assert.ErrorIs(t, err, tt.expected)
			assert.True(t, review.IsExpected(err))
		})
	}
}

func TestRecordReview_StoreFailureRollsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	item := calibratedItem("algebra", 0)
	f.db.SeedItems(item)
	userID := uuid.New()
	f.db.SetError(mocks.OpReviewCreate, errors.New("connection reset"))

	_, err := f.svc.RecordReview(context.Background(), userID, item.ID, 5)
	require.Error(t, err)

	var serviceErr *service.ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "record_review", serviceErr.Operation)
	assert.Empty(t, f.abilities(t, userID), "ability update must roll back with the record")
}

func TestPostpone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID, itemID := uuid.New(), uuid.New()
	record, err := domain.NewReviewRecord(userID, itemID, "algebra", baseTime)
	require.NoError(t, err)
	f.db.SeedReviews(*record)

	updated, err := f.svc.Postpone(context.Background(), userID, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, baseTime.AddDate(0, 0, 3), updated.NextReviewAt)

	stored, err := f.db.Stores().Reviews.Get(context.Background(), userID, itemID)
	require.NoError(t, err)
	assert.Equal(t, updated.NextReviewAt, stored.NextReviewAt)

	_, err = f.svc.Postpone(context.Background(), userID, itemID, 0)
	assert.ErrorIs(t, err, review.ErrInvalidDays)

	_, err = f.svc.Postpone(context.Background(), userID, uuid.New(), 1)
	assert.ErrorIs(t, err, review.ErrReviewNotFound)
}

func TestDeactivate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID, itemID := uuid.New(), uuid.New()
	record, err := domain.NewReviewRecord(userID, itemID, "algebra", baseTime.Add(-time.Hour))
	require.NoError(t, err)
	f.db.SeedReviews(*record)

	due, err := f.svc.ListDue(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)

	updated, err := f.svc.Deactivate(context.Background(), userID, itemID)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	again, err := f.svc.Deactivate(context.Background(), userID, itemID)
	require.NoError(t, err)
	assert.False(t, again.Active)

	due, err = f.svc.ListDue(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = f.svc.Deactivate(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, review.ErrReviewNotFound)
}

func TestListDue_RankedByPriority(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()

	mk := func(domainCode string, overdueDays int, difficulty, confidence float64) domain.ReviewRecord {
		r, err := domain.NewReviewRecord(userID, uuid.New(), domainCode, baseTime.AddDate(0, 0, -overdueDays))
		require.NoError(t, err)
		r.DifficultySnapshot = difficulty
		r.Confidence = confidence
		return *r
	}
	slightlyOverdue := mk("algebra", 1, 0, 0.9)
	veryOverdue := mk("algebra", 5, 0, 0.9)
	hardForUser := mk("geometry", 1, 3, 0.9)
	notDue, err := domain.NewReviewRecord(userID, uuid.New(), "algebra", baseTime.AddDate(0, 0, 2))
	require.NoError(t, err)
	f.db.SeedReviews(slightlyOverdue, veryOverdue, hardForUser, *notDue)
	f.db.SeedAbilities(domain.UserAbility{UserID: userID, DomainCode: "geometry", Theta: -1, SE: 0.5})

	ranked, err := f.svc.ListDue(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	// Priorities: 5+0+0.2, 1+0.5·4+0.2, 1+0+0.2.
	assert.Equal(t, veryOverdue.ItemID, ranked[0].Record.ItemID)
	assert.Equal(t, hardForUser.ItemID, ranked[1].Record.ItemID)
	assert.Equal(t, slightlyOverdue.ItemID, ranked[2].Record.ItemID)
	assert.InDelta(t, 5.2, ranked[0].Priority, 1e-9)
	assert.InDelta(t, 3.2, ranked[1].Priority, 1e-9)

	limited, err := f.svc.ListDue(context.Background(), userID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = f.svc.ListDue(context.Background(), uuid.Nil, 0)
	assert.ErrorIs(t, err, review.ErrInvalidUserID)
}

func TestListDue_LimitCutsByDueDateBeforeRanking(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()

	mk := func(overdueDays int, difficulty float64) domain.ReviewRecord {
		r, err := domain.NewReviewRecord(userID, uuid.New(), "algebra", baseTime.AddDate(0, 0, -overdueDays))
		require.NoError(t, err)
		r.DifficultySnapshot = difficulty
		r.Confidence = 0.9
		return *r
	}
	oldest := mk(3, 0)
	older := mk(2, 0)
	// Due most recently but far above the learner, so it has the top priority.
	hardest := mk(1, 6)
	f.db.SeedReviews(oldest, older, hardest)

	all, err := f.svc.ListDue(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, hardest.ItemID, all[0].Record.ItemID)

	limited, err := f.svc.ListDue(context.Background(), userID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, oldest.ItemID, limited[0].Record.ItemID)
	assert.Equal(t, older.ItemID, limited[1].Record.ItemID)
}

func TestThetaLookup(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tests := []struct {
		name      string
		abilities []domain.UserAbility
		code      string
		expected  float64
	}{
		{"no abilities", nil, "algebra", domain.InitialTheta},
		{
			"domain ability",
			[]domain.UserAbility{{UserID: userID, DomainCode: "algebra", Theta: 1.1}},
			"algebra",
			1.1,
		},
		{
			"overall fallback",
			[]domain.UserAbility{
				{UserID: userID, DomainCode: domain.OverallDomain, Theta: -0.7},
				{UserID: userID, DomainCode: "geometry", Theta: 2},
			},
			"algebra",
			-0.7,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, review.ThetaLookup(tt.abilities)(tt.code))
		})
	}
}
