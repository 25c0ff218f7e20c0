package integrator

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsWeights(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultWeights(), New(Weights{}).Weights())

	custom := Weights{Overdue: 3, Gap: 1, Confidence: 0}
	assert.Equal(t, custom, New(custom).Weights())
}

func TestAdjustInterval(t *testing.T) {
	t.Parallel()
	in := New(Weights{})

	testCases := []struct {
		name       string
		raw        int
		theta      float64
		difficulty float64
		expected   float64
	}{
		{"too easy", 10, 1.0, 0.0, 12},
		{"too hard", 10, -1.0, 0.0, 8},
		{"matched", 10, 0.3, 0.0, 10},
		{"boundary is unchanged", 10, 0.5, 0.0, 10},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.expected, in.AdjustInterval(tc.raw, tc.theta, tc.difficulty), 1e-9)
		})
	}
}

func TestFinalInterval(t *testing.T) {
	t.Parallel()
	in := New(Weights{})

	assert.Equal(t, 11, in.FinalInterval(10, 1.0, 0.0))
	assert.Equal(t, 9, in.FinalInterval(10, -1.0, 0.0))
	assert.Equal(t, 10, in.FinalInterval(10, 0.0, 0.0))
	assert.Equal(t, 1, in.FinalInterval(1, -3.0, 2.0))
}

func TestFinalIntervalDirection(t *testing.T) {
	t.Parallel()
	in := New(Weights{})

	for raw := 1; raw <= 400; raw++ {
		for _, gap := range []float64{-3, -1.2, -0.51, 0.51, 1.2, 3} {
			final := in.FinalInterval(raw, gap, 0)
			require.GreaterOrEqual(t, final, domain.MinInterval)
			if gap > GapThreshold {
				require.GreaterOrEqual(t, final, raw, "raw=%d gap=%f", raw, gap)
			} else {
				require.LessOrEqual(t, final, raw, "raw=%d gap=%f", raw, gap)
			}
		}
	}
}

func TestConfidence(t *testing.T) {
	t.Parallel()
	in := New(Weights{})

	// logistic(0) = 0.5, history = min(1, 2*0.2 + 3*0.1) = 0.7
	assert.InDelta(t, 0.6*0.5+0.4*0.7, in.Confidence(0, 0, 2, 3), 1e-9)

	// history saturates at 1
	assert.InDelta(t, 0.6*0.5+0.4, in.Confidence(0, 0, 10, 5), 1e-9)

	for _, gap := range []float64{-8, -2, 0, 2, 8} {
		c := in.Confidence(gap, 0, 3, 4)
		assert.True(t, c >= 0 && c <= 1, "confidence %f out of range", c)
	}
}

func TestAdjustQuality(t *testing.T) {
	t.Parallel()
	in := New(Weights{})

	testCases := []struct {
		name       string
		quality    int
		theta      float64
		difficulty float64
		expected   int
	}{
		{"far above lowers", 4, 1.5, 0, 3},
		{"far below raises", 2, -1.5, 0, 3},
		{"near leaves unchanged", 4, 0.9, 0, 4},
		{"exact threshold lowers", 4, 1.0, 0, 3},
		{"clamped at zero", 0, 2.0, 0, 0},
		{"clamped at five", 5, -2.0, 0, 5},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, in.AdjustQuality(tc.quality, tc.theta, tc.difficulty))
		})
	}
}

func TestLearningRate(t *testing.T) {
	t.Parallel()
	in := New(Weights{})

	base := in.LearningRate(0, 0, 0, 3)
	assert.InDelta(t, 0.7, base, 1e-9)

	assert.Greater(t, in.LearningRate(0, 1.5, 0, 3), base, "harder items should teach faster")
	assert.Less(t, in.LearningRate(0, 0, 5, 3), base, "rate should decay with repetitions")
	assert.Less(t, in.LearningRate(0, 0, 0, 5), base, "rate should decay with quality")
	assert.InDelta(t, base, in.LearningRate(1.5, 0, 0, 3), 1e-9, "easy items do not speed learning")
}

func TestUpdateAbility(t *testing.T) {
	t.Parallel()
	in := New(Weights{})

	up := in.UpdateAbility(0, 0, 0, 4)
	assert.InDelta(t, 0.05*0.6, up, 1e-9)

	down := in.UpdateAbility(0, 0, 0, 1)
	assert.InDelta(t, -0.03*0.9, down, 1e-9)

	assert.Equal(t, domain.MaxTheta, in.UpdateAbility(domain.MaxTheta, 4, 0, 3))
	assert.Equal(t, domain.MinTheta, in.UpdateAbility(domain.MinTheta, 4, 0, 0))
}

func TestApply(t *testing.T) {
	t.Parallel()
	in := New(Weights{})
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	record := &domain.ReviewRecord{
		UserID:      uuid.New(),
		ItemID:      uuid.New(),
		EaseFactor:  2.5,
		Interval:    10,
		Repetitions: 3,
		LastQuality: 4,
		Active:      true,
	}

	in.Apply(record, 1.2, 0.2, now)

	assert.Equal(t, 10, record.Interval, "raw interval is kept")
	assert.Equal(t, 11, record.AdjustedInterval)
	assert.True(t, record.NextReviewAt.Equal(now.AddDate(0, 0, 11)))
	assert.Equal(t, 1.2, record.AbilitySnapshot)
	assert.Equal(t, 0.2, record.DifficultySnapshot)
	assert.InDelta(t, 0.6*(1/(1+math.Exp(-1)))+0.4*1, record.Confidence, 1e-9)
}

func TestApplyUncalibrated(t *testing.T) {
	t.Parallel()
	in := New(Weights{})
	nextReview := time.Date(2025, 5, 7, 8, 0, 0, 0, time.UTC)

	record := &domain.ReviewRecord{
		Interval:         6,
		AdjustedInterval: 6,
		Repetitions:      2,
		LastQuality:      4,
		NextReviewAt:     nextReview,
		Active:           true,
	}

	in.ApplyUncalibrated(record, -0.7)

	assert.Equal(t, 6, record.AdjustedInterval, "SM-2 interval is kept")
	assert.True(t, record.NextReviewAt.Equal(nextReview))
	assert.Equal(t, -0.7, record.AbilitySnapshot)
	assert.Equal(t, -0.7, record.DifficultySnapshot)
	// logistic(0) = 0.5, history = min(1, 2*0.2 + 4*0.1) = 0.8
	assert.InDelta(t, 0.6*0.5+0.4*0.8, record.Confidence, 1e-9)
	assert.InDelta(t, 0, in.Priority(0, -0.7, record.DifficultySnapshot, 1), 1e-9)
}

func TestPriority(t *testing.T) {
	t.Parallel()
	in := New(Weights{})

	// 1.0*2 + 0.5*1 + 2.0*(1-0.25)
	assert.InDelta(t, 4.0, in.Priority(2, 0, 1, 0.25), 1e-9)
	assert.InDelta(t, 4.0, in.Priority(2, 1, 0, 0.25), 1e-9, "gap is symmetric")
}

func TestRank(t *testing.T) {
	t.Parallel()
	in := New(Weights{})
	now := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	mk := func(daysOverdue int, confidence float64) *domain.ReviewRecord {
		return &domain.ReviewRecord{
			UserID:       uuid.New(),
			ItemID:       uuid.New(),
			NextReviewAt: now.AddDate(0, 0, -daysOverdue),
			Confidence:   confidence,
			Active:       true,
		}
	}

	fresh := mk(0, 0.9)
	overdue := mk(5, 0.9)
	shaky := mk(1, 0.1)

	ranked := in.Rank([]Candidate{
		{Record: fresh},
		{Record: overdue},
		{Record: nil},
		{Record: shaky},
	}, now)

	require.Len(t, ranked, 3)
	assert.Equal(t, overdue.ItemID, ranked[0].Record.ItemID)
	assert.Equal(t, shaky.ItemID, ranked[1].Record.ItemID)
	assert.Equal(t, fresh.ItemID, ranked[2].Record.ItemID)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Priority, ranked[i].Priority)
	}
}

func TestRankTieBreaks(t *testing.T) {
	t.Parallel()
	in := New(Weights{Overdue: 0, Gap: 0, Confidence: 1})
	now := time.Now().UTC()

	a := &domain.ReviewRecord{ItemID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), NextReviewAt: now}
	b := &domain.ReviewRecord{ItemID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), NextReviewAt: now}
	c := &domain.ReviewRecord{ItemID: uuid.MustParse("00000000-0000-0000-0000-000000000003"), NextReviewAt: now.Add(-time.Hour)}

	ranked := in.Rank([]Candidate{{Record: a}, {Record: b}, {Record: c}}, now)

	require.Len(t, ranked, 3)
	assert.Equal(t, c.ItemID, ranked[0].Record.ItemID)
	assert.Equal(t, b.ItemID, ranked[1].Record.ItemID)
	assert.Equal(t, a.ItemID, ranked[2].Record.ItemID)
}
