package srs

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
)

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name         string
		current      int
		repetitions  int
		ef           float64
		quality      int
		expected     int
		expectedReps int
	}{
		{"failing grade resets", 15, 3, 2.5, 2, 1, 0},
		{"blackout resets", 40, 6, 1.3, 0, 1, 0},
		{"first success", 1, 0, 2.5, 3, 1, 1},
		{"second success", 1, 1, 2.5, 4, 6, 2},
		{"third success multiplies by EF", 6, 2, 2.5, 5, 15, 3},
		{"third success with low EF", 6, 2, 1.3, 3, 8, 3},
		{"rounds half up", 5, 3, 2.5, 4, 13, 4},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, reps := calculateNewInterval(tc.current, tc.repetitions, tc.ef, tc.quality, params)
			if got != tc.expected {
				t.Errorf("Expected interval %d, got %d", tc.expected, got)
			}
			if reps != tc.expectedReps {
				t.Errorf("Expected repetitions %d, got %d", tc.expectedReps, reps)
			}
		})
	}
}

func TestCalculateNewEaseFactor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		quality  int
		expected float64
	}{
		{"perfect recall at max stays clamped", 2.5, 5, 2.5},
		{"perfect recall raises", 2.0, 5, 2.1},
		{"quality 4 unchanged", 2.0, 4, 2.0},
		{"quality 3 lowers", 2.0, 3, 1.86},
		{"quality 2 lowers", 2.0, 2, 1.68},
		{"quality 1 lowers", 2.0, 1, 1.46},
		{"quality 0 clamps at min", 2.0, 0, 1.3},
		{"already at min", 1.3, 1, 1.3},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := calculateNewEaseFactor(tc.current, tc.quality, params)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("Expected ease factor %f, got %f", tc.expected, got)
			}
		})
	}
}

func TestEaseFactorStaysInBounds(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	for ef := domain.MinEaseFactor; ef <= domain.MaxEaseFactor+1e-9; ef += 0.05 {
		for q := domain.MinQuality; q <= domain.MaxQuality; q++ {
			got := calculateNewEaseFactor(ef, q, params)
			if got < domain.MinEaseFactor || got > domain.MaxEaseFactor {
				t.Fatalf("EF %f with quality %d produced out-of-range %f", ef, q, got)
			}
		}
	}
}

func TestCalculateNextRecord(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	record, err := domain.NewReviewRecord(uuid.New(), uuid.New(), "algebra", now)
	if err != nil {
		t.Fatalf("Failed to create record: %v", err)
	}

	var intervals []int
	current := record
	for i := 0; i < 5; i++ {
		current = calculateNextRecord(current, 5, now, params)
		intervals = append(intervals, current.Interval)
	}

	if intervals[0] != 1 || intervals[1] != 6 {
		t.Fatalf("Expected intervals to start 1, 6; got %v", intervals)
	}
	for i := 2; i < len(intervals); i++ {
		if intervals[i] <= intervals[i-1] {
			t.Errorf("Expected strictly increasing intervals after the second review, got %v", intervals)
		}
	}

	if record.Repetitions != 0 || record.Interval != 1 {
		t.Error("Input record should not be modified")
	}

	want := now.AddDate(0, 0, current.Interval)
	if !current.NextReviewAt.Equal(want) {
		t.Errorf("Expected next review at %v, got %v", want, current.NextReviewAt)
	}
	if current.LastQuality != 5 {
		t.Errorf("Expected last quality 5, got %d", current.LastQuality)
	}
}

func TestIntervalUsesEaseFactorBeforeReview(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Now().UTC()

	record := &domain.ReviewRecord{
		UserID:           uuid.New(),
		ItemID:           uuid.New(),
		EaseFactor:       2.0,
		Interval:         10,
		AdjustedInterval: 10,
		Repetitions:      3,
		Active:           true,
	}

	next := calculateNextRecord(record, 3, now, params)
	if next.Interval != 20 {
		t.Errorf("Expected interval 20 from EF 2.0, got %d", next.Interval)
	}
	if math.Abs(next.EaseFactor-1.86) > 1e-9 {
		t.Errorf("Expected EF 1.86, got %f", next.EaseFactor)
	}
}
