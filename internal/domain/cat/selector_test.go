package cat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(code string, b float64) domain.Item {
	return domain.Item{
		ID:          uuid.New(),
		DomainCode:  code,
		Calibration: &domain.Calibration{Discrimination: 1, Difficulty: b, Guessing: 0.2},
		Status:      domain.CalibrationStatusCalibrated,
	}
}

func uncalibrated(code string) domain.Item {
	return domain.Item{
		ID:         uuid.New(),
		DomainCode: code,
		Status:     domain.CalibrationStatusUncalibrated,
	}
}

func TestSelectPrefersDomainWithHighestPriority(t *testing.T) {
	t.Parallel()
	s := NewSelector()

	algebra := item("algebra", 0.1)
	geometry := item("geometry", 0.0)

	got, ok := s.Select(SelectionInput{
		Theta:     0,
		Pool:      []domain.Item{algebra, geometry},
		Remaining: map[string]int{"algebra": 2, "geometry": 1},
		Weights:   map[string]float64{"algebra": 1, "geometry": 1},
	})

	require.True(t, ok)
	assert.Equal(t, algebra.ID, got.ID, "algebra needs more items so it wins despite a worse difficulty match")
}

func TestSelectWeightsScalePriority(t *testing.T) {
	t.Parallel()
	s := NewSelector()

	algebra := item("algebra", 0)
	geometry := item("geometry", 0)

	got, ok := s.Select(SelectionInput{
		Pool:      []domain.Item{algebra, geometry},
		Remaining: map[string]int{"algebra": 2, "geometry": 1},
		Weights:   map[string]float64{"algebra": 1, "geometry": 3},
	})

	require.True(t, ok)
	assert.Equal(t, geometry.ID, got.ID)
}

func TestSelectNearestDifficultyWithinDomain(t *testing.T) {
	t.Parallel()
	s := NewSelector()

	far := item("algebra", -2)
	near := item("algebra", 0.9)
	other := item("geometry", 1.0)

	got, ok := s.Select(SelectionInput{
		Theta:     1.0,
		Pool:      []domain.Item{far, near, other},
		Remaining: map[string]int{"algebra": 1},
	})

	require.True(t, ok)
	assert.Equal(t, near.ID, got.ID)
}

func TestSelectBreaksTiesByLowestID(t *testing.T) {
	t.Parallel()
	s := NewSelector()

	low := item("algebra", 0.5)
	low.ID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := item("algebra", -0.5)
	high.ID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

	for i := 0; i < 5; i++ {
		got, ok := s.Select(SelectionInput{
			Theta:     0,
			Pool:      []domain.Item{high, low},
			Remaining: map[string]int{"algebra": 1},
		})
		require.True(t, ok)
		assert.Equal(t, low.ID, got.ID)
	}
}

func TestSelectSkipsAdministeredAndUncalibrated(t *testing.T) {
	t.Parallel()
	s := NewSelector()

	used := item("algebra", 0)
	raw := uncalibrated("algebra")
	fresh := item("algebra", 3)

	got, ok := s.Select(SelectionInput{
		Theta:        0,
		Pool:         []domain.Item{used, raw, fresh},
		Administered: map[uuid.UUID]bool{used.ID: true},
		Remaining:    map[string]int{"algebra": 1},
	})

	require.True(t, ok)
	assert.Equal(t, fresh.ID, got.ID)
}

func TestSelectFallsBackToGlobalSearch(t *testing.T) {
	t.Parallel()
	s := NewSelector()

	algebra := item("algebra", 2)
	geometry := item("geometry", 0.2)

	t.Run("all quotas satisfied", func(t *testing.T) {
		got, ok := s.Select(SelectionInput{
			Theta:     0,
			Pool:      []domain.Item{algebra, geometry},
			Remaining: map[string]int{"algebra": 0, "geometry": 0},
		})
		require.True(t, ok)
		assert.Equal(t, geometry.ID, got.ID)
	})

	t.Run("needy domain has nothing eligible", func(t *testing.T) {
		got, ok := s.Select(SelectionInput{
			Theta:     0,
			Pool:      []domain.Item{algebra, geometry, uncalibrated("statistics")},
			Remaining: map[string]int{"statistics": 3},
		})
		require.True(t, ok)
		assert.Equal(t, geometry.ID, got.ID)
	})
}

func TestSelectReturnsNothingWhenExhausted(t *testing.T) {
	t.Parallel()
	s := NewSelector()

	used := item("algebra", 0)

	_, ok := s.Select(SelectionInput{
		Pool:         []domain.Item{used, uncalibrated("algebra")},
		Administered: map[uuid.UUID]bool{used.ID: true},
		Remaining:    map[string]int{"algebra": 1},
	})
	assert.False(t, ok)

	_, ok = s.Select(SelectionInput{})
	assert.False(t, ok)
}

func TestSelectNeverRepeatsAnItem(t *testing.T) {
	t.Parallel()
	s := NewSelector()

	pool := make([]domain.Item, 0, 30)
	codes := []string{"algebra", "geometry", "statistics"}
	for i := 0; i < 30; i++ {
		pool = append(pool, item(codes[i%3], float64(i%7)-3))
	}

	administered := map[uuid.UUID]bool{}
	remaining := map[string]int{"algebra": 2, "geometry": 2, "statistics": 2}

	for {
		got, ok := s.Select(SelectionInput{
			Theta:        0.4,
			Pool:         pool,
			Administered: administered,
			Remaining:    remaining,
		})
		if !ok {
			break
		}
		require.False(t, administered[got.ID], "item %s selected twice", got.ID)
		administered[got.ID] = true
		remaining[got.DomainCode]--
	}

	assert.Len(t, administered, len(pool))
}

func TestRemainingEligible(t *testing.T) {
	t.Parallel()

	used := item("algebra", 0)
	pool := []domain.Item{used, item("algebra", 1), uncalibrated("geometry"), item("geometry", 0)}

	counts := RemainingEligible(pool, map[uuid.UUID]bool{used.ID: true})

	assert.Equal(t, map[string]int{"algebra": 1, "geometry": 1}, counts)
}
