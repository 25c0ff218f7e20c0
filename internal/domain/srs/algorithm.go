package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease factor update for a recall
// quality in [0, 5]:
//
//	EF' = EF + 0.1 - (5-q) * (0.08 + (5-q) * 0.02)
//
// The result is clamped to [params.MinEaseFactor, params.MaxEaseFactor].
// A perfect recall (q=5) raises EF by 0.1, q=4 leaves it unchanged, and
// every lower grade lowers it by a growing amount.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	miss := float64(domain.MaxQuality - quality)
	newEF := currentEF + params.EaseBonus - miss*(params.EaseLinear+miss*params.EaseQuadratic)

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	if newEF > params.MaxEaseFactor {
		newEF = params.MaxEaseFactor
	}
	return newEF
}

// calculateNewInterval returns the next interval in days and the new
// repetition count.
//
// A passing grade advances the repetition count: the first success schedules
// params.FirstInterval days, the second params.SecondInterval, and every later
// one multiplies the current interval by the ease factor held before this
// review. A failing grade resets repetitions and schedules
// params.FailureInterval.
func calculateNewInterval(
	currentInterval int,
	repetitions int,
	easeFactor float64,
	quality int,
	params *Params,
) (int, int) {
	if quality < params.PassingQuality {
		return params.FailureInterval, 0
	}

	repetitions++
	var interval int
	switch repetitions {
	case 1:
		interval = params.FirstInterval
	case 2:
		interval = params.SecondInterval
	default:
		interval = int(math.Round(float64(currentInterval) * easeFactor))
	}

	if interval < domain.MinInterval {
		interval = domain.MinInterval
	}
	return interval, repetitions
}

// calculateNextReviewDate schedules the next review interval days from now.
func calculateNextReviewDate(interval int, now time.Time) time.Time {
	return now.AddDate(0, 0, interval)
}

// calculateNextRecord creates a new ReviewRecord with updated values based on
// the review quality. The input record is never modified.
func calculateNextRecord(
	record *domain.ReviewRecord,
	quality int,
	now time.Time,
	params *Params,
) *domain.ReviewRecord {
	next := record.Clone()

	next.Interval, next.Repetitions = calculateNewInterval(
		record.Interval,
		record.Repetitions,
		record.EaseFactor,
		quality,
		params,
	)
	next.EaseFactor = calculateNewEaseFactor(record.EaseFactor, quality, params)
	next.AdjustedInterval = next.Interval
	next.LastQuality = quality
	next.LastReviewedAt = now
	next.NextReviewAt = calculateNextReviewDate(next.Interval, now)
	next.UpdatedAt = now

	return next
}
