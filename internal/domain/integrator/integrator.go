package integrator

import (
	"math"
	"sort"
	"time"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

const (
	// GapThreshold is the ability-difficulty gap beyond which intervals are scaled.
	GapThreshold = 0.5

	// QualityGapThreshold is the gap beyond which the recall grade is nudged.
	QualityGapThreshold = 1.0

	easyIntervalFactor = 1.2
	hardIntervalFactor = 0.8

	rawIntervalWeight      = 0.4
	adjustedIntervalWeight = 0.6

	abilityConfidenceWeight = 0.6
	historyConfidenceWeight = 0.4

	abilityGain = 0.05
	abilityLoss = 0.03
)

// Weights controls how due reviews are scored.
type Weights struct {
	Overdue    float64 `mapstructure:"overdue"    validate:"gte=0"`
	Gap        float64 `mapstructure:"gap"        validate:"gte=0"`
	Confidence float64 `mapstructure:"confidence" validate:"gte=0"`
}

// DefaultWeights returns the standard priority weights.
func DefaultWeights() Weights {
	return Weights{Overdue: 1.0, Gap: 0.5, Confidence: 2.0}
}

// Integrator combines SM-2 state with ability and difficulty.
type Integrator struct {
	weights Weights
}

// New creates an Integrator. Zero weights fall back to DefaultWeights.
func New(weights Weights) *Integrator {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Integrator{weights: weights}
}

// Weights returns the priority weights in use.
func (in *Integrator) Weights() Weights {
	return in.weights
}

// AdjustInterval scales the raw SM-2 interval by the ability-difficulty gap.
func (in *Integrator) AdjustInterval(raw int, theta, difficulty float64) float64 {
	gap := theta - difficulty
	switch {
	case gap > GapThreshold:
		return float64(raw) * easyIntervalFactor
	case gap < -GapThreshold:
		return float64(raw) * hardIntervalFactor
	default:
		return float64(raw)
	}
}

// FinalInterval blends the raw and adjusted intervals into whole days.
func (in *Integrator) FinalInterval(raw int, theta, difficulty float64) int {
	adjusted := in.AdjustInterval(raw, theta, difficulty)
	days := int(math.Round(rawIntervalWeight*float64(raw) + adjustedIntervalWeight*adjusted))
	if days < domain.MinInterval {
		days = domain.MinInterval
	}
	return days
}

// Confidence estimates how likely the learner is to recall the item, in [0, 1].
func (in *Integrator) Confidence(theta, difficulty float64, repetitions, quality int) float64 {
	history := math.Min(1, float64(repetitions)*0.2+float64(quality)*0.1)
	return abilityConfidenceWeight*logistic(theta-difficulty) + historyConfidenceWeight*history
}

// AdjustQuality corrects a recall grade for item difficulty. An item far
// below the learner inflates the grade so it is lowered by one; an item far
// above deflates it so it is raised by one.
func (in *Integrator) AdjustQuality(quality int, theta, difficulty float64) int {
	gap := theta - difficulty
	switch {
	case gap >= QualityGapThreshold:
		quality--
	case gap <= -QualityGapThreshold:
		quality++
	}
	if quality < domain.MinQuality {
		return domain.MinQuality
	}
	if quality > domain.MaxQuality {
		return domain.MaxQuality
	}
	return quality
}

// LearningRate scales ability feedback from a review. Harder items teach
// faster; the rate decays with repetitions and recall quality.
//
//	lr = (1 + 0.5·min(2, max(0, b-θ))) / (1 + 0.2·repetitions) · (1 - 0.1·quality)
func (in *Integrator) LearningRate(theta, difficulty float64, repetitions, quality int) float64 {
	hardness := math.Min(2, math.Max(0, difficulty-theta))
	if repetitions < 0 {
		repetitions = 0
	}
	return (1 + 0.5*hardness) / (1 + 0.2*float64(repetitions)) * (1 - 0.1*float64(quality))
}

// UpdateAbility nudges ability after a review graded with the adjusted quality.
func (in *Integrator) UpdateAbility(theta, difficulty float64, repetitions, quality int) float64 {
	lr := in.LearningRate(theta, difficulty, repetitions, quality)
	if quality >= domain.PassingQuality {
		theta += abilityGain * lr
	} else {
		theta -= abilityLoss * lr
	}
	return domain.ClampTheta(theta)
}

// Apply stamps the integrated schedule onto a record already updated by SM-2:
// the blended interval, the next review time, the snapshots and confidence.
// record.Interval must hold the raw SM-2 interval.
func (in *Integrator) Apply(record *domain.ReviewRecord, theta, difficulty float64, now time.Time) {
	record.AdjustedInterval = in.FinalInterval(record.Interval, theta, difficulty)
	record.NextReviewAt = now.AddDate(0, 0, record.AdjustedInterval)
	record.AbilitySnapshot = theta
	record.DifficultySnapshot = difficulty
	record.Confidence = in.Confidence(theta, difficulty, record.Repetitions, record.LastQuality)
}

// ApplyUncalibrated stamps a record for an item with no difficulty estimate.
// The item is scored as matched to the learner, so the SM-2 interval stands
// and confidence rests on the review history alone.
func (in *Integrator) ApplyUncalibrated(record *domain.ReviewRecord, theta float64) {
	record.AbilitySnapshot = theta
	record.DifficultySnapshot = theta
	record.Confidence = in.Confidence(theta, theta, record.Repetitions, record.LastQuality)
}

// Priority scores a due review. Higher is more urgent. Used for ordering only.
func (in *Integrator) Priority(daysOverdue, theta, difficulty, confidence float64) float64 {
	return in.weights.Overdue*daysOverdue +
		in.weights.Gap*math.Abs(difficulty-theta) +
		in.weights.Confidence*(1-confidence)
}

// Candidate is a due review together with the learner's current ability in
// the item's domain.
type Candidate struct {
	Record *domain.ReviewRecord
	Theta  float64
}

// Ranked is a candidate with its priority score.
type Ranked struct {
	Record   *domain.ReviewRecord `json:"record"`
	Priority float64              `json:"priority"`
}

// Rank scores candidates and orders them by descending priority. Ties are
// broken by earliest NextReviewAt, then by item ID.
func (in *Integrator) Rank(candidates []Candidate, now time.Time) []Ranked {
	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if c.Record == nil {
			continue
		}
		r := c.Record
		ranked = append(ranked, Ranked{
			Record:   r,
			Priority: in.Priority(r.DaysOverdue(now), c.Theta, r.DifficultySnapshot, r.Confidence),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.Record.NextReviewAt.Equal(b.Record.NextReviewAt) {
			return a.Record.NextReviewAt.Before(b.Record.NextReviewAt)
		}
		return domain.LessID(a.Record.ItemID, b.Record.ItemID)
	})
	return ranked
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
