package irt

import (
	"math"
	"sort"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

const (
	// MaxIterations caps Newton-Raphson so every estimate is bounded work.
	MaxIterations = 50

	// ConvergenceThreshold is the update magnitude below which iteration stops.
	ConvergenceThreshold = 1e-6

	curvatureFloor   = 1e-10
	informationFloor = 1e-10

	minProportion = 0.01
	maxProportion = 0.99
	maxStartTheta = 3.0
)

// Observation is one scored response to a calibrated item.
type Observation struct {
	Calibration domain.Calibration
	Correct     bool
}

// Estimate is the result of ability estimation.
type Estimate struct {
	Theta      float64
	SE         float64
	Iterations int
	// Converged is false when the iteration cap was hit; Theta is then the
	// last iterate, which is still a usable best-effort estimate.
	Converged bool
}

// Estimator computes ability estimates. It holds no state and is safe for
// concurrent use.
type Estimator struct {
	maxIterations int
	threshold     float64
}

// NewEstimator creates an Estimator with the default iteration cap and
// convergence threshold.
func NewEstimator() *Estimator {
	return &Estimator{
		maxIterations: MaxIterations,
		threshold:     ConvergenceThreshold,
	}
}

// Estimate runs maximum likelihood estimation over the whole observation set.
// It never fails: empty input yields (InitialTheta, InitialSE).
func (e *Estimator) Estimate(observations []Observation) Estimate {
	obs := canonical(observations)
	if len(obs) == 0 {
		return Estimate{Theta: domain.InitialTheta, SE: domain.InitialSE, Converged: true}
	}

	theta := startingTheta(obs)
	result := Estimate{}

	for iter := 1; iter <= e.maxIterations; iter++ {
		result.Iterations = iter

		gradient, curvature := 0.0, 0.0
		for _, o := range obs {
			p := Probability(o.Calibration, theta)
			if saturated(p) {
				continue
			}
			a := o.Calibration.Discrimination
			gradient += a * (score(o.Correct) - p)
			curvature -= a * a * p * (1 - p)
		}

		if math.Abs(curvature) < curvatureFloor {
			curvature = -curvatureFloor
		}

		next := domain.ClampTheta(theta - gradient/curvature)
		step := math.Abs(next - theta)
		theta = next

		if step < e.threshold {
			result.Converged = true
			break
		}
	}

	cals := make([]domain.Calibration, len(obs))
	for i, o := range obs {
		cals[i] = o.Calibration
	}

	result.Theta = domain.ClampTheta(theta)
	result.SE = StandardError(TotalInformation(cals, result.Theta))
	return result
}

// ObservationsFromResponses keeps the calibrated responses of a history and
// converts them into observations. Uncalibrated responses are skipped.
func ObservationsFromResponses(responses []domain.Response) []Observation {
	out := make([]Observation, 0, len(responses))
	for i := range responses {
		r := &responses[i]
		if !r.Calibrated() {
			continue
		}
		out = append(out, Observation{Calibration: *r.Calibration, Correct: r.Correct})
	}
	return out
}

// startingTheta is the logit of the clamped proportion correct.
func startingTheta(obs []Observation) float64 {
	correct := 0
	for _, o := range obs {
		if o.Correct {
			correct++
		}
	}
	p := float64(correct) / float64(len(obs))
	p = math.Max(minProportion, math.Min(maxProportion, p))
	theta := math.Log(p / (1 - p))
	return math.Max(-maxStartTheta, math.Min(maxStartTheta, theta))
}

// canonical drops invalid calibrations and sorts the rest so that floating
// point sums come out identical for any permutation of the same set.
func canonical(observations []Observation) []Observation {
	out := make([]Observation, 0, len(observations))
	for _, o := range observations {
		if o.Calibration.Valid() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Calibration, out[j].Calibration
		if a.Difficulty != b.Difficulty {
			return a.Difficulty < b.Difficulty
		}
		if a.Discrimination != b.Discrimination {
			return a.Discrimination < b.Discrimination
		}
		if a.Guessing != b.Guessing {
			return a.Guessing < b.Guessing
		}
		return !out[i].Correct && out[j].Correct
	})
	return out
}

func score(correct bool) float64 {
	if correct {
		return 1
	}
	return 0
}
