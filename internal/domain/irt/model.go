package irt

import (
	"math"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// Probability returns the 3PL probability of a correct response at theta:
//
//	p = c + (1-c) / (1 + exp(-a(θ-b)))
func Probability(cal domain.Calibration, theta float64) float64 {
	z := -cal.Discrimination * (theta - cal.Difficulty)
	return cal.Guessing + (1-cal.Guessing)/(1+math.Exp(z))
}

// Information returns the Fisher information the item contributes at theta.
// Saturated probabilities contribute nothing.
func Information(cal domain.Calibration, theta float64) float64 {
	p := Probability(cal, theta)
	if saturated(p) {
		return 0
	}
	a := cal.Discrimination
	c := cal.Guessing
	ratio := (p - c) / (1 - c)
	return a * a * ratio * ratio * (1 - p) / p
}

// TotalInformation sums item information over a set of calibrations.
func TotalInformation(cals []domain.Calibration, theta float64) float64 {
	total := 0.0
	for _, cal := range cals {
		total += Information(cal, theta)
	}
	return total
}

// StandardError converts total information into a clamped standard error.
// Near-zero information means maximum uncertainty and returns InitialSE.
func StandardError(totalInformation float64) float64 {
	if totalInformation < informationFloor || math.IsNaN(totalInformation) {
		return domain.InitialSE
	}
	return domain.ClampSE(1 / math.Sqrt(totalInformation))
}

func saturated(p float64) bool {
	return p <= 0 || p >= 1 || math.IsNaN(p)
}
