package srs

import "github.com/phrazzld/scry-adaptive/internal/domain"

// Params defines all configurable parameters for the SM-2 algorithm
type Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Quality at or above which a review counts as a successful recall
	PassingQuality int

	// Intervals used for the first and second successful repetitions
	FirstInterval  int
	SecondInterval int

	// Ease factor update: EF + bonus - (5-q) * (linear + (5-q) * quadratic)
	EaseBonus       float64
	EaseLinear      float64
	EaseQuadratic   float64
	FailureInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinEaseFactor   float64
	MaxEaseFactor   float64
	FirstInterval   int
	SecondInterval  int
	FailureInterval int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:   domain.MinEaseFactor,
		MaxEaseFactor:   domain.MaxEaseFactor,
		PassingQuality:  domain.PassingQuality,
		FirstInterval:   1,
		SecondInterval:  6,
		EaseBonus:       0.1,
		EaseLinear:      0.08,
		EaseQuadratic:   0.02,
		FailureInterval: 1,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values in config keep the defaults. Ease factor limits are never
// widened beyond the domain bounds.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor >= domain.MinEaseFactor {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 && config.MaxEaseFactor <= domain.MaxEaseFactor {
		params.MaxEaseFactor = config.MaxEaseFactor
	}
	if params.MaxEaseFactor < params.MinEaseFactor {
		params.MaxEaseFactor = params.MinEaseFactor
	}

	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.FailureInterval > 0 {
		params.FailureInterval = config.FailureInterval
	}

	return params
}
