package cat

import (
	"time"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// Verdict is the termination evaluator's decision.
type Verdict struct {
	Continue bool
	Reason   domain.TerminationReason // set only when Continue is false
}

// TerminationInput is a snapshot of the session state after a response.
type TerminationInput struct {
	// Quota is the minimum item count required per domain code.
	Quota map[string]int
	// Administered is the number of items given so far per domain code.
	Administered map[string]int
	// Eligible is the number of items still selectable per domain code.
	Eligible map[string]int

	TotalAdministered  int
	MinItems           int
	MaxItems           int
	SE                 float64
	PrecisionThreshold float64
	Elapsed            time.Duration
	TimeLimit          time.Duration // zero disables the check
}

// CoverageMet reports whether every domain has reached its quota. A domain
// with nothing left to administer counts as covered, since no further item
// could ever move it closer.
func (in TerminationInput) CoverageMet() bool {
	for code, quota := range in.Quota {
		if in.Administered[code] >= quota {
			continue
		}
		if in.Eligible[code] > 0 {
			return false
		}
	}
	return true
}

// PoolExhausted reports whether no eligible item remains in any domain.
func (in TerminationInput) PoolExhausted() bool {
	for _, n := range in.Eligible {
		if n > 0 {
			return false
		}
	}
	return true
}

// Evaluate applies the stopping rules in fixed priority order; the first
// rule that matches decides.
//
//  1. coverage not met             -> continue
//  2. below the global minimum     -> continue
//  3. at or above the maximum      -> stop (max_items)
//  4. SE at or below the threshold -> stop (precision_reached)
//  5. nothing left to administer   -> stop (pool_exhausted)
//  6. time limit exceeded          -> stop (time_limit)
//  7. otherwise                    -> continue
func Evaluate(in TerminationInput) Verdict {
	switch {
	case !in.CoverageMet():
		return Verdict{Continue: true}
	case in.TotalAdministered < in.MinItems:
		return Verdict{Continue: true}
	case in.TotalAdministered >= in.MaxItems:
		return Verdict{Reason: domain.TerminationMaxItems}
	case in.SE <= in.PrecisionThreshold:
		return Verdict{Reason: domain.TerminationPrecision}
	case in.PoolExhausted():
		return Verdict{Reason: domain.TerminationPoolExhausted}
	case in.TimeLimit > 0 && in.Elapsed > in.TimeLimit:
		return Verdict{Reason: domain.TerminationTimeLimit}
	default:
		return Verdict{Continue: true}
	}
}
