package cat

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// SelectionInput is everything the selector needs to pick the next item.
type SelectionInput struct {
	Theta float64
	// Pool is the candidate item bank. Uncalibrated items may be present and
	// are skipped.
	Pool []domain.Item
	// Administered holds the IDs of items already given in the session.
	Administered map[uuid.UUID]bool
	// Remaining is the outstanding quota per domain code; domains with no
	// entry or a value ≤ 0 are satisfied.
	Remaining map[string]int
	// Weights holds the configured weight per domain code. Missing weights
	// default to 1.
	Weights map[string]float64
}

// Selector picks the next item for a session. It holds no state.
type Selector struct{}

// NewSelector creates a Selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Select returns the next item to administer, or false when no eligible item
// remains in the pool.
//
// While any domain is below its quota, the domain with the highest
// weight × remaining-need priority is served first; within it the item whose
// difficulty is closest to theta wins. Once every reachable quota is met the
// search runs over the whole pool.
func (s *Selector) Select(in SelectionInput) (domain.Item, bool) {
	eligible := eligibleByDomain(in.Pool, in.Administered)

	for _, code := range prioritizedDomains(in.Remaining, in.Weights) {
		if item, ok := closest(eligible[code], in.Theta); ok {
			return item, true
		}
	}

	all := make([]domain.Item, 0, len(in.Pool))
	for _, items := range eligible {
		all = append(all, items...)
	}
	return closest(all, in.Theta)
}

// RemainingEligible counts the eligible items per domain code.
func RemainingEligible(pool []domain.Item, administered map[uuid.UUID]bool) map[string]int {
	counts := make(map[string]int)
	for code, items := range eligibleByDomain(pool, administered) {
		counts[code] = len(items)
	}
	return counts
}

func eligibleByDomain(pool []domain.Item, administered map[uuid.UUID]bool) map[string][]domain.Item {
	out := make(map[string][]domain.Item)
	for _, item := range pool {
		if administered[item.ID] || !item.Calibrated() {
			continue
		}
		out[item.DomainCode] = append(out[item.DomainCode], item)
	}
	return out
}

// prioritizedDomains orders the domains that still need items by
// weight × need, highest first, ties broken by domain code.
func prioritizedDomains(remaining map[string]int, weights map[string]float64) []string {
	type candidate struct {
		code     string
		priority float64
	}

	candidates := make([]candidate, 0, len(remaining))
	for code, need := range remaining {
		if need <= 0 {
			continue
		}
		w, ok := weights[code]
		if !ok || w <= 0 {
			w = 1
		}
		candidates = append(candidates, candidate{code: code, priority: w * float64(need)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority > candidates[j].priority
		}
		return candidates[i].code < candidates[j].code
	})

	codes := make([]string, len(candidates))
	for i, c := range candidates {
		codes[i] = c.code
	}
	return codes
}

// closest returns the item whose difficulty is nearest theta, ties broken by
// the lowest item ID.
func closest(items []domain.Item, theta float64) (domain.Item, bool) {
	var best domain.Item
	bestDist := math.Inf(1)
	found := false

	for _, item := range items {
		dist := math.Abs(item.Difficulty() - theta)
		if !found || dist < bestDist || (dist == bestDist && domain.LessID(item.ID, best.ID)) {
			best = item
			bestDist = dist
			found = true
		}
	}
	return best, found
}
