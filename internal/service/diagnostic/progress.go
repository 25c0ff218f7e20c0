package diagnostic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/cat"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// catalogue is the item bank and domain list a session draws from.
type catalogue struct {
	domains []domain.KnowledgeDomain
	items   []domain.Item
	weights map[string]float64
}

func loadCatalogue(ctx context.Context, stores store.Stores) (*catalogue, error) {
	domains, err := stores.Domains.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	items, err := stores.Items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	weights := make(map[string]float64, len(domains))
	for _, d := range domains {
		weights[d.Code] = d.Weight
	}
	return &catalogue{domains: domains, items: items, weights: weights}, nil
}

// progress is a session's coverage state derived from its response history.
type progress struct {
	catalogue    *catalogue
	administered map[uuid.UUID]bool
	perDomain    map[string]int
	quota        map[string]int
	eligible     map[string]int
}

func newProgress(c *catalogue, session *domain.Session, history []domain.Response) *progress {
	p := &progress{
		catalogue:    c,
		administered: make(map[uuid.UUID]bool, len(history)),
		perDomain:    make(map[string]int),
		quota:        make(map[string]int, len(c.domains)),
	}
	for _, r := range history {
		p.administered[r.ItemID] = true
		p.perDomain[r.DomainCode]++
	}
	for _, d := range c.domains {
		p.quota[d.Code] = session.QuotaPerDomain
	}
	p.eligible = cat.RemainingEligible(c.items, p.administered)
	return p
}

func (p *progress) remaining() map[string]int {
	out := make(map[string]int, len(p.quota))
	for code, quota := range p.quota {
		if need := quota - p.perDomain[code]; need > 0 {
			out[code] = need
		}
	}
	return out
}

func (p *progress) selection(theta float64) cat.SelectionInput {
	return cat.SelectionInput{
		Theta:        theta,
		Pool:         p.catalogue.items,
		Administered: p.administered,
		Remaining:    p.remaining(),
		Weights:      p.catalogue.weights,
	}
}

func (p *progress) termination(session *domain.Session, now time.Time) cat.TerminationInput {
	return cat.TerminationInput{
		Quota:              p.quota,
		Administered:       p.perDomain,
		Eligible:           p.eligible,
		TotalAdministered:  len(p.administered),
		MinItems:           session.MinItems,
		MaxItems:           session.MaxItems,
		SE:                 session.SE,
		PrecisionThreshold: session.PrecisionThreshold,
		Elapsed:            session.Elapsed(now),
		TimeLimit:          session.TimeLimit,
	}
}
