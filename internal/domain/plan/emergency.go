package plan

import "sort"

// Emergency is the tier-3 strategy. It splits the day evenly across the
// configured fallback domains, or the first few catalogue domains by code.
type Emergency struct {
	cfg Config
}

var _ Strategy = (*Emergency)(nil)

// NewEmergency creates the emergency strategy.
func NewEmergency(cfg Config) *Emergency {
	return &Emergency{cfg: cfg.withDefaults()}
}

// Tier implements Strategy.
func (e *Emergency) Tier() Tier { return TierEmergency }

// Generate implements Strategy.
func (e *Emergency) Generate(in Input) Result {
	codes := e.domains(in)
	if len(codes) == 0 {
		return failure(ReasonNoDomainData, "no domains available to plan")
	}

	scores := make([]domainScore, len(codes))
	for i, code := range codes {
		scores[i] = domainScore{code: code, score: 1}
	}

	p := in.newPlan(TierEmergency)
	p.TimeAllocation = apportion(in.TargetMinutes, scores)
	return success(p)
}

func (e *Emergency) domains(in Input) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, code := range e.cfg.FallbackDomains {
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	if len(codes) > 0 {
		return codes
	}

	for _, d := range in.Domains {
		if d.Code != "" && !seen[d.Code] {
			seen[d.Code] = true
			codes = append(codes, d.Code)
		}
	}
	sort.Strings(codes)
	if len(codes) > e.cfg.EmergencyDomainCount {
		codes = codes[:e.cfg.EmergencyDomainCount]
	}
	return codes
}
