package plan

// Legacy is the tier-2 strategy. It allocates time from the latest
// diagnostic snapshots alone and schedules no reviews or new content.
type Legacy struct {
	cfg Config
}

var _ Strategy = (*Legacy)(nil)

// NewLegacy creates the legacy strategy.
func NewLegacy(cfg Config) *Legacy {
	return &Legacy{cfg: cfg.withDefaults()}
}

// Tier implements Strategy.
func (l *Legacy) Tier() Tier { return TierLegacy }

// Generate implements Strategy.
func (l *Legacy) Generate(in Input) Result {
	thetas := make(map[string]float64)
	for _, d := range in.Domains {
		if a, ok := in.Analyses[d.Code]; ok {
			thetas[d.Code] = a.Theta
		}
	}
	if len(thetas) == 0 {
		return failure(ReasonNoAnalysisData, "no diagnostic snapshots")
	}

	p := in.newPlan(TierLegacy)
	scores := scoreDomains(
		thetas,
		domainWeights(in.Domains),
		nil,
		urgency(in.TargetDate, in.Now, l.cfg.HorizonDays),
		l.cfg.WeaknessMargin,
	)
	p.TimeAllocation = apportion(in.TargetMinutes, scores)
	return success(p)
}
