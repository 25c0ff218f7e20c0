package plan

import (
	"math"
	"sort"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// Adaptive is the tier-1 strategy. It needs live per-domain ability.
type Adaptive struct {
	cfg Config
}

var _ Strategy = (*Adaptive)(nil)

// NewAdaptive creates the adaptive strategy.
func NewAdaptive(cfg Config) *Adaptive {
	return &Adaptive{cfg: cfg.withDefaults()}
}

// Tier implements Strategy.
func (a *Adaptive) Tier() Tier { return TierAdaptive }

// Generate implements Strategy.
func (a *Adaptive) Generate(in Input) Result {
	thetas := make(map[string]float64)
	for _, d := range in.Domains {
		if ab, ok := in.Abilities[d.Code]; ok {
			thetas[d.Code] = ab.Theta
		}
	}
	if len(thetas) == 0 {
		return failure(ReasonNoAbilityData, "no per-domain ability estimates")
	}

	p := in.newPlan(TierAdaptive)

	// Reviews first, capped at the review share of the day.
	reviewBudget := int(math.Floor(float64(in.TargetMinutes) * a.cfg.ReviewShare))
	reviewCount := reviewBudget / a.cfg.MinutesPerReview
	if reviewCount > len(in.DueReviews) {
		reviewCount = len(in.DueReviews)
	}
	if reviewCount < 0 {
		reviewCount = 0
	}
	for _, r := range in.DueReviews[:reviewCount] {
		p.ReviewItems = append(p.ReviewItems, PlannedReview{
			ItemID:     r.Record.ItemID,
			DomainCode: r.Record.DomainCode,
			Priority:   r.Priority,
			Minutes:    a.cfg.MinutesPerReview,
		})
	}
	p.ReviewMinutes = reviewCount * a.cfg.MinutesPerReview

	overdue := make(map[string]float64)
	if len(in.DueReviews) > 0 {
		for _, r := range in.DueReviews {
			overdue[r.Record.DomainCode]++
		}
		for code := range overdue {
			overdue[code] /= float64(len(in.DueReviews))
		}
	}

	scores := scoreDomains(
		thetas,
		domainWeights(in.Domains),
		overdue,
		urgency(in.TargetDate, in.Now, a.cfg.HorizonDays),
		a.cfg.WeaknessMargin,
	)
	p.TimeAllocation = apportion(in.TargetMinutes-p.ReviewMinutes, scores)
	p.NewContent = a.newContent(in, thetas, p.TimeAllocation)

	return success(p)
}

// newContent fills each domain's minutes with unseen calibrated items nearest
// the learner's ability in that domain.
func (a *Adaptive) newContent(in Input, thetas map[string]float64, minutes map[string]int) []PlannedContent {
	byDomain := make(map[string][]domain.Item)
	for _, item := range in.Unseen {
		if item.Calibrated() {
			byDomain[item.DomainCode] = append(byDomain[item.DomainCode], item)
		}
	}

	content := []PlannedContent{}
	for _, code := range sortedCodes(minutes) {
		n := minutes[code] / a.cfg.MinutesPerItem
		items := byDomain[code]
		if n == 0 || len(items) == 0 {
			continue
		}

		theta := thetas[code]
		sort.SliceStable(items, func(i, j int) bool {
			di := math.Abs(items[i].Difficulty() - theta)
			dj := math.Abs(items[j].Difficulty() - theta)
			if di != dj {
				return di < dj
			}
			return domain.LessID(items[i].ID, items[j].ID)
		})
		if n > len(items) {
			n = len(items)
		}
		for _, item := range items[:n] {
			content = append(content, PlannedContent{
				ItemID:     item.ID,
				DomainCode: code,
				Difficulty: item.Difficulty(),
				Minutes:    a.cfg.MinutesPerItem,
			})
		}
	}
	return content
}
