package plan

import (
	"math"
	"sort"
	"time"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

const (
	weaknessWeight = 0.5
	urgencyWeight  = 0.3
	overdueWeight  = 0.2

	// fallbackWeakCount is how many of the lowest domains count as weak when
	// no domain falls below the threshold.
	fallbackWeakCount = 2
)

// domainScore is one domain's share of the allocation.
type domainScore struct {
	code  string
	score float64
}

// weakness maps each domain to a weakness score in [0, 1].
//
// Domains below mean(θ) - margin are weak and score 1. If none are, the two
// lowest domains are treated as weak. The remaining domains score half their
// relative distance from the strongest domain.
func weakness(thetas map[string]float64, margin float64) map[string]float64 {
	out := make(map[string]float64, len(thetas))
	if len(thetas) == 0 {
		return out
	}

	codes := sortedCodes(thetas)
	minTheta, maxTheta, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, code := range codes {
		t := thetas[code]
		sum += t
		minTheta = math.Min(minTheta, t)
		maxTheta = math.Max(maxTheta, t)
	}
	threshold := sum/float64(len(codes)) - margin

	weak := make(map[string]bool)
	for _, code := range codes {
		if thetas[code] < threshold {
			weak[code] = true
		}
	}
	if len(weak) == 0 {
		byTheta := append([]string(nil), codes...)
		sort.SliceStable(byTheta, func(i, j int) bool {
			return thetas[byTheta[i]] < thetas[byTheta[j]]
		})
		for i := 0; i < len(byTheta) && i < fallbackWeakCount; i++ {
			weak[byTheta[i]] = true
		}
	}

	spread := maxTheta - minTheta
	for _, code := range codes {
		switch {
		case weak[code]:
			out[code] = 1
		case spread > 0:
			out[code] = 0.5 * (maxTheta - thetas[code]) / spread
		default:
			out[code] = 0
		}
	}
	return out
}

// urgency is 1/max(1, days until the target date).
func urgency(target *time.Time, now time.Time, horizonDays int) float64 {
	days := float64(horizonDays)
	if target != nil {
		days = math.Ceil(target.Sub(now).Hours() / 24)
	}
	return 1 / math.Max(1, days)
}

// scoreDomains combines weakness, urgency and overdue share with the domain
// weight. Domains missing from weights use weight 1.
func scoreDomains(
	thetas map[string]float64,
	weights map[string]float64,
	overdueShare map[string]float64,
	urg float64,
	margin float64,
) []domainScore {
	weak := weakness(thetas, margin)
	scores := make([]domainScore, 0, len(thetas))
	for _, code := range sortedCodes(thetas) {
		w, ok := weights[code]
		if !ok || w <= 0 {
			w = 1
		}
		s := w * (weaknessWeight*weak[code] + urgencyWeight*urg + overdueWeight*overdueShare[code])
		scores = append(scores, domainScore{code: code, score: s})
	}
	return scores
}

// apportion splits total whole minutes proportionally to scores. Each share
// is floored and leftover minutes go to the largest remainders, ties by
// position. The result never sums to more than total.
func apportion(total int, scores []domainScore) map[string]int {
	out := make(map[string]int, len(scores))
	if total <= 0 || len(scores) == 0 {
		for _, s := range scores {
			out[s.code] = 0
		}
		return out
	}

	sum := 0.0
	for _, s := range scores {
		sum += math.Max(0, s.score)
	}
	if sum == 0 {
		even := make([]domainScore, len(scores))
		for i, s := range scores {
			even[i] = domainScore{code: s.code, score: 1}
		}
		scores, sum = even, float64(len(scores))
	}

	type share struct {
		idx       int
		remainder float64
	}
	shares := make([]share, len(scores))
	assigned := 0
	for i, s := range scores {
		exact := float64(total) * math.Max(0, s.score) / sum
		whole := int(math.Floor(exact))
		out[s.code] = whole
		assigned += whole
		shares[i] = share{idx: i, remainder: exact - float64(whole)}
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].remainder > shares[j].remainder
	})
	// Rounding error can push a floored share one minute over.
	for i := len(shares) - 1; assigned > total && i >= 0; i-- {
		code := scores[shares[i].idx].code
		if out[code] > 0 {
			out[code]--
			assigned--
		}
	}
	for i := 0; assigned < total && i < len(shares); i++ {
		if math.Max(0, scores[shares[i].idx].score) == 0 {
			continue
		}
		out[scores[shares[i].idx].code]++
		assigned++
	}
	return out
}

func domainWeights(domains []domain.KnowledgeDomain) map[string]float64 {
	out := make(map[string]float64, len(domains))
	for _, d := range domains {
		out[d.Code] = d.Weight
	}
	return out
}

func sortedCodes[V any](m map[string]V) []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
