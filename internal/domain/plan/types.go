package plan

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
)

// Tier identifies the strategy that produced a plan.
type Tier string

const (
	TierAdaptive  Tier = "adaptive"
	TierLegacy    Tier = "legacy"
	TierEmergency Tier = "emergency"
)

// Failure reasons reported in Result.Reason.
const (
	ReasonNoAbilityData  = "no_ability_data"
	ReasonNoAnalysisData = "no_analysis_data"
	ReasonNoDomainData   = "no_domain_data"
)

// PlannedReview is a due review scheduled into the plan.
type PlannedReview struct {
	ItemID     uuid.UUID `json:"item_id"`
	DomainCode string    `json:"domain_code"`
	Priority   float64   `json:"priority"`
	Minutes    int       `json:"minutes"`
}

// PlannedContent is an unseen item suggested as new material.
type PlannedContent struct {
	ItemID     uuid.UUID `json:"item_id"`
	DomainCode string    `json:"domain_code"`
	Difficulty float64   `json:"difficulty"`
	Minutes    int       `json:"minutes"`
}

// DailyPlan is the allocation of a day's study time.
type DailyPlan struct {
	UserID         uuid.UUID        `json:"user_id"`
	TargetMinutes  int              `json:"target_minutes"`
	TimeAllocation map[string]int   `json:"time_allocation"`
	ReviewMinutes  int              `json:"review_minutes"`
	ReviewItems    []PlannedReview  `json:"review_items"`
	NewContent     []PlannedContent `json:"new_content"`
	SourceTier     Tier             `json:"source_tier"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// TotalMinutes returns review minutes plus all per-domain minutes.
func (p *DailyPlan) TotalMinutes() int {
	total := p.ReviewMinutes
	for _, m := range p.TimeAllocation {
		total += m
	}
	return total
}

// Result is the outcome of a strategy or of the whole chain.
type Result struct {
	Success bool       `json:"success"`
	Reason  string     `json:"reason,omitempty"`
	Message string     `json:"message,omitempty"`
	Plan    *DailyPlan `json:"plan,omitempty"`
}

func failure(reason, message string) Result {
	return Result{Success: false, Reason: reason, Message: message}
}

func success(p *DailyPlan) Result {
	return Result{Success: true, Plan: p}
}

// Input is everything a strategy may draw on. Fields a loader could not
// fill are left empty; strategies treat empty inputs as missing data.
type Input struct {
	UserID        uuid.UUID
	TargetMinutes int
	Now           time.Time

	// Domains is the knowledge-domain catalogue.
	Domains []domain.KnowledgeDomain

	// Abilities holds the live ability per domain code.
	Abilities map[string]domain.UserAbility

	// Analyses holds the latest diagnostic snapshot per domain code.
	Analyses map[string]domain.DomainAnalysis

	// DueReviews is the review queue, already ranked by priority.
	DueReviews []integrator.Ranked

	// Unseen holds calibrated items the user has no review record for.
	Unseen []domain.Item

	// TargetDate is the user's exam date, if any.
	TargetDate *time.Time
}

func (in Input) newPlan(tier Tier) *DailyPlan {
	return &DailyPlan{
		UserID:         in.UserID,
		TargetMinutes:  in.TargetMinutes,
		TimeAllocation: make(map[string]int),
		ReviewItems:    []PlannedReview{},
		NewContent:     []PlannedContent{},
		SourceTier:     tier,
		GeneratedAt:    in.Now,
	}
}

// Strategy produces a plan from an Input, or reports why it cannot.
type Strategy interface {
	Tier() Tier
	Generate(in Input) Result
}
