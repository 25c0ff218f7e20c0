package domain

import (
	"time"

	"github.com/google/uuid"
)

// AbilitySource records which process last wrote a UserAbility.
type AbilitySource string

// Ability sources
const (
	AbilitySourceDiagnostic AbilitySource = "diagnostic"
	AbilitySourceReview     AbilitySource = "review"
)

// OverallDomain is the domain code used for a user's overall ability.
const OverallDomain = ""

// UserAbility is the live ability estimate of a user, either overall
// (DomainCode == OverallDomain) or for a single domain.
type UserAbility struct {
	UserID     uuid.UUID     `json:"user_id"`
	DomainCode string        `json:"domain_code"`
	Theta      float64       `json:"theta"`
	SE         float64       `json:"se"`
	Source     AbilitySource `json:"source"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// DomainAnalysis is an immutable per-domain snapshot taken when a diagnostic
// session completes.
type DomainAnalysis struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	SessionID    uuid.UUID `json:"session_id"`
	DomainCode   string    `json:"domain_code"`
	Theta        float64   `json:"theta"`
	SE           float64   `json:"se"`
	ItemCount    int       `json:"item_count"`
	CorrectCount int       `json:"correct_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudyGoal holds the user's exam date, used for plan urgency.
type StudyGoal struct {
	UserID     uuid.UUID  `json:"user_id"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ClampTheta bounds θ to [MinTheta, MaxTheta].
func ClampTheta(theta float64) float64 {
	return clamp(theta, MinTheta, MaxTheta)
}

// ClampSE bounds a standard error to [MinSE, MaxSE].
func ClampSE(se float64) float64 {
	return clamp(se, MinSE, MaxSE)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
