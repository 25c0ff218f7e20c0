package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SM-2 bounds
const (
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
	DefaultEaseFactor = 2.5
	MinInterval       = 1
	MinQuality        = 0
	MaxQuality        = 5
	PassingQuality    = 3
)

// Common validation errors for ReviewRecord
var (
	ErrEmptyRecordUserID  = errors.New("review record user ID cannot be empty")
	ErrEmptyRecordItemID  = errors.New("review record item ID cannot be empty")
	ErrInvalidInterval    = errors.New("interval must be at least 1 day")
	ErrInvalidEaseFactor  = errors.New("ease factor must be between 1.3 and 2.5")
	ErrInvalidRepetitions = errors.New("repetitions must be greater than or equal to 0")
	ErrInvalidQuality     = errors.New("quality must be between 0 and 5")
)

// ReviewRecord tracks a user's spaced repetition state for a single item.
// It follows SM-2 with two IRT-linked snapshots: the user's ability and the
// item's difficulty at the time of the last update.
type ReviewRecord struct {
	UserID             uuid.UUID `json:"user_id"`
	ItemID             uuid.UUID `json:"item_id"`
	DomainCode         string    `json:"domain_code"`
	EaseFactor         float64   `json:"ease_factor"`       // 1.3-2.5
	Interval           int       `json:"interval"`          // raw SM-2 interval in days
	AdjustedInterval   int       `json:"adjusted_interval"` // interval after IRT blending
	Repetitions        int       `json:"repetitions"`       // consecutive passing reviews
	LastQuality        int       `json:"last_quality"`      // 0-5
	NextReviewAt       time.Time `json:"next_review_at"`
	LastReviewedAt     time.Time `json:"last_reviewed_at"`
	AbilitySnapshot    float64   `json:"ability_snapshot"`
	DifficultySnapshot float64   `json:"difficulty_snapshot"`
	Confidence         float64   `json:"confidence"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewReviewRecord creates a record for an item the user has just been
// exposed to. It is due immediately.
func NewReviewRecord(userID, itemID uuid.UUID, domainCode string, now time.Time) (*ReviewRecord, error) {
	r := &ReviewRecord{
		UserID:           userID,
		ItemID:           itemID,
		DomainCode:       domainCode,
		EaseFactor:       DefaultEaseFactor,
		Interval:         MinInterval,
		AdjustedInterval: MinInterval,
		Repetitions:      0,
		LastQuality:      0,
		NextReviewAt:     now,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks if the ReviewRecord has valid data.
// Returns an error if any field fails validation.
func (r *ReviewRecord) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrEmptyRecordUserID
	}
	if r.ItemID == uuid.Nil {
		return ErrEmptyRecordItemID
	}
	if r.Interval < MinInterval || r.AdjustedInterval < MinInterval {
		return ErrInvalidInterval
	}
	if r.EaseFactor < MinEaseFactor || r.EaseFactor > MaxEaseFactor {
		return ErrInvalidEaseFactor
	}
	if r.Repetitions < 0 {
		return ErrInvalidRepetitions
	}
	if !ValidQuality(r.LastQuality) {
		return ErrInvalidQuality
	}
	return nil
}

// IsDue reports whether the record should be reviewed at now.
func (r *ReviewRecord) IsDue(now time.Time) bool {
	return r.Active && !r.NextReviewAt.After(now)
}

// DaysOverdue returns how many days past NextReviewAt now is (0 if not due).
func (r *ReviewRecord) DaysOverdue(now time.Time) float64 {
	if !r.NextReviewAt.Before(now) {
		return 0
	}
	return now.Sub(r.NextReviewAt).Hours() / 24
}

// Clone returns a copy of the record.
func (r *ReviewRecord) Clone() *ReviewRecord {
	c := *r
	return &c
}

// ValidQuality reports whether q is a valid SM-2 recall grade.
func ValidQuality(q int) bool {
	return q >= MinQuality && q <= MaxQuality
}
