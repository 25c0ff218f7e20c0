package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TestMode selects how long and how thorough a diagnostic session is.
type TestMode string

// Supported test modes
const (
	TestModeQuick         TestMode = "quick"
	TestModeStandard      TestMode = "standard"
	TestModeComprehensive TestMode = "comprehensive"
)

// Valid reports whether the mode is one of the supported test modes.
func (m TestMode) Valid() bool {
	switch m {
	case TestModeQuick, TestModeStandard, TestModeComprehensive:
		return true
	default:
		return false
	}
}

// SessionStatus is the lifecycle state of a diagnostic session.
type SessionStatus string

// Possible session status values
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// TerminationReason explains why a session stopped.
type TerminationReason string

// Termination reasons, in the order the evaluator checks them.
const (
	TerminationMaxItems      TerminationReason = "max_items"
	TerminationPrecision     TerminationReason = "precision_reached"
	TerminationPoolExhausted TerminationReason = "pool_exhausted"
	TerminationTimeLimit     TerminationReason = "time_limit"
)

// Ability bounds shared by every component that stores or adjusts θ and SE.
const (
	MinTheta = -4.0
	MaxTheta = 4.0
	MinSE    = 0.1
	MaxSE    = 2.0

	InitialTheta = 0.0
	InitialSE    = 1.0
)

// Session validation errors
var (
	ErrSessionIDEmpty     = errors.New("session ID cannot be empty")
	ErrSessionUserIDEmpty = errors.New("session user ID cannot be empty")
	ErrInvalidTestMode    = errors.New("invalid test mode")
	ErrInvalidQuota       = errors.New("quota per domain must be greater than 0")
	ErrInvalidMaxItems    = errors.New("max items must be at least min items")
	ErrThetaOutOfRange    = errors.New("theta out of range")
	ErrSEOutOfRange       = errors.New("standard error out of range")
	ErrSessionNotActive   = errors.New("session is not active")
	ErrCoverageIncomplete = errors.New("domain coverage quota not satisfied")
)

// Session is a single adaptive diagnostic test for one user.
// Once Status is completed the session is immutable.
type Session struct {
	ID                 uuid.UUID         `json:"id"`
	UserID             uuid.UUID         `json:"user_id"`
	Mode               TestMode          `json:"test_mode"`
	Theta              float64           `json:"theta"`
	SE                 float64           `json:"se"`
	Status             SessionStatus     `json:"status"`
	TerminationReason  TerminationReason `json:"termination_reason,omitempty"`
	QuotaPerDomain     int               `json:"quota_per_domain"`
	MinItems           int               `json:"min_items"`
	MaxItems           int               `json:"max_items"`
	PrecisionThreshold float64           `json:"precision_threshold"`
	TimeLimit          time.Duration     `json:"time_limit"`
	CurrentItemID      uuid.UUID         `json:"current_item_id"`
	StartedAt          time.Time         `json:"started_at"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`

	// Responses is the ordered response history. It is only populated when
	// the session is loaded together with its responses.
	Responses []Response `json:"responses,omitempty"`
}

// NewSession creates an active session at the initial ability estimate.
func NewSession(
	userID uuid.UUID,
	mode TestMode,
	quotaPerDomain, minItems, maxItems int,
	precision float64,
	timeLimit time.Duration,
	now time.Time,
) (*Session, error) {
	s := &Session{
		ID:                 uuid.New(),
		UserID:             userID,
		Mode:               mode,
		Theta:              InitialTheta,
		SE:                 InitialSE,
		Status:             SessionStatusActive,
		QuotaPerDomain:     quotaPerDomain,
		MinItems:           minItems,
		MaxItems:           maxItems,
		PrecisionThreshold: precision,
		TimeLimit:          timeLimit,
		StartedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the Session has valid data.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}
	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}
	if !s.Mode.Valid() {
		return ErrInvalidTestMode
	}
	if s.QuotaPerDomain <= 0 {
		return ErrInvalidQuota
	}
	if s.MaxItems < s.MinItems || s.MaxItems <= 0 {
		return ErrInvalidMaxItems
	}
	if s.Theta < MinTheta || s.Theta > MaxTheta {
		return ErrThetaOutOfRange
	}
	if s.SE < MinSE || s.SE > MaxSE {
		return ErrSEOutOfRange
	}
	return nil
}

// Active reports whether the session still accepts responses.
func (s *Session) Active() bool {
	return s.Status == SessionStatusActive
}

// Elapsed returns the wall-clock time since the session started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// Complete marks the session completed with the given reason. A session whose
// domain coverage is not yet satisfied cannot be completed.
func (s *Session) Complete(reason TerminationReason, coverageMet bool, now time.Time) error {
	if !s.Active() {
		return ErrSessionNotActive
	}
	if !coverageMet {
		return ErrCoverageIncomplete
	}
	s.Status = SessionStatusCompleted
	s.TerminationReason = reason
	s.CompletedAt = &now
	s.UpdatedAt = now
	s.CurrentItemID = uuid.Nil
	return nil
}
