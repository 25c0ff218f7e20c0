package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var sessionStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNewSession(t *testing.T) {
	userID := uuid.New()

	s, err := NewSession(userID, TestModeStandard, 2, 10, 30, 0.3, 20*time.Minute, sessionStart)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if s.ID == uuid.Nil {
		t.Error("Expected a generated session ID")
	}
	if s.Theta != InitialTheta || s.SE != InitialSE {
		t.Errorf("Expected initial estimate (%v, %v), got (%v, %v)", InitialTheta, InitialSE, s.Theta, s.SE)
	}
	if !s.Active() {
		t.Errorf("Expected active session, got status %s", s.Status)
	}
	if !s.StartedAt.Equal(sessionStart) {
		t.Errorf("Expected start time %v, got %v", sessionStart, s.StartedAt)
	}
}

func TestNewSession_Validation(t *testing.T) {
	tests := []struct {
		name     string
		userID   uuid.UUID
		mode     TestMode
		quota    int
		min, max int
		expected error
	}{
		{"nil user", uuid.Nil, TestModeQuick, 1, 5, 10, ErrSessionUserIDEmpty},
		{"unknown mode", uuid.New(), TestMode("marathon"), 1, 5, 10, ErrInvalidTestMode},
		{"zero quota", uuid.New(), TestModeQuick, 0, 5, 10, ErrInvalidQuota},
		{"max below min", uuid.New(), TestModeQuick, 1, 10, 5, ErrInvalidMaxItems},
		{"zero max", uuid.New(), TestModeQuick, 1, 0, 0, ErrInvalidMaxItems},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(tt.userID, tt.mode, tt.quota, tt.min, tt.max, 0.3, 0, sessionStart)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestSession_Validate_Bounds(t *testing.T) {
	s, err := NewSession(uuid.New(), TestModeQuick, 1, 1, 10, 0.3, 0, sessionStart)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	s.Theta = MaxTheta + 0.1
	if !errors.Is(s.Validate(), ErrThetaOutOfRange) {
		t.Errorf("Expected ErrThetaOutOfRange")
	}
	s.Theta = 0
	s.SE = MinSE / 2
	if !errors.Is(s.Validate(), ErrSEOutOfRange) {
		t.Errorf("Expected ErrSEOutOfRange")
	}
}

func TestSession_Complete(t *testing.T) {
	s, err := NewSession(uuid.New(), TestModeQuick, 1, 1, 10, 0.3, 0, sessionStart)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	s.CurrentItemID = uuid.New()

	if err := s.Complete(TerminationMaxItems, false, sessionStart); !errors.Is(err, ErrCoverageIncomplete) {
		t.Fatalf("Expected ErrCoverageIncomplete, got %v", err)
	}
	if !s.Active() {
		t.Fatal("A rejected completion must leave the session active")
	}

	end := sessionStart.Add(12 * time.Minute)
	if err := s.Complete(TerminationPrecision, true, end); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.Status != SessionStatusCompleted || s.TerminationReason != TerminationPrecision {
		t.Errorf("Unexpected state after completion: %s/%s", s.Status, s.TerminationReason)
	}
	if s.CompletedAt == nil || !s.CompletedAt.Equal(end) {
		t.Errorf("Expected completion time %v, got %v", end, s.CompletedAt)
	}
	if s.CurrentItemID != uuid.Nil {
		t.Error("Expected current item to be cleared")
	}
	if got := s.Elapsed(end); got != 12*time.Minute {
		t.Errorf("Expected elapsed 12m, got %v", got)
	}

	if err := s.Complete(TerminationMaxItems, true, end); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("Expected ErrSessionNotActive, got %v", err)
	}
}
