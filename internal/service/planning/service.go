package planning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain/plan"
)

// MaxTargetMinutes is the longest study day a plan may cover.
const MaxTargetMinutes = 24 * 60

// Service builds daily study plans.
type Service interface {
	// GenerateDailyPlan allocates targetMinutes across due reviews and
	// knowledge domains. Inputs that fail to load are treated as missing, so
	// the plan degrades to a lower tier rather than failing; the result is
	// unsuccessful only when no domain data exists at all.
	//
	// Returns:
	//   - ErrInvalidUserID: the user ID is nil
	//   - ErrInvalidMinutes: targetMinutes is outside [1, MaxTargetMinutes]
	GenerateDailyPlan(ctx context.Context, userID uuid.UUID, targetMinutes int) (*plan.Result, error)
}

// Common error types for Service
var (
	ErrInvalidUserID  = errors.New("user ID cannot be empty")
	ErrInvalidMinutes = errors.New("target minutes must be between 1 and 1440")
)
