package review

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
	"github.com/phrazzld/scry-adaptive/internal/service"
)

// DefaultDueLimit caps ListDue when the caller passes no limit.
const DefaultDueLimit = 50

// MaxDueLimit is the largest limit ListDue accepts.
const MaxDueLimit = 500

// Result describes a recorded review.
type Result struct {
	Record *domain.ReviewRecord `json:"record"`
	// Quality is the recall grade after the difficulty correction.
	Quality int `json:"adjusted_quality"`
	// AbilityBefore and AbilityAfter bracket the ability feedback. They are
	// equal when the item is uncalibrated.
	AbilityBefore float64 `json:"ability_before"`
	AbilityAfter  float64 `json:"ability_after"`
}

// Service schedules spaced-repetition reviews using the learner's ability.
type Service interface {
	// RecordReview grades a review, reschedules the item and feeds the result
	// back into the user's ability for the item's domain. The first review of
	// an item creates its record. Calls for the same (user, item) are serialized.
	//
	// Returns:
	//   - ErrInvalidQuality: quality is outside [0, 5]
	//   - ErrItemNotFound: the item does not exist
	//   - ErrReviewInactive: the record was deactivated
	RecordReview(ctx context.Context, userID, itemID uuid.UUID, quality int) (*Result, error)

	// ListDue returns the user's due reviews ranked by descending priority.
	// A limit ≤ 0 uses DefaultDueLimit. The limit applies before ranking: the
	// store returns the limit earliest-due records and only those are ranked,
	// so a high-priority review due later than all of them is left out.
	ListDue(ctx context.Context, userID uuid.UUID, limit int) ([]integrator.Ranked, error)

	// Postpone pushes a record's next review back by days.
	//
	// Returns:
	//   - ErrInvalidDays: days < 1
	//   - ErrReviewNotFound: the user has no record for the item
	Postpone(ctx context.Context, userID, itemID uuid.UUID, days int) (*domain.ReviewRecord, error)

	// Deactivate stops scheduling the item for the user. Records are never
	// deleted; deactivating twice is a no-op.
	//
	// Returns:
	//   - ErrReviewNotFound: the user has no record for the item
	Deactivate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewRecord, error)
}

// Common error types for Service
var (
	ErrInvalidUserID  = errors.New("user ID cannot be empty")
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")
	ErrInvalidDays    = errors.New("postpone days must be at least 1")
	ErrItemNotFound   = errors.New("item not found")
	ErrReviewNotFound = errors.New("review record not found")
	ErrReviewInactive = errors.New("review record is inactive")
)

var expectedErrors = []error{
	ErrInvalidUserID,
	ErrInvalidQuality,
	ErrInvalidDays,
	ErrItemNotFound,
	ErrReviewNotFound,
	ErrReviewInactive,
}

// IsExpected reports whether err is one of the sentinel errors above.
func IsExpected(err error) bool {
	for _, target := range expectedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func newError(operation, message string, err error) *service.ServiceError {
	return service.NewServiceError("review", operation, message, err)
}
