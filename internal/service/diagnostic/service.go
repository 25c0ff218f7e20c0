package diagnostic

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/service"
)

// SessionHandle is returned when a session is started or resumed.
type SessionHandle struct {
	Session *domain.Session `json:"session"`
	// NextItem is the item to administer, nil when the session is already completed.
	NextItem *domain.Item `json:"next_item,omitempty"`
	// Resumed is true when an existing active session was returned.
	Resumed bool `json:"resumed"`
}

// SubmitResult describes the session after a response was recorded.
type SubmitResult struct {
	Session   *domain.Session          `json:"session"`
	Response  domain.Response          `json:"response"`
	Completed bool                     `json:"completed"`
	Reason    domain.TerminationReason `json:"termination_reason,omitempty"`
	NextItem  *domain.Item             `json:"next_item,omitempty"`
}

// Service runs adaptive diagnostic sessions.
type Service interface {
	// StartSession returns the user's active session in the mode, or starts a
	// new one at the initial ability estimate with its first item selected.
	//
	// Returns:
	//   - ErrInvalidTestMode: the mode is not supported
	//   - ErrInvalidUserID: the user ID is nil
	StartSession(ctx context.Context, userID uuid.UUID, mode domain.TestMode) (*SessionHandle, error)

	// SubmitResponse records the answer to an item, re-estimates ability over
	// the full response history and either completes the session or selects
	// the next item. Calls for the same session are serialized.
	//
	// Returns:
	//   - ErrSessionNotFound: the session does not exist
	//   - ErrSessionCompleted: the session no longer accepts responses
	//   - ErrItemNotFound: the item does not exist
	//   - ErrItemAlreadyAnswered: the item was already answered in this session
	//   - ErrItemNotCurrent: the item is not the one the session is waiting on
	SubmitResponse(ctx context.Context, sessionID, itemID uuid.UUID, correct bool) (*SubmitResult, error)

	// GetSession returns the session with its ordered response history.
	//
	// Returns:
	//   - ErrSessionNotFound: the session does not exist
	GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
}

// Common error types for Service
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionCompleted    = errors.New("session already completed")
	ErrItemNotFound        = errors.New("item not found")
	ErrItemAlreadyAnswered = errors.New("item already answered in this session")
	ErrItemNotCurrent      = errors.New("item is not the session's current item")
	ErrInvalidTestMode     = errors.New("invalid test mode")
	ErrInvalidUserID       = errors.New("user ID cannot be empty")
)

var expectedErrors = []error{
	ErrSessionNotFound,
	ErrSessionCompleted,
	ErrItemNotFound,
	ErrItemAlreadyAnswered,
	ErrItemNotCurrent,
	ErrInvalidTestMode,
	ErrInvalidUserID,
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

const serviceName = "diagnostic"

// NewStartSessionError returns a ServiceError for the start_session operation.
func NewStartSessionError(message string, err error) *service.ServiceError {
	return service.NewServiceError(serviceName, "start_session", message, err)
}

// NewSubmitResponseError returns a ServiceError for the submit_response operation.
func NewSubmitResponseError(message string, err error) *service.ServiceError {
	return service.NewServiceError(serviceName, "submit_response", message, err)
}

// NewGetSessionError returns a ServiceError for the get_session operation.
func NewGetSessionError(message string, err error) *service.ServiceError {
	return service.NewServiceError(serviceName, "get_session", message, err)
}
