package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-adaptive/internal/api/shared"
	"github.com/phrazzld/scry-adaptive/internal/service/diagnostic"
	"github.com/phrazzld/scry-adaptive/internal/service/planning"
	"github.com/phrazzld/scry-adaptive/internal/service/review"
)

// Request-level errors raised by the handlers themselves.
var (
	// ErrInvalidRequest is returned for malformed bodies, paths or query parameters.
	ErrInvalidRequest = errors.New("invalid request")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	// Not found errors
	case errors.Is(err, diagnostic.ErrSessionNotFound),
		errors.Is(err, diagnostic.ErrItemNotFound),
		errors.Is(err, review.ErrItemNotFound),
		errors.Is(err, review.ErrReviewNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, diagnostic.ErrSessionCompleted),
		errors.Is(err, diagnostic.ErrItemAlreadyAnswered),
		errors.Is(err, diagnostic.ErrItemNotCurrent),
		errors.Is(err, review.ErrReviewInactive):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &validationErrs),
		errors.Is(err, diagnostic.ErrInvalidTestMode),
		errors.Is(err, diagnostic.ErrInvalidUserID),
		errors.Is(err, review.ErrInvalidUserID),
		errors.Is(err, review.ErrInvalidQuality),
		errors.Is(err, review.ErrInvalidDays),
		errors.Is(err, planning.ErrInvalidUserID),
		errors.Is(err, planning.ErrInvalidMinutes):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var (
		validationErrs validator.ValidationErrors
		reqErr         *RequestError
	)

	switch {
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)

	case errors.Is(err, diagnostic.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, diagnostic.ErrItemNotFound),
		errors.Is(err, review.ErrItemNotFound):
		return "Item not found"

	case errors.Is(err, review.ErrReviewNotFound):
		return "Review not found"

	case errors.Is(err, diagnostic.ErrSessionCompleted):
		return "Session already completed"

	case errors.Is(err, diagnostic.ErrItemAlreadyAnswered):
		return "Item already answered in this session"

	case errors.Is(err, diagnostic.ErrItemNotCurrent):
		return "Item is not the current item for this session"

	case errors.Is(err, review.ErrReviewInactive):
		return "Review is inactive"

	case errors.Is(err, diagnostic.ErrInvalidTestMode):
		return "Invalid test mode"

	case errors.Is(err, diagnostic.ErrInvalidUserID),
		errors.Is(err, review.ErrInvalidUserID),
		errors.Is(err, planning.ErrInvalidUserID):
		return "Invalid user ID"

	case errors.Is(err, review.ErrInvalidQuality):
		return "Quality must be between 0 and 5"

	case errors.Is(err, review.ErrInvalidDays):
		return "Days must be at least 1"

	case errors.Is(err, planning.ErrInvalidMinutes):
		return "Minutes must be between 1 and 1440"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	case errors.As(err, &reqErr):
		return reqErr.Message

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status and safe message and writes the
// response. defaultMsg replaces the generic message for server errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// RequestError is a malformed request. Message is safe to return to the
// client; Err holds the underlying detail for logs only.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap makes every RequestError match ErrInvalidRequest.
func (e *RequestError) Unwrap() error {
	return ErrInvalidRequest
}

func invalidRequest(msg string) error {
	return &RequestError{Message: msg}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	errMsg := err.Error()
	// Example format: "Key: 'StartSessionRequest.TestMode' Error:Field validation for 'TestMode' failed on the 'oneof' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid", "uuid4":
		return "invalid UUID"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
