package api

import (
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
)

// StartSessionRequest defines the payload for starting a diagnostic session.
type StartSessionRequest struct {
	UserID   string `json:"user_id"   validate:"required,uuid"`
	TestMode string `json:"test_mode" validate:"required,oneof=quick standard comprehensive"`
}

// SubmitResponseRequest defines the payload for answering the current item.
type SubmitResponseRequest struct {
	ItemID  string `json:"item_id" validate:"required,uuid"`
	Correct *bool  `json:"correct" validate:"required"`
}

// RecordReviewRequest defines the payload for grading a review.
type RecordReviewRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	ItemID  string `json:"item_id" validate:"required,uuid"`
	Quality *int   `json:"quality" validate:"required,gte=0,lte=5"`
}

// PostponeRequest defines the payload for postponing a review.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gte=1"`
}

// SessionResponse is a session together with its ordered response history.
type SessionResponse struct {
	Session   *domain.Session   `json:"session"`
	Responses []domain.Response `json:"responses"`
}

// DueReviewsResponse lists ranked due reviews.
type DueReviewsResponse struct {
	Reviews []integrator.Ranked `json:"reviews"`
	Count   int                 `json:"count"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
