package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Response validation errors
var (
	ErrResponseSessionIDEmpty = errors.New("response session ID cannot be empty")
	ErrResponseItemIDEmpty    = errors.New("response item ID cannot be empty")
)

// Response is one answered item within a diagnostic session. Responses are
// append-only: they are never updated once stored.
type Response struct {
	ID          uuid.UUID    `json:"id"`
	SessionID   uuid.UUID    `json:"session_id"`
	ItemID      uuid.UUID    `json:"item_id"`
	DomainCode  string       `json:"domain_code"`
	Correct     bool         `json:"correct"`
	Sequence    int          `json:"sequence"`
	ThetaBefore float64      `json:"theta_before"`
	SEBefore    float64      `json:"se_before"`
	ThetaAfter  float64      `json:"theta_after"`
	SEAfter     float64      `json:"se_after"`
	Information float64      `json:"information"`
	Calibration *Calibration `json:"calibration,omitempty"` // nil when the item was uncalibrated
	CreatedAt   time.Time    `json:"created_at"`
}

// Validate checks if the Response has valid data.
func (r *Response) Validate() error {
	if r.SessionID == uuid.Nil {
		return ErrResponseSessionIDEmpty
	}
	if r.ItemID == uuid.Nil {
		return ErrResponseItemIDEmpty
	}
	return nil
}

// Calibrated reports whether the response carries usable item parameters.
func (r *Response) Calibrated() bool {
	return r.Calibration != nil && r.Calibration.Valid()
}
