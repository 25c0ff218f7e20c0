package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// Common errors
var (
	ErrNilRecord      = errors.New("review record cannot be nil")
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")
	ErrInvalidDays    = errors.New("postpone days must be at least 1")
	ErrInactive       = errors.New("review record is inactive")
	ErrNilParams      = errors.New("params cannot be nil")
)

// Service defines the interface for SM-2 scheduling operations
type Service interface {
	// CalculateNextReview computes a new record from a review of the given quality
	CalculateNextReview(
		record *domain.ReviewRecord,
		quality int,
		now time.Time,
	) (*domain.ReviewRecord, error)

	// PostponeReview pushes the next review time forward by a specified number of days
	PostponeReview(
		record *domain.ReviewRecord,
		days int,
		now time.Time,
	) (*domain.ReviewRecord, error)

	// Deactivate soft-deletes a record so it is no longer scheduled
	Deactivate(record *domain.ReviewRecord, now time.Time) (*domain.ReviewRecord, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() (Service, error) {
	return &defaultService{
		params: NewDefaultParams(),
	}, nil
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrNilParams
	}
	return &defaultService{
		params: params,
	}, nil
}

// CalculateNextReview implements the Service interface for calculating an updated record
func (s *defaultService) CalculateNextReview(
	record *domain.ReviewRecord,
	quality int,
	now time.Time,
) (*domain.ReviewRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}
	if !domain.ValidQuality(quality) {
		return nil, ErrInvalidQuality
	}
	if !record.Active {
		return nil, ErrInactive
	}

	return calculateNextRecord(record, quality, now, s.params), nil
}

// PostponeReview implements the Service interface for postponing reviews
func (s *defaultService) PostponeReview(
	record *domain.ReviewRecord,
	days int,
	now time.Time,
) (*domain.ReviewRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}
	if days < 1 {
		return nil, ErrInvalidDays
	}

	next := record.Clone()
	next.NextReviewAt = record.NextReviewAt.AddDate(0, 0, days)
	next.UpdatedAt = now
	return next, nil
}

// Deactivate implements the Service interface for soft-deleting a record
func (s *defaultService) Deactivate(record *domain.ReviewRecord, now time.Time) (*domain.ReviewRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}

	next := record.Clone()
	next.Active = false
	next.UpdatedAt = now
	return next, nil
}
