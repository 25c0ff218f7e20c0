package domain

import "errors"

// Knowledge domain validation errors
var (
	ErrDomainCodeEmpty     = errors.New("domain code cannot be empty")
	ErrDomainWeightInvalid = errors.New("domain weight must be greater than 0")
)

// KnowledgeDomain is a tagged area of the item bank. Weight scales how much
// attention the domain gets during item selection and plan allocation.
type KnowledgeDomain struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Validate checks if the KnowledgeDomain has valid data.
func (d KnowledgeDomain) Validate() error {
	if d.Code == "" {
		return ErrDomainCodeEmpty
	}
	if d.Weight <= 0 {
		return ErrDomainWeightInvalid
	}
	return nil
}
