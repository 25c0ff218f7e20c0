package domain

import (
	"bytes"
	"errors"
	"math"

	"github.com/google/uuid"
)

// CalibrationStatus reports whether an item has usable IRT parameters.
type CalibrationStatus string

// Possible calibration status values
const (
	CalibrationStatusCalibrated   CalibrationStatus = "calibrated"
	CalibrationStatusUncalibrated CalibrationStatus = "uncalibrated"
)

// Item-specific validation errors
var (
	// ErrItemIDEmpty is returned when an item ID is nil.
	ErrItemIDEmpty = errors.New("item ID cannot be empty")

	// ErrItemDomainEmpty is returned when an item has no domain code.
	ErrItemDomainEmpty = errors.New("item domain code cannot be empty")

	// ErrInvalidCalibration is returned when calibration parameters are out of range.
	ErrInvalidCalibration = errors.New("invalid calibration parameters")
)

// Calibration holds the three-parameter-logistic parameters of an item.
// It is a value type: copy it, never share a pointer to a mutable one.
type Calibration struct {
	Discrimination float64 `json:"discrimination"` // a, must be > 0
	Difficulty     float64 `json:"difficulty"`     // b, any finite value
	Guessing       float64 `json:"guessing"`       // c, in [0, 1)
}

// NewCalibration builds a Calibration and checks its parameter ranges.
func NewCalibration(discrimination, difficulty, guessing float64) (Calibration, error) {
	c := Calibration{
		Discrimination: discrimination,
		Difficulty:     difficulty,
		Guessing:       guessing,
	}
	if !c.Valid() {
		return Calibration{}, ErrInvalidCalibration
	}
	return c, nil
}

// Valid reports whether the parameters can be used by the response model.
func (c Calibration) Valid() bool {
	if math.IsNaN(c.Discrimination) || math.IsInf(c.Discrimination, 0) || c.Discrimination <= 0 {
		return false
	}
	if math.IsNaN(c.Difficulty) || math.IsInf(c.Difficulty, 0) {
		return false
	}
	if math.IsNaN(c.Guessing) || c.Guessing < 0 || c.Guessing >= 1 {
		return false
	}
	return true
}

// Item is a single assessment item from the item bank.
// Items are owned by the item repository and are read-only here.
type Item struct {
	ID          uuid.UUID         `json:"id"`
	DomainCode  string            `json:"domain_code"`
	Calibration *Calibration      `json:"calibration,omitempty"`
	Status      CalibrationStatus `json:"calibration_status"`
}

// Calibrated reports whether the item carries usable parameters. Items that
// fail this check are left out of estimation and selection.
func (i Item) Calibrated() bool {
	return i.Status == CalibrationStatusCalibrated &&
		i.Calibration != nil &&
		i.Calibration.Valid()
}

// Difficulty returns the item difficulty, or 0 for uncalibrated items.
func (i Item) Difficulty() float64 {
	if i.Calibration == nil {
		return 0
	}
	return i.Calibration.Difficulty
}

// Validate checks the identifying fields of an item. A missing or invalid
// calibration is not a validation failure.
func (i Item) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}
	if i.DomainCode == "" {
		return ErrItemDomainEmpty
	}
	return nil
}

// LessID orders item IDs by their byte representation. It is the
// deterministic tie-breaker used wherever two items rank equally.
func LessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
