package cat

import (
	"time"

	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// ModeConfig fixes the limits a test mode imposes on a session.
type ModeConfig struct {
	Mode               domain.TestMode
	QuotaPerDomain     int
	MinItems           int
	BaseMaxItems       int
	PrecisionThreshold float64
	TimeLimit          time.Duration // zero means no limit
}

// Limits are the concrete item limits for a session over a given catalogue.
type Limits struct {
	QuotaPerDomain int
	MinItems       int
	MaxItems       int
}

// DefaultModes returns the built-in configuration for each test mode. The
// three modes scale quota and maximum together.
func DefaultModes() map[domain.TestMode]ModeConfig {
	return map[domain.TestMode]ModeConfig{
		domain.TestModeQuick: {
			Mode:               domain.TestModeQuick,
			QuotaPerDomain:     1,
			MinItems:           5,
			BaseMaxItems:       15,
			PrecisionThreshold: 0.5,
			TimeLimit:          15 * time.Minute,
		},
		domain.TestModeStandard: {
			Mode:               domain.TestModeStandard,
			QuotaPerDomain:     2,
			MinItems:           10,
			BaseMaxItems:       30,
			PrecisionThreshold: 0.4,
			TimeLimit:          30 * time.Minute,
		},
		domain.TestModeComprehensive: {
			Mode:               domain.TestModeComprehensive,
			QuotaPerDomain:     3,
			MinItems:           20,
			BaseMaxItems:       50,
			PrecisionThreshold: 0.3,
			TimeLimit:          60 * time.Minute,
		},
	}
}

// LimitsFor computes the item limits for a catalogue of domainCount domains.
// The maximum is never below domainCount × quota, so the coverage quota is
// always reachable, and the minimum never exceeds the maximum.
func (m ModeConfig) LimitsFor(domainCount int) Limits {
	quota := m.QuotaPerDomain
	if quota < 1 {
		quota = 1
	}

	maxItems := m.BaseMaxItems
	if floor := domainCount * quota; floor > maxItems {
		maxItems = floor
	}
	if maxItems < 1 {
		maxItems = 1
	}

	minItems := m.MinItems
	if minItems > maxItems {
		minItems = maxItems
	}
	if minItems < 0 {
		minItems = 0
	}

	return Limits{QuotaPerDomain: quota, MinItems: minItems, MaxItems: maxItems}
}
