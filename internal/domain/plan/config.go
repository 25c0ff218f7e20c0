package plan

// Config holds allocator tuning.
type Config struct {
	// ReviewShare is the largest fraction of the day given to due reviews.
	ReviewShare float64 `mapstructure:"review_share" validate:"gte=0,lte=1"`

	MinutesPerReview int `mapstructure:"minutes_per_review" validate:"gte=1"`
	MinutesPerItem   int `mapstructure:"minutes_per_item"   validate:"gte=1"`

	// WeaknessMargin is subtracted from the mean ability to get the weakness threshold.
	WeaknessMargin float64 `mapstructure:"weakness_margin" validate:"gte=0"`

	// HorizonDays is the assumed days to target when the user has no goal.
	HorizonDays int `mapstructure:"horizon_days" validate:"gte=1"`

	// FallbackDomains are the domains the emergency strategy splits time over.
	FallbackDomains []string `mapstructure:"fallback_domains"`

	// EmergencyDomainCount limits the catalogue domains used when no fallback is configured.
	EmergencyDomainCount int `mapstructure:"emergency_domain_count" validate:"gte=1"`
}

// DefaultConfig returns the standard allocator settings.
func DefaultConfig() Config {
	return Config{
		ReviewShare:          0.4,
		MinutesPerReview:     3,
		MinutesPerItem:       5,
		WeaknessMargin:       0.5,
		HorizonDays:          90,
		EmergencyDomainCount: 3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReviewShare <= 0 || c.ReviewShare > 1 {
		c.ReviewShare = d.ReviewShare
	}
	if c.MinutesPerReview <= 0 {
		c.MinutesPerReview = d.MinutesPerReview
	}
	if c.MinutesPerItem <= 0 {
		c.MinutesPerItem = d.MinutesPerItem
	}
	if c.WeaknessMargin <= 0 {
		c.WeaknessMargin = d.WeaknessMargin
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.EmergencyDomainCount <= 0 {
		c.EmergencyDomainCount = d.EmergencyDomainCount
	}
	return c
}
