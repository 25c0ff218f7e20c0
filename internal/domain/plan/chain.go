package plan

import (
	"log/slog"
)

// Chain runs strategies in order and returns the first success.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain creates a chain over the given strategies.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		strategies: strategies,
		logger:     logger.With("component", "plan_chain"),
	}
}

// NewDefaultChain returns adaptive, legacy and emergency in that order.
func NewDefaultChain(cfg Config, logger *slog.Logger) *Chain {
	return NewChain(logger, NewAdaptive(cfg), NewLegacy(cfg), NewEmergency(cfg))
}

// Generate runs the chain. When every strategy fails the result is a
// failure with reason no_domain_data.
func (c *Chain) Generate(in Input) Result {
	for _, s := range c.strategies {
		res := s.Generate(in)
		if res.Success {
			c.logger.Debug("plan generated",
				slog.String("tier", string(s.Tier())),
				slog.String("user_id", in.UserID.String()),
				slog.Int("target_minutes", in.TargetMinutes))
			return res
		}
		c.logger.Debug("plan strategy skipped",
			slog.String("tier", string(s.Tier())),
			slog.String("reason", res.Reason))
	}

	c.logger.Warn("no plan strategy succeeded",
		slog.String("user_id", in.UserID.String()))
	return failure(ReasonNoDomainData, "no domain data available for this user")
}
