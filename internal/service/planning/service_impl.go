package planning

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
	"github.com/phrazzld/scry-adaptive/internal/domain/plan"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/phrazzld/scry-adaptive/internal/service"
	"github.com/phrazzld/scry-adaptive/internal/service/review"
	"github.com/phrazzld/scry-adaptive/internal/store"
	"golang.org/x/sync/errgroup"
)

// Load limits for the review queue and new-content candidates. The due
// queue is cut by due date before it is ranked by priority.
const (
	dueLoadLimit    = 200
	unseenLoadLimit = 200
)

// Verify interface compliance at compile time
var _ Service = (*planningService)(nil)

// Option configures the planning service.
type Option func(*planningService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *planningService) {
		s.now = now
	}
}

type planningService struct {
	stores     store.Stores
	chain      *plan.Chain
	integrator *integrator.Integrator
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a new planning Service.
func NewService(
	stores store.Stores,
	chain *plan.Chain,
	integ *integrator.Integrator,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if stores.Domains == nil || stores.Abilities == nil || stores.Analyses == nil ||
		stores.Reviews == nil || stores.Items == nil || stores.Goals == nil {
		panic("stores cannot be nil")
	}
	if chain == nil {
		panic("chain cannot be nil")
	}
	if integ == nil {
		integ = integrator.New(integrator.DefaultWeights())
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &planningService{
		stores:     stores,
		chain:      chain,
		integrator: integ,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("component", "planning_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateDailyPlan implements Service.GenerateDailyPlan.
func (s *planningService) GenerateDailyPlan(
	ctx context.Context,
	userID uuid.UUID,
	targetMinutes int,
) (*plan.Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if targetMinutes < 1 || targetMinutes > MaxTargetMinutes {
		return nil, ErrInvalidMinutes
	}

	in, err := s.load(ctx, userID, targetMinutes)
	if err != nil {
		return nil, service.NewServiceError("planning", "generate_daily_plan", "failed to load plan inputs", err)
	}

	result := s.chain.Generate(in)
	if result.Success {
		log.Info("daily plan generated",
			slog.String("user_id", userID.String()),
			slog.String("tier", string(result.Plan.SourceTier)),
			slog.Int("target_minutes", targetMinutes),
			slog.Int("allocated_minutes", result.Plan.TotalMinutes()))
	} else {
		log.Warn("no daily plan available",
			slog.String("user_id", userID.String()),
			slog.String("reason", result.Reason))
	}
	return &result, nil
}

// load reads the independent plan inputs concurrently. A failed read is
// logged and leaves its input empty; only cancellation aborts the load.
func (s *planningService) load(ctx context.Context, userID uuid.UUID, targetMinutes int) (plan.Input, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	in := plan.Input{
		UserID:        userID,
		TargetMinutes: targetMinutes,
		Now:           s.now(),
		Abilities:     make(map[string]domain.UserAbility),
		Analyses:      make(map[string]domain.DomainAnalysis),
	}

	var (
		abilities []domain.UserAbility
		due       []domain.ReviewRecord
	)

	degrade := func(ctx context.Context, input string, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn("plan input unavailable",
			slog.String("input", input),
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		domains, err := s.stores.Domains.List(gctx)
		if err != nil {
			return degrade(gctx, "domains", err)
		}
		in.Domains = domains
		return nil
	})
	g.Go(func() error {
		list, err := s.stores.Abilities.ListByUser(gctx, userID)
		if err != nil {
			return degrade(gctx, "abilities", err)
		}
		abilities = list
		return nil
	})
	g.Go(func() error {
		list, err := s.stores.Analyses.LatestByUser(gctx, userID)
		if err != nil {
			return degrade(gctx, "analyses", err)
		}
		for _, a := range list {
			in.Analyses[a.DomainCode] = a
		}
		return nil
	})
	g.Go(func() error {
		list, err := s.stores.Reviews.ListDue(gctx, userID, in.Now, dueLoadLimit)
		if err != nil {
			return degrade(gctx, "due_reviews", err)
		}
		due = list
		return nil
	})
	g.Go(func() error {
		items, err := s.stores.Items.ListUnseen(gctx, userID, unseenLoadLimit)
		if err != nil {
			return degrade(gctx, "unseen_items", err)
		}
		in.Unseen = items
		return nil
	})
	g.Go(func() error {
		goal, err := s.stores.Goals.Get(gctx, userID)
		switch {
		case errors.Is(err, store.ErrGoalNotFound):
			return nil
		case err != nil:
			return degrade(gctx, "goal", err)
		}
		in.TargetDate = goal.TargetDate
		return nil
	})

	if err := g.Wait(); err != nil {
		return plan.Input{}, err
	}

	for _, a := range abilities {
		if a.DomainCode != domain.OverallDomain {
			in.Abilities[a.DomainCode] = a
		}
	}
	in.DueReviews = review.Rank(s.integrator, due, abilities, in.Now)
	return in, nil
}
