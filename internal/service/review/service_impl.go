package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
	"github.com/phrazzld/scry-adaptive/internal/domain/srs"
	"github.com/phrazzld/scry-adaptive/internal/platform/keylock"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*reviewService)(nil)

// Option configures the review service.
type Option func(*reviewService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *reviewService) {
		s.now = now
	}
}

type reviewService struct {
	stores     store.Stores
	transactor store.Transactor
	locker     keylock.Locker
	scheduler  srs.Service
	integrator *integrator.Integrator
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a new review Service.
func NewService(
	stores store.Stores,
	transactor store.Transactor,
	locker keylock.Locker,
	scheduler srs.Service,
	integ *integrator.Integrator,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if stores.Reviews == nil || stores.Items == nil || stores.Abilities == nil {
		panic("stores cannot be nil")
	}
	if transactor == nil {
		panic("transactor cannot be nil")
	}
	if locker == nil {
		panic("locker cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if integ == nil {
		integ = integrator.New(integrator.DefaultWeights())
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &reviewService{
		stores:     stores,
		transactor: transactor,
		locker:     locker,
		scheduler:  scheduler,
		integrator: integ,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordReview implements Service.RecordReview.
func (s *reviewService) RecordReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
	quality int,
) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if !domain.ValidQuality(quality) {
		log.Warn("invalid review quality",
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()),
			slog.Int("quality", quality))
		return nil, ErrInvalidQuality
	}

	release, err := s.locker.Acquire(ctx, keylock.ReviewKey(userID.String(), itemID.String()))
	if err != nil {
		return nil, newError("record_review", "failed to acquire review lock", err)
	}
	defer release()

	var result *Result
	err = s.transactor.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		item, err := stores.Items.Get(ctx, itemID)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to get item: %w", err)
		}

		now := s.now()
		record, err := stores.Reviews.GetForUpdate(ctx, userID, itemID)
		isNew := false
		switch {
		case errors.Is(err, store.ErrReviewNotFound):
			record, err = domain.NewReviewRecord(userID, itemID, item.DomainCode, now)
			if err != nil {
				return fmt.Errorf("failed to create review record: %w", err)
			}
			isNew = true
		case err != nil:
			return fmt.Errorf("failed to get review record: %w", err)
		}
		if !record.Active {
			return ErrReviewInactive
		}

		ability, err := abilityFor(ctx, stores.Abilities, userID, item.DomainCode)
		if err != nil {
			return err
		}

		result = &Result{AbilityBefore: ability.Theta, AbilityAfter: ability.Theta, Quality: quality}
		if !item.Calibrated() {
			// No difficulty to compare against: plain SM-2, ability untouched.
			next, err := s.scheduler.CalculateNextReview(record, quality, now)
			if err != nil {
				return mapSchedulerError(err)
			}
			s.integrator.ApplyUncalibrated(next, ability.Theta)
			result.Record = next
		} else {
			difficulty := item.Difficulty()
			result.Quality = s.integrator.AdjustQuality(quality, ability.Theta, difficulty)

			next, err := s.scheduler.CalculateNextReview(record, result.Quality, now)
			if err != nil {
				return mapSchedulerError(err)
			}
			s.integrator.Apply(next, ability.Theta, difficulty, now)
			result.Record = next

			result.AbilityAfter = s.integrator.UpdateAbility(
				ability.Theta, difficulty, record.Repetitions, result.Quality)
			ability.Theta = result.AbilityAfter
			ability.DomainCode = item.DomainCode
			ability.Source = domain.AbilitySourceReview
			ability.UpdatedAt = now
			if err := stores.Abilities.Upsert(ctx, &ability); err != nil {
				return fmt.Errorf("failed to save ability: %w", err)
			}
		}

		if isNew {
			err = stores.Reviews.Create(ctx, result.Record)
		} else {
			err = stores.Reviews.Update(ctx, result.Record)
		}
		if err != nil {
			return fmt.Errorf("failed to save review record: %w", err)
		}
		return nil
	})
	if err != nil {
		if IsExpected(err) {
			log.Warn("review rejected",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("item_id", itemID.String()))
			return nil, err
		}
		log.Error("failed to record review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()))
		return nil, newError("record_review", "failed to record review", err)
	}

	log.Debug("review recorded",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("quality", quality),
		slog.Int("adjusted_quality", result.Quality),
		slog.Int("interval", result.Record.AdjustedInterval),
		slog.Time("next_review_at", result.Record.NextReviewAt))
	return result, nil
}

// ListDue implements Service.ListDue.
func (s *reviewService) ListDue(ctx context.Context, userID uuid.UUID, limit int) ([]integrator.Ranked, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	if limit <= 0 {
		limit = DefaultDueLimit
	}
	if limit > MaxDueLimit {
		limit = MaxDueLimit
	}

	now := s.now()
	records, err := s.stores.Reviews.ListDue(ctx, userID, now, limit)
	if err != nil {
		log.Error("failed to list due reviews",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, newError("list_due", "failed to list due reviews", err)
	}

	abilities, err := s.stores.Abilities.ListByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list abilities",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, newError("list_due", "failed to list abilities", err)
	}

	return Rank(s.integrator, records, abilities, now), nil
}

// Rank pairs due records with the user's ability in each record's domain
// and orders them by priority.
func Rank(
	integ *integrator.Integrator,
	records []domain.ReviewRecord,
	abilities []domain.UserAbility,
	now time.Time,
) []integrator.Ranked {
	thetas := ThetaLookup(abilities)
	candidates := make([]integrator.Candidate, len(records))
	for i := range records {
		candidates[i] = integrator.Candidate{
			Record: &records[i],
			Theta:  thetas(records[i].DomainCode),
		}
	}
	return integ.Rank(candidates, now)
}

// ThetaLookup returns a function giving the user's ability in a domain,
// falling back to the overall ability and then to the initial estimate.
func ThetaLookup(abilities []domain.UserAbility) func(domainCode string) float64 {
	byDomain := make(map[string]float64, len(abilities))
	for _, a := range abilities {
		byDomain[a.DomainCode] = a.Theta
	}
	return func(domainCode string) float64 {
		if theta, ok := byDomain[domainCode]; ok {
			return theta
		}
		if theta, ok := byDomain[domain.OverallDomain]; ok {
			return theta
		}
		return domain.InitialTheta
	}
}

// Postpone implements Service.Postpone.
func (s *reviewService) Postpone(
	ctx context.Context,
	userID, itemID uuid.UUID,
	days int,
) (*domain.ReviewRecord, error) {
	if days < 1 {
		return nil, ErrInvalidDays
	}
	return s.modify(ctx, "postpone", userID, itemID, func(r *domain.ReviewRecord, now time.Time) (*domain.ReviewRecord, error) {
		return s.scheduler.PostponeReview(r, days, now)
	})
}

// Deactivate implements Service.Deactivate.
func (s *reviewService) Deactivate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewRecord, error) {
	return s.modify(ctx, "deactivate", userID, itemID, func(r *domain.ReviewRecord, now time.Time) (*domain.ReviewRecord, error) {
		if !r.Active {
			return r, nil
		}
		return s.scheduler.Deactivate(r, now)
	})
}

// modify applies fn to an existing record under the (user, item) lock.
func (s *reviewService) modify(
	ctx context.Context,
	operation string,
	userID, itemID uuid.UUID,
	fn func(*domain.ReviewRecord, time.Time) (*domain.ReviewRecord, error),
) (*domain.ReviewRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	release, err := s.locker.Acquire(ctx, keylock.ReviewKey(userID.String(), itemID.String()))
	if err != nil {
		return nil, newError(operation, "failed to acquire review lock", err)
	}
	defer release()

	var updated *domain.ReviewRecord
	err = s.transactor.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		record, err := stores.Reviews.GetForUpdate(ctx, userID, itemID)
		if err != nil {
			if errors.Is(err, store.ErrReviewNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to get review record: %w", err)
		}

		next, err := fn(record, s.now())
		if err != nil {
			return mapSchedulerError(err)
		}
		if next == record {
			updated = record
			return nil
		}
		if err := stores.Reviews.Update(ctx, next); err != nil {
			return fmt.Errorf("failed to update review record: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		if IsExpected(err) {
			return nil, err
		}
		log.Error("failed to modify review record",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()))
		return nil, newError(operation, "failed to update review record", err)
	}
	return updated, nil
}

// abilityFor returns the stored ability for the domain, the overall ability
// when the domain has none, or the initial estimate.
func abilityFor(
	ctx context.Context,
	abilities store.AbilityStore,
	userID uuid.UUID,
	domainCode string,
) (domain.UserAbility, error) {
	for _, code := range []string{domainCode, domain.OverallDomain} {
		a, err := abilities.Get(ctx, userID, code)
		if err == nil {
			return *a, nil
		}
		if !errors.Is(err, store.ErrAbilityNotFound) {
			return domain.UserAbility{}, fmt.Errorf("failed to get ability: %w", err)
		}
	}
	return domain.UserAbility{
		UserID:     userID,
		DomainCode: domainCode,
		Theta:      domain.InitialTheta,
		SE:         domain.InitialSE,
	}, nil
}

func mapSchedulerError(err error) error {
	switch {
	case errors.Is(err, srs.ErrInvalidQuality):
		return ErrInvalidQuality
	case errors.Is(err, srs.ErrInvalidDays):
		return ErrInvalidDays
	case errors.Is(err, srs.ErrInactive):
		return ErrReviewInactive
	default:
		return fmt.Errorf("failed to schedule review: %w", err)
	}
}
