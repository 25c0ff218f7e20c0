package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/config"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/cat"
	"github.com/phrazzld/scry-adaptive/internal/domain/irt"
	"github.com/phrazzld/scry-adaptive/internal/events"
	"github.com/phrazzld/scry-adaptive/internal/platform/keylock"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*diagnosticService)(nil)

// Option configures the diagnostic service.
type Option func(*diagnosticService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *diagnosticService) {
		s.now = now
	}
}

// WithModes replaces the built-in test mode configuration.
func WithModes(modes map[domain.TestMode]cat.ModeConfig) Option {
	return func(s *diagnosticService) {
		s.modes = modes
	}
}

// diagnosticService implements the Service interface.
type diagnosticService struct {
	stores     store.Stores
	transactor store.Transactor
	locker     keylock.Locker
	emitter    events.EventEmitter
	cfg        config.DiagnosticConfig
	modes      map[domain.TestMode]cat.ModeConfig
	estimator  *irt.Estimator
	selector   *cat.Selector
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a new diagnostic Service.
func NewService(
	stores store.Stores,
	transactor store.Transactor,
	locker keylock.Locker,
	emitter events.EventEmitter,
	cfg config.DiagnosticConfig,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if stores.Sessions == nil || stores.Responses == nil || stores.Items == nil || stores.Domains == nil {
		panic("stores cannot be nil")
	}
	if transactor == nil {
		panic("transactor cannot be nil")
	}
	if locker == nil {
		panic("locker cannot be nil")
	}
	if emitter == nil {
		panic("emitter cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &diagnosticService{
		stores:     stores,
		transactor: transactor,
		locker:     locker,
		emitter:    emitter,
		cfg:        cfg,
		modes:      cat.DefaultModes(),
		estimator:  irt.NewEstimator(),
		selector:   cat.NewSelector(),
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("component", "diagnostic_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession implements Service.StartSession.
func (s *diagnosticService) StartSession(
	ctx context.Context,
	userID uuid.UUID,
	mode domain.TestMode,
) (*SessionHandle, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}
	modeCfg, ok := s.modes[mode]
	if !ok || !mode.Valid() {
		log.Warn("invalid test mode", slog.String("test_mode", string(mode)))
		return nil, ErrInvalidTestMode
	}

	release, err := s.locker.Acquire(ctx, keylock.UserModeKey(userID.String(), string(mode)))
	if err != nil {
		return nil, NewStartSessionError("failed to acquire start lock", err)
	}
	defer release()

	var handle *SessionHandle
	for attempt := 0; attempt < 2; attempt++ {
		handle, err = s.startInTx(ctx, userID, mode, modeCfg)
		if !errors.Is(err, store.ErrActiveSessionExists) {
			break
		}
		// Another instance created the session between our check and insert.
		log.Debug("active session appeared concurrently, resuming",
			slog.String("user_id", userID.String()),
			slog.String("test_mode", string(mode)))
	}
	if err != nil {
		if IsExpected(err) {
			return nil, err
		}
		log.Error("failed to start session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("test_mode", string(mode)))
		return nil, NewStartSessionError("failed to start session", err)
	}

	if !handle.Resumed && !handle.Session.Active() {
		s.emitCompleted(ctx, handle.Session)
	}

	log.Info("diagnostic session ready",
		slog.String("session_id", handle.Session.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("test_mode", string(mode)),
		slog.Bool("resumed", handle.Resumed))
	return handle, nil
}

func (s *diagnosticService) startInTx(
	ctx context.Context,
	userID uuid.UUID,
	mode domain.TestMode,
	modeCfg cat.ModeConfig,
) (*SessionHandle, error) {
	var handle *SessionHandle
	err := s.transactor.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		if err := stores.Sessions.LockUserMode(ctx, userID, mode); err != nil {
			return fmt.Errorf("failed to lock user mode: %w", err)
		}

		existing, err := stores.Sessions.GetActive(ctx, userID, mode)
		switch {
		case err == nil:
			handle, err = s.resume(ctx, stores, existing)
			return err
		case !errors.Is(err, store.ErrSessionNotFound):
			return fmt.Errorf("failed to look up active session: %w", err)
		}

		catalogue, err := loadCatalogue(ctx, stores)
		if err != nil {
			return err
		}

		now := s.now()
		limits := modeCfg.LimitsFor(len(catalogue.domains))
		session, err := domain.NewSession(
			userID,
			mode,
			limits.QuotaPerDomain,
			limits.MinItems,
			limits.MaxItems,
			s.precisionFor(modeCfg),
			s.timeLimitFor(modeCfg),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		progress := newProgress(catalogue, session, nil)
		next, ok := s.selector.Select(progress.selection(session.Theta))
		if ok {
			session.CurrentItemID = next.ID
		} else if err := session.Complete(domain.TerminationPoolExhausted, true, now); err != nil {
			return fmt.Errorf("failed to complete empty session: %w", err)
		}

		if err := stores.Sessions.Create(ctx, session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		handle = &SessionHandle{Session: session}
		if ok {
			handle.NextItem = &next
		}
		return nil
	})
	return handle, err
}

func (s *diagnosticService) resume(
	ctx context.Context,
	stores store.Stores,
	session *domain.Session,
) (*SessionHandle, error) {
	responses, err := stores.Responses.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	session.Responses = responses

	handle := &SessionHandle{Session: session, Resumed: true}
	if session.CurrentItemID != uuid.Nil {
		item, err := stores.Items.Get(ctx, session.CurrentItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to load current item: %w", err)
		}
		handle.NextItem = item
	}
	return handle, nil
}

// SubmitResponse implements Service.SubmitResponse.
func (s *diagnosticService) SubmitResponse(
	ctx context.Context,
	sessionID, itemID uuid.UUID,
	correct bool,
) (*SubmitResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing response",
		slog.String("session_id", sessionID.String()),
		slog.String("item_id", itemID.String()),
		slog.Bool("correct", correct))

	release, err := s.locker.Acquire(ctx, keylock.SessionKey(sessionID.String()))
	if err != nil {
		return nil, NewSubmitResponseError("failed to acquire session lock", err)
	}
	defer release()

	var result *SubmitResult
	err = s.transactor.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		session, err := stores.Sessions.GetForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to get session: %w", err)
		}
		if !session.Active() {
			return ErrSessionCompleted
		}

		item, err := stores.Items.Get(ctx, itemID)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to get item: %w", err)
		}

		history, err := stores.Responses.ListBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load responses: %w", err)
		}
		for _, r := range history {
			if r.ItemID == itemID {
				return ErrItemAlreadyAnswered
			}
		}
		if itemID != session.CurrentItemID {
			return ErrItemNotCurrent
		}

		now := s.now()
		response := domain.Response{
			ID:          uuid.New(),
			SessionID:   sessionID,
			ItemID:      itemID,
			DomainCode:  item.DomainCode,
			Correct:     correct,
			Sequence:    len(history) + 1,
			ThetaBefore: session.Theta,
			SEBefore:    session.SE,
			CreatedAt:   now,
		}
		if item.Calibrated() {
			cal := *item.Calibration
			response.Calibration = &cal
		}

		history = append(history, response)
		estimate := s.estimator.Estimate(irt.ObservationsFromResponses(history))
		if !estimate.Converged {
			log.Warn("ability estimate did not converge",
				slog.String("session_id", sessionID.String()),
				slog.Int("iterations", estimate.Iterations))
		}

		response.ThetaAfter = estimate.Theta
		response.SEAfter = estimate.SE
		if response.Calibration != nil {
			response.Information = irt.Information(*response.Calibration, estimate.Theta)
		}
		history[len(history)-1] = response

		if err := stores.Responses.Create(ctx, &response); err != nil {
			if errors.Is(err, store.ErrResponseExists) {
				return ErrItemAlreadyAnswered
			}
			return fmt.Errorf("failed to save response: %w", err)
		}

		session.Theta = estimate.Theta
		session.SE = estimate.SE
		session.UpdatedAt = now

		catalogue, err := loadCatalogue(ctx, stores)
		if err != nil {
			return err
		}
		progress := newProgress(catalogue, session, history)
		verdict := cat.Evaluate(progress.termination(session, now))

		result = &SubmitResult{Response: response}
		if verdict.Continue {
			next, ok := s.selector.Select(progress.selection(session.Theta))
			if ok {
				session.CurrentItemID = next.ID
				result.NextItem = &next
			} else {
				verdict = cat.Verdict{Reason: domain.TerminationPoolExhausted}
			}
		}
		if !verdict.Continue {
			coverageMet := progress.termination(session, now).CoverageMet()
			if err := session.Complete(verdict.Reason, coverageMet, now); err != nil {
				return fmt.Errorf("failed to complete session: %w", err)
			}
			result.Completed = true
			result.Reason = verdict.Reason
		}

		if err := stores.Sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		session.Responses = history
		result.Session = session
		return nil
	})
	if err != nil {
		if IsExpected(err) {
			log.Warn("response rejected",
				slog.String("error", err.Error()),
				slog.String("session_id", sessionID.String()),
				slog.String("item_id", itemID.String()))
			return nil, err
		}
		log.Error("failed to submit response",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("item_id", itemID.String()))
		return nil, NewSubmitResponseError("failed to record response", err)
	}

	if result.Completed {
		log.Info("diagnostic session completed",
			slog.String("session_id", sessionID.String()),
			slog.String("reason", string(result.Reason)),
			slog.Float64("theta", result.Session.Theta),
			slog.Float64("se", result.Session.SE),
			slog.Int("items", len(result.Session.Responses)))
		s.emitCompleted(ctx, result.Session)
	}
	return result, nil
}

// GetSession implements Service.GetSession.
func (s *diagnosticService) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.stores.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		log.Error("failed to get session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, NewGetSessionError("failed to get session", err)
	}

	responses, err := s.stores.Responses.ListBySession(ctx, sessionID)
	if err != nil {
		log.Error("failed to load responses",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, NewGetSessionError("failed to load responses", err)
	}
	session.Responses = responses
	return session, nil
}

// emitCompleted publishes the completion event. The session is already
// committed, so handler failures are logged and not returned.
func (s *diagnosticService) emitCompleted(ctx context.Context, session *domain.Session) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewSessionCompletedEvent(session)
	if err != nil {
		log.Error("failed to build session completed event",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("session completed handler failed",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
	}
}

func (s *diagnosticService) precisionFor(m cat.ModeConfig) float64 {
	if s.cfg.PrecisionOverride > 0 {
		return s.cfg.PrecisionOverride
	}
	return m.PrecisionThreshold
}

func (s *diagnosticService) timeLimitFor(m cat.ModeConfig) time.Duration {
	if s.cfg.DisableTimeLimit {
		return 0
	}
	return m.TimeLimit
}
