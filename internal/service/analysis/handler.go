package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/domain/irt"
	"github.com/phrazzld/scry-adaptive/internal/events"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/phrazzld/scry-adaptive/internal/service"
	"github.com/phrazzld/scry-adaptive/internal/store"
)

// Common error types for Handler
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotCompleted = errors.New("session is not completed")
)

// Verify interface compliance at compile time
var _ events.EventHandler = (*Handler)(nil)

// Handler turns completed diagnostic sessions into live abilities and
// per-domain snapshots.
type Handler struct {
	stores     store.Stores
	transactor store.Transactor
	estimator  *irt.Estimator
	now        func() time.Time
	logger     *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(stores store.Stores, transactor store.Transactor, logger *slog.Logger) *Handler {
	if stores.Sessions == nil || stores.Responses == nil || stores.Analyses == nil {
		panic("stores cannot be nil")
	}
	if transactor == nil {
		panic("transactor cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		stores:     stores,
		transactor: transactor,
		estimator:  irt.NewEstimator(),
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With(slog.String("component", "analysis_handler")),
	}
}

// HandleEvent implements events.EventHandler. Events other than
// session.completed are ignored.
func (h *Handler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeSessionCompleted {
		return nil
	}

	var payload events.SessionCompleted
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
	}

	_, err := h.Analyze(ctx, payload.SessionID)
	return err
}

// Analyze writes the overall ability, a per-domain ability and a
// DomainAnalysis snapshot for each domain the session touched. It is
// idempotent: a session that was already analyzed returns its snapshots.
//
// Per-domain θ is estimated from that domain's calibrated responses only. A
// domain whose responses were all uncalibrated gets a snapshot at the initial
// estimate but no ability update.
func (h *Handler) Analyze(ctx context.Context, sessionID uuid.UUID) ([]domain.DomainAnalysis, error) {
	log := logger.FromContextOrDefault(ctx, h.logger)

	var snapshots []domain.DomainAnalysis
	err := h.transactor.RunInTx(ctx, func(ctx context.Context, stores store.Stores) error {
		session, err := stores.Sessions.Get(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to get session: %w", err)
		}
		if session.Active() {
			return ErrSessionNotCompleted
		}

		existing, err := stores.Analyses.ListBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to list analyses: %w", err)
		}
		if len(existing) > 0 {
			snapshots = existing
			return nil
		}

		responses, err := stores.Responses.ListBySession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to list responses: %w", err)
		}
		if len(responses) == 0 {
			return nil
		}

		now := h.now()
		overall := domain.UserAbility{
			UserID:     session.UserID,
			DomainCode: domain.OverallDomain,
			Theta:      session.Theta,
			SE:         session.SE,
			Source:     domain.AbilitySourceDiagnostic,
			UpdatedAt:  now,
		}
		if err := stores.Abilities.Upsert(ctx, &overall); err != nil {
			return fmt.Errorf("failed to save overall ability: %w", err)
		}

		for _, group := range groupByDomain(responses) {
			observations := irt.ObservationsFromResponses(group.responses)
			estimate := h.estimator.Estimate(observations)

			snapshot := domain.DomainAnalysis{
				ID:         uuid.New(),
				UserID:     session.UserID,
				SessionID:  session.ID,
				DomainCode: group.code,
				Theta:      estimate.Theta,
				SE:         estimate.SE,
				ItemCount:  len(group.responses),
				CreatedAt:  now,
			}
			for _, r := range group.responses {
				if r.Correct {
					snapshot.CorrectCount++
				}
			}
			if err := stores.Analyses.Create(ctx, &snapshot); err != nil {
				return fmt.Errorf("failed to save analysis for %s: %w", group.code, err)
			}
			snapshots = append(snapshots, snapshot)

			if len(observations) == 0 {
				continue
			}
			ability := domain.UserAbility{
				UserID:     session.UserID,
				DomainCode: group.code,
				Theta:      estimate.Theta,
				SE:         estimate.SE,
				Source:     domain.AbilitySourceDiagnostic,
				UpdatedAt:  now,
			}
			if err := stores.Abilities.Upsert(ctx, &ability); err != nil {
				return fmt.Errorf("failed to save ability for %s: %w", group.code, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionNotCompleted) {
			return nil, err
		}
		log.Error("failed to analyze session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, service.NewServiceError("analysis", "analyze_session", "failed to write session analysis", err)
	}

	log.Info("session analyzed",
		slog.String("session_id", sessionID.String()),
		slog.Int("domains", len(snapshots)))
	return snapshots, nil
}

type domainGroup struct {
	code      string
	responses []domain.Response
}

// groupByDomain splits responses by domain code, ordered by code.
func groupByDomain(responses []domain.Response) []domainGroup {
	byCode := make(map[string][]domain.Response)
	for _, r := range responses {
		byCode[r.DomainCode] = append(byCode[r.DomainCode], r)
	}
	groups := make([]domainGroup, 0, len(byCode))
	for code, rs := range byCode {
		groups = append(groups, domainGroup{code: code, responses: rs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].code < groups[j].code })
	return groups
}
