package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-adaptive/internal/api/shared"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/phrazzld/scry-adaptive/internal/service/planning"
)

// DefaultPlanMinutes is used when the request omits the minutes parameter.
const DefaultPlanMinutes = 60

// PlanHandler handles daily plan HTTP requests.
type PlanHandler struct {
	planningService planning.Service
	logger          *slog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planningService planning.Service, logger *slog.Logger) *PlanHandler {
	if planningService == nil {
		panic("planningService cannot be nil for PlanHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for PlanHandler")
	}

	return &PlanHandler{
		planningService: planningService,
		logger:          logger.With(slog.String("component", "plan_handler")),
	}
}

// GetDailyPlan handles GET /users/{id}/plan?minutes=N requests.
// A plan that no tier could produce is still a 200 with success=false.
func (h *PlanHandler) GetDailyPlan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	minutes, err := getQueryInt(r, "minutes", DefaultPlanMinutes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.planningService.GenerateDailyPlan(r.Context(), userID, minutes)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate plan")
		return
	}

	log.Debug("daily plan generated",
		slog.String("user_id", userID.String()),
		slog.Bool("success", result.Success))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
