package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/api/shared"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/phrazzld/scry-adaptive/internal/service/review"
)

// ReviewHandler handles spaced-repetition review HTTP requests.
type ReviewHandler struct {
	reviewService review.Service
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService review.Service, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil for ReviewHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// RecordReview handles POST /reviews requests.
func (h *ReviewHandler) RecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RecordReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	userID, err := parseUUID("user_id", req.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	itemID, err := parseUUID("item_id", req.ItemID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.reviewService.RecordReview(r.Context(), userID, itemID, *req.Quality)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}

	log.Debug("review recorded",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("interval", result.Record.AdjustedInterval))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ListDue handles GET /users/{id}/reviews/due requests.
func (h *ReviewHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, err := getQueryInt(r, "limit", review.DefaultDueLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	ranked, err := h.reviewService.ListDue(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due reviews")
		return
	}
	if ranked == nil {
		ranked = []integrator.Ranked{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DueReviewsResponse{
		Reviews: ranked,
		Count:   len(ranked),
	})
}

// Postpone handles POST /users/{id}/reviews/{itemID}/postpone requests.
func (h *ReviewHandler) Postpone(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	var req PostponeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	record, err := h.reviewService.Postpone(r.Context(), userID, itemID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone review")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// Deactivate handles POST /users/{id}/reviews/{itemID}/deactivate requests.
func (h *ReviewHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	record, err := h.reviewService.Deactivate(r.Context(), userID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to deactivate review")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, record)
}

// pathIDs extracts the user and item IDs, writing the error response on failure.
func (h *ReviewHandler) pathIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err := getPathUUID(r, "itemID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, itemID, true
}
