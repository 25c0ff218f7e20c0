package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-adaptive/internal/api/shared"
	"github.com/phrazzld/scry-adaptive/internal/domain"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/phrazzld/scry-adaptive/internal/service/diagnostic"
)

// SessionHandler handles diagnostic session HTTP requests.
type SessionHandler struct {
	diagnosticService diagnostic.Service
	logger            *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(diagnosticService diagnostic.Service, logger *slog.Logger) *SessionHandler {
	if diagnosticService == nil {
		panic("diagnosticService cannot be nil for SessionHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for SessionHandler")
	}

	return &SessionHandler{
		diagnosticService: diagnosticService,
		logger:            logger.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /sessions requests.
// It returns the user's active session in the mode or starts a new one.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	userID, err := parseUUID("user_id", req.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	handle, err := h.diagnosticService.StartSession(r.Context(), userID, domain.TestMode(req.TestMode))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}

	status := http.StatusCreated
	if handle.Resumed {
		status = http.StatusOK
	}

	log.Debug("session started",
		slog.String("user_id", userID.String()),
		slog.String("session_id", handle.Session.ID.String()),
		slog.Bool("resumed", handle.Resumed))
	shared.RespondWithJSON(w, r, status, handle)
}

// GetSession handles GET /sessions/{id} requests.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	session, err := h.diagnosticService.GetSession(r.Context(), sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get session")
		return
	}

	responses := session.Responses
	if responses == nil {
		responses = []domain.Response{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{
		Session:   session,
		Responses: responses,
	})
}

// SubmitResponse handles POST /sessions/{id}/responses requests.
// It records the answer and returns the next item or the completed session.
func (h *SessionHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	sessionID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SubmitResponseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	itemID, err := parseUUID("item_id", req.ItemID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.diagnosticService.SubmitResponse(r.Context(), sessionID, itemID, *req.Correct)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit response")
		return
	}

	log.Debug("response submitted",
		slog.String("session_id", sessionID.String()),
		slog.String("item_id", itemID.String()),
		slog.Bool("completed", result.Completed))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
