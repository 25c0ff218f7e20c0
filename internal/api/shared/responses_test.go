package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/phrazzld/scry-adaptive/internal/redact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	RespondWithJSON(rr, req, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rr.Body.String())
}

func TestRespondWithError_IncludesTraceID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithTraceID(req.Context(), "trace-123"))
	rr := httptest.NewRecorder()

	RespondWithError(rr, req, http.StatusBadRequest, "bad input")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "bad input", body.Error)
	assert.Equal(t, "trace-123", body.TraceID)
	assert.NotContains(t, rr.Body.String(), `"Code"`)
}

func TestRespondWithErrorAndLog_RedactsError(t *testing.T) {
	t.Parallel()

	log, buf := logger.GetTestLogger(t)
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), log))
	rr := httptest.NewRecorder()

	err := errors.New("dial postgres://scry:hunter2@db:5432/scry failed")
	RespondWithErrorAndLog(rr, req, http.StatusInternalServerError, "An unexpected error occurred", err)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "hunter2")
	assert.NotContains(t, buf.String(), "hunter2")
	logger.AssertLogContains(t, buf, redact.CredentialPlaceholder)
	logger.AssertLogField(t, buf, "level", "ERROR")
}

func TestRespondWithErrorAndLog_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		opts   []ResponseOption
		level  string
	}{
		{"client error", http.StatusBadRequest, nil, "DEBUG"},
		{"rate limited", http.StatusTooManyRequests, nil, "WARN"},
		{"elevated client error", http.StatusConflict, []ResponseOption{WithElevatedLogLevel()}, "WARN"},
		{"server error", http.StatusServiceUnavailable, nil, "ERROR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			log, buf := logger.GetTestLogger(t)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(logger.WithLogger(req.Context(), log))

			RespondWithErrorAndLog(httptest.NewRecorder(), req, tt.status, "msg", errors.New("boom"), tt.opts...)
			logger.AssertLogField(t, buf, "level", tt.level)
		})
	}
}
