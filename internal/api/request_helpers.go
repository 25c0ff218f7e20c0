package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/api/shared"
)

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, invalidRequest(paramName + " is required")
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, invalidRequest(paramName + " has invalid format")
	}
	return id, nil
}

// getQueryInt parses an optional integer query parameter, returning def when
// it is absent.
func getQueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidRequest(name + " must be an integer")
	}
	return v, nil
}

// parseUUID parses a body field that already passed the uuid validator.
func parseUUID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidRequest(field + " has invalid format")
	}
	return id, nil
}

// decodeAndValidate decodes the JSON body into v and validates it. It writes
// the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		if !errors.Is(err, shared.ErrEmptyBody) {
			err = &RequestError{Message: "Invalid request format", Err: err}
		}
		HandleAPIError(w, r, err, "")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}
