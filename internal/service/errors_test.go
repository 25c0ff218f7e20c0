package service_test

import (
	"errors"
	"testing"

	"github.com/phrazzld/scry-adaptive/internal/service"
	"github.com/phrazzld/scry-adaptive/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestServiceError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *service.ServiceError
		expected string
	}{
		{
			name: "with underlying error",
			err: service.NewServiceError(
				"diagnostic", "start_session", "failed to create session",
				errors.New("connection refused"),
			),
			expected: "diagnostic service start_session operation failed: failed to create session: connection refused",
		},
		{
			name:     "without underlying error",
			err:      service.NewServiceError("review", "record_review", "clock skew", nil),
			expected: "review service record_review operation failed: clock skew",
		},
		{
			name:     "empty names",
			err:      service.NewServiceError("", "", "boom", nil),
			expected: " service  operation failed: boom",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestServiceError_Unwrap(t *testing.T) {
	t.Parallel()

	err := service.NewServiceError("planning", "generate_plan", "failed to load domains", store.ErrInternal)

	assert.ErrorIs(t, err, store.ErrInternal)
	assert.Equal(t, store.ErrInternal, err.Unwrap())

	var serviceErr *service.ServiceError
	wrapped := errors.Join(errors.New("outer"), err)
	assert.True(t, errors.As(wrapped, &serviceErr))
	assert.Equal(t, "generate_plan", serviceErr.Operation)

	assert.Nil(t, service.NewServiceError("a", "b", "c", nil).Unwrap())
}
