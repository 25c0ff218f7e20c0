package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-adaptive/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		notFound error
		want     error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "no rows", err: sql.ErrNoRows, notFound: store.ErrSessionNotFound, want: store.ErrSessionNotFound},
		{name: "no rows default", err: sql.ErrNoRows, want: store.ErrNotFound},
		{
			name: "active session",
			err:  &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: activeSessionIndex},
			want: store.ErrActiveSessionExists,
		},
		{
			name: "duplicate response",
			err:  &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: responseItemConstraint},
			want: store.ErrResponseExists,
		},
		{
			name: "duplicate review",
			err:  &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: reviewRecordPrimaryKey},
			want: store.ErrReviewExists,
		},
		{
			name: "other unique",
			err:  &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "knowledge_domains_pkey"},
			want: store.ErrDuplicate,
		},
		{name: "foreign key", err: &pgconn.PgError{Code: foreignKeyViolationCode}, want: store.ErrInvalidEntity},
		{name: "check", err: &pgconn.PgError{Code: checkViolationCode}, want: store.ErrInvalidEntity},
		{name: "not null", err: &pgconn.PgError{Code: notNullViolationCode}, want: store.ErrInvalidEntity},
		{name: "unknown", err: errors.New("connection reset"), want: store.ErrInternal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MapError(tt.err, tt.notFound)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: checkViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), "review_record", store.ErrReviewNotFound))
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), "review_record", store.ErrReviewNotFound), store.ErrReviewNotFound)
	assert.ErrorIs(t,
		CheckRowsAffected(sqlmock.NewErrorResult(errors.New("unsupported")), "review_record", store.ErrReviewNotFound),
		store.ErrInternal)
	assert.ErrorIs(t, CheckRowsAffected(nil, "review_record", store.ErrReviewNotFound), store.ErrInternal)
}
