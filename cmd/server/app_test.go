package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/scry-adaptive/internal/config"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
	"github.com/phrazzld/scry-adaptive/internal/domain/plan"
	"github.com/phrazzld/scry-adaptive/internal/platform/keylock"
	"github.com/phrazzld/scry-adaptive/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			LogLevel:        "debug",
			ShutdownTimeout: time.Second,
		},
		Database:   config.DatabaseConfig{URL: "postgres://localhost:5432/scry_test"},
		Integrator: integrator.DefaultWeights(),
		Planner:    plan.DefaultConfig(),
	}
}

func TestNewApplication_WiresRouter(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	log, _ := logger.GetTestLogger(t)

	app, err := newApplication(context.Background(), testConfig(), log, db)
	require.NoError(t, err)

	assert.IsType(t, &keylock.MemoryLocker{}, app.locker)
	assert.Nil(t, app.redis)

	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	app.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sessions/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	mock.ExpectClose()
	app.cleanup()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApplication_RedisUnavailable(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	log, _ := logger.GetTestLogger(t)

	cfg := testConfig()
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err = newApplication(context.Background(), cfg, log, db)
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	log, buf := logger.GetTestLogger(t)

	app, err := newApplication(context.Background(), testConfig(), log, db)
	require.NoError(t, err)

	mock.ExpectClose()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}

	assert.NoError(t, mock.ExpectationsWereMet())
	logger.AssertLogContains(t, buf, "application shutdown completed")
}

func TestRootCmd(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestMigrateCmd_RejectsUnknownCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{"migrate"}},
		{"unknown command", []string{"migrate", "sideways"}},
		{"too many", []string{"migrate", "up", "down"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := newRootCmd()
			root.SetArgs(tt.args)
			assert.Error(t, root.Execute())
		})
	}
}
