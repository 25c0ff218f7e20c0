package config

import (
	"time"

	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
	"github.com/phrazzld/scry-adaptive/internal/domain/plan"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig    `mapstructure:"database"   validate:"required"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Diagnostic DiagnosticConfig  `mapstructure:"diagnostic"`
	Integrator integrator.Weights `mapstructure:"integrator"`
	Planner    plan.Config       `mapstructure:"planner"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// RedisConfig enables distributed locking. An empty Addr keeps locks in-process.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"     validate:"omitempty,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"       validate:"gte=0"`
	// LockTTL is the lease on a held lock. Holders renew it, so it only
	// bounds how long a crashed instance blocks the key.
	LockTTL  time.Duration `mapstructure:"lock_ttl" validate:"gte=0"`
}

// DiagnosticConfig tunes adaptive testing.
type DiagnosticConfig struct {
	// PrecisionOverride replaces every mode's SE threshold when positive.
	PrecisionOverride float64 `mapstructure:"precision_override" validate:"gte=0,lte=2"`
	// DisableTimeLimit turns off the per-mode time limits.
	DisableTimeLimit bool `mapstructure:"disable_time_limit"`
}
