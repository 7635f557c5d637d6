package worker

import (
	"catchup-feed/internal/pkg/config"
	"fmt"
	"log/slog"
	"time"
)

// WorkerConfig holds the configuration for the session-cleanup worker: its
// cron schedule, timezone, per-run timeout, and health-check port.
//
// LoadConfigFromEnv follows a fail-open strategy: an invalid environment
// value is replaced by its default, logged, and counted in metrics rather
// than aborting startup.
type WorkerConfig struct {
	// CronSchedule is the cron expression for job scheduling, e.g.
	// "0 */6 * * *" for every six hours. Default: "0 4 * * *".
	CronSchedule string

	// Timezone is the IANA timezone name the cron schedule is evaluated in.
	// Default: "UTC".
	Timezone string

	// CleanupTimeout bounds a single cleanup run. Default: 1 minute.
	CleanupTimeout time.Duration

	// HealthPort is the listen port for the health-check HTTP server.
	// Default: 9091.
	HealthPort int
}

// DefaultConfig returns production-ready defaults: a nightly cleanup run in
// UTC, bounded to one minute, with the conventional Prometheus-exporter
// health port.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:   "0 4 * * *",
		Timezone:       "UTC",
		CleanupTimeout: time.Minute,
		HealthPort:     9091,
	}
}

// Validate checks the configuration's field-level invariants, aggregating
// every violation found rather than failing on the first.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.CleanupTimeout); err != nil {
		errs = append(errs, fmt.Errorf("cleanup timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads WorkerConfig from the environment, falling back to
// DefaultConfig()'s value (and logging a warning) for anything invalid.
// It never returns an error: the returned config is always usable.
//
// Environment variables:
//   - SESSION_CLEANUP_CRON: cron expression (default "0 4 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default "UTC")
//   - SESSION_CLEANUP_TIMEOUT: duration string, e.g. "1m" (default 1m)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	result := config.LoadEnvWithFallback("SESSION_CLEANUP_CRON", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("cron_schedule")
		metrics.RecordFallback("cron_schedule", "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied", slog.String("field", "CronSchedule"), slog.String("warning", warning))
		}
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("timezone")
		metrics.RecordFallback("timezone", "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied", slog.String("field", "Timezone"), slog.String("warning", warning))
		}
	}

	result = config.LoadEnvDuration("SESSION_CLEANUP_TIMEOUT", cfg.CleanupTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 30*time.Minute)
	})
	cfg.CleanupTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("cleanup_timeout")
		metrics.RecordFallback("cleanup_timeout", "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied", slog.String("field", "CleanupTimeout"), slog.String("warning", warning))
		}
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("health_port")
		metrics.RecordFallback("health_port", "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied", slog.String("field", "HealthPort"), slog.String("warning", warning))
		}
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
