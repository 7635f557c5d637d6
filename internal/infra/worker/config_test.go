package worker

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0 4 * * *", cfg.CronSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, time.Minute, cfg.CleanupTimeout)
	assert.Equal(t, 9091, cfg.HealthPort)
}

func TestDefaultConfig_Immutability(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg2 := DefaultConfig()

	cfg1.CronSchedule = "0 6 * * *"
	cfg1.HealthPort = 9999

	assert.Equal(t, "0 4 * * *", cfg2.CronSchedule)
	assert.Equal(t, 9091, cfg2.HealthPort)
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkerConfig)
		wantErr bool
	}{
		{"valid default", func(*WorkerConfig) {}, false},
		{"invalid cron", func(c *WorkerConfig) { c.CronSchedule = "not a cron" }, true},
		{"empty cron", func(c *WorkerConfig) { c.CronSchedule = "" }, true},
		{"invalid timezone", func(c *WorkerConfig) { c.Timezone = "Not/AZone" }, true},
		{"zero timeout", func(c *WorkerConfig) { c.CleanupTimeout = 0 }, true},
		{"negative timeout", func(c *WorkerConfig) { c.CleanupTimeout = -time.Second }, true},
		{"health port too low", func(c *WorkerConfig) { c.HealthPort = 80 }, true},
		{"health port too high", func(c *WorkerConfig) { c.HealthPort = 70000 }, true},
		{"health port boundary low", func(c *WorkerConfig) { c.HealthPort = 1024 }, false},
		{"health port boundary high", func(c *WorkerConfig) { c.HealthPort = 65535 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWorkerConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := WorkerConfig{CronSchedule: "bad", Timezone: "bad", CleanupTimeout: -1, HealthPort: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadConfigFromEnv_AllValid(t *testing.T) {
	t.Setenv("SESSION_CLEANUP_CRON", "0 */6 * * *")
	t.Setenv("WORKER_TIMEZONE", "America/New_York")
	t.Setenv("SESSION_CLEANUP_TIMEOUT", "2m")
	t.Setenv("WORKER_HEALTH_PORT", "9092")

	metrics := NewWorkerMetrics()
	cfg, err := LoadConfigFromEnv(slog.New(slog.NewTextHandler(os.Stderr, nil)), metrics)
	require.NoError(t, err)
	assert.Equal(t, "0 */6 * * *", cfg.CronSchedule)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, 2*time.Minute, cfg.CleanupTimeout)
	assert.Equal(t, 9092, cfg.HealthPort)
}

func TestLoadConfigFromEnv_MissingVarsFallsBackToDefaults(t *testing.T) {
	metrics := NewWorkerMetrics()
	cfg, err := LoadConfigFromEnv(slog.New(slog.NewTextHandler(os.Stderr, nil)), metrics)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfigFromEnv_InvalidValueFallsBackAndNeverErrors(t *testing.T) {
	t.Setenv("SESSION_CLEANUP_CRON", "not a cron expression")
	t.Setenv("WORKER_HEALTH_PORT", "not-a-number")

	metrics := NewWorkerMetrics()
	cfg, err := LoadConfigFromEnv(slog.New(slog.NewTextHandler(os.Stderr, nil)), metrics)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().CronSchedule, cfg.CronSchedule)
	assert.Equal(t, DefaultConfig().HealthPort, cfg.HealthPort)
}
