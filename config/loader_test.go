package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gzeu/salahor/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "throw", cfg.Queue.Policy)
	assert.Equal(t, 1, cfg.Pool.MinWorkers)
	assert.Equal(t, 4, cfg.Pool.MaxWorkers)
	assert.Equal(t, 100, cfg.RateLimit.Capacity)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "salahor", cfg.Metrics.Namespace)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salahor.yaml")
	data := `
queue:
  limit: 128
  policy: drop_old
pool:
  max_workers: 16
  idle_timeout: 90s
rate_limit:
  capacity: 50
  sliding_window: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Queue.Limit)
	assert.Equal(t, "drop_old", cfg.Queue.Policy)
	assert.Equal(t, 16, cfg.Pool.MaxWorkers)
	assert.Equal(t, 90*time.Second, cfg.Pool.IdleTimeout)
	assert.Equal(t, 50, cfg.RateLimit.Capacity)
	assert.True(t, cfg.RateLimit.SlidingWindow)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 1, cfg.Pool.MinWorkers)
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/salahor.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Pool.MaxWorkers)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salahor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool:\n  max_workers: 16\n"), 0o600))

	t.Setenv("SALAHOR_POOL_MAX_WORKERS", "32")
	t.Setenv("SALAHOR_QUEUE_POLICY", "drop_new")
	t.Setenv("SALAHOR_POOL_IDLE_TIMEOUT", "2m")
	t.Setenv("SALAHOR_METRICS_ENABLED", "false")
	t.Setenv("SALAHOR_LOG_OUTPUT_PATHS", "stdout, /var/log/salahor.log")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Pool.MaxWorkers, "env wins over file")
	assert.Equal(t, "drop_new", cfg.Queue.Policy)
	assert.Equal(t, 2*time.Minute, cfg.Pool.IdleTimeout)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"stdout", "/var/log/salahor.log"}, cfg.Log.OutputPaths)
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_RATE_LIMIT_CAPACITY", "7")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RateLimit.Capacity)
}

func TestValidationRejectsBadConfig(t *testing.T) {
	t.Setenv("SALAHOR_POOL_MIN_WORKERS", "9")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrValidation))
}

func TestCustomValidatorRuns(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			return types.NewError(types.ErrValidation, "rejected by hook")
		}).
		Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected by hook")
}

func TestUnknownPolicyRejected(t *testing.T) {
	t.Setenv("SALAHOR_QUEUE_POLICY", "random")

	_, err := NewLoader().Load()
	assert.True(t, types.HasCode(err, types.ErrValidation))
}
