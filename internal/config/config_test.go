package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 100, cfg.Engine.MaxPendingOrders)
	assert.Equal(t, 10, cfg.Engine.ServiceTimeMin)
	assert.Equal(t, 30, cfg.Engine.WaitingAllowanceMin)
	assert.Equal(t, 1440, cfg.Engine.HorizonMin)
	assert.Equal(t, 8, cfg.Engine.HorizonStartHour)
	assert.Equal(t, 720, cfg.Engine.DefaultWindowEndMin)
	assert.Equal(t, 10000, cfg.Engine.SkipPenalty)
	assert.Equal(t, Duration(5*time.Second), cfg.Engine.SolverBudget)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: 9090
  log_format: json
osrm:
  base_url: http://osrm.internal:5000
  requests_per_second: 5
engine:
  solver_budget: 2s
  skip_penalty: 5000
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "json", cfg.App.LogFormat)
	assert.Equal(t, "http://osrm.internal:5000", cfg.OSRM.BaseURL)
	assert.Equal(t, 5.0, cfg.OSRM.RequestsPerSecond)
	assert.Equal(t, Duration(2*time.Second), cfg.Engine.SolverBudget)
	assert.Equal(t, 5000, cfg.Engine.SkipPenalty)
	// Untouched fields keep their defaults.
	assert.Equal(t, 100, cfg.Engine.MaxPendingOrders)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("OSRM_URL", "http://env-osrm:5000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, "postgres://env/db", cfg.Database.URL)
	assert.Equal(t, "http://env-osrm:5000", cfg.OSRM.BaseURL)
}

func TestValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  solver_budget: -1s\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solver_budget")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
