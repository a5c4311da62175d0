package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matchodds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2.7, cfg.LeagueAvgGoals)
	assert.Equal(t, []float64{0.4, 0.3, 0.15, 0.1, 0.05}, cfg.RecentWeights)
	assert.Equal(t, AllPredictors, cfg.EnablePredictors)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
league_avg_goals: 2.9
h2h_limit: 6
enable_predictors: [statistical, bayesian]
first_half_share:
  sequence: 0.4
http:
  addr: ":9090"
  request_timeout: 3s
database:
  driver: postgres
  dsn: postgres://localhost/matchodds?sslmode=disable
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.9, cfg.LeagueAvgGoals)
	assert.Equal(t, 6, cfg.H2HLimit)
	assert.Equal(t, 0.4, cfg.FirstHalfShare.Sequence)
	assert.Equal(t, 0.45, cfg.FirstHalfShare.Statistical, "unset keys keep defaults")
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Enabled(Bayesian))
	assert.False(t, cfg.Enabled(Spatial))
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MATCHODDS_DB_DSN", ":memory:")
	t.Setenv("MATCHODDS_LOG_LEVEL", "debug")
	t.Setenv("MATCHODDS_BAYESIAN_SEED", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(42), cfg.BayesianSeed)

	t.Setenv("MATCHODDS_BAYESIAN_SEED", "forty-two")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "league_avg_goals: [1"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "league_avg_goals: -1"))
	assert.ErrorContains(t, err, "league_avg_goals")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"sequence length", func(c *Config) { c.SequenceLength = 0 }, "sequence_length"},
		{"empty weights", func(c *Config) { c.RecentWeights = nil }, "recent_weights must not be empty"},
		{"ascending weights", func(c *Config) { c.RecentWeights = []float64{0.1, 0.5} }, "descending"},
		{"negative weight", func(c *Config) { c.RecentWeights = []float64{0.5, -0.1} }, "negative"},
		{"weights shorter than window", func(c *Config) { c.SequenceLength = 6 }, "at least sequence_length"},
		{"injury cap", func(c *Config) { c.InjuryCap.Bayesian = 1 }, "injury_cap.bayesian"},
		{"share", func(c *Config) { c.FirstHalfShare.Spatial = 0 }, "first_half_share.spatial"},
		{"jitter", func(c *Config) { c.FirstHalfShare.BayesianJitter = 0.6 }, "bayesian_jitter"},
		{"unknown predictor", func(c *Config) { c.EnablePredictors = []string{"neural"} }, "neural"},
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestEnabledEmptyMeansAll(t *testing.T) {
	cfg := Default()
	cfg.EnablePredictors = nil
	for _, name := range AllPredictors {
		assert.True(t, cfg.Enabled(name))
	}
}
