package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Algorithm names, also used as keys in prediction results
const (
	Statistical = "statistical"
	Sequence    = "sequence"
	Spatial     = "spatial"
	Bayesian    = "bayesian"
)

// AllPredictors lists every algorithm in a stable order
var AllPredictors = []string{Statistical, Sequence, Spatial, Bayesian}

// Config contains every tunable that influences prediction outcomes,
// plus the settings of the outer adapters
type Config struct {
	// === CORE PREDICTION PARAMETERS ===
	LeagueAvgGoals float64   `yaml:"league_avg_goals"` // baseline λ scalar in the Statistical predictor
	SequenceLength int       `yaml:"sequence_length"`  // how many recent matches to consume
	RecentWeights  []float64 `yaml:"recent_weights"`   // descending recency weights
	H2HLimit       int       `yaml:"h2h_limit"`        // head-to-head meetings to consider

	InjuryCap      InjuryCap      `yaml:"injury_cap"`
	FirstHalfShare FirstHalfShare `yaml:"first_half_share"`

	// Subset of algorithm names to run; empty means all
	EnablePredictors []string `yaml:"enable_predictors"`

	// Seed for the Bayesian first-half uncertainty term; 0 seeds from the clock
	BayesianSeed int64 `yaml:"bayesian_seed"`

	// === ADAPTERS ===
	Database Database `yaml:"database"`
	HTTP     HTTP     `yaml:"http"`
	LogLevel string   `yaml:"log_level"`
}

// InjuryCap is the maximum fractional injury impact per team
type InjuryCap struct {
	Statistical float64 `yaml:"statistical"`
	Bayesian    float64 `yaml:"bayesian"`
}

// FirstHalfShare is the fraction of full-match goals attributed to the first half
type FirstHalfShare struct {
	Statistical    float64 `yaml:"statistical"`
	Sequence       float64 `yaml:"sequence"`
	Spatial        float64 `yaml:"spatial"`
	Bayesian       float64 `yaml:"bayesian"`
	BayesianJitter float64 `yaml:"bayesian_jitter"` // half-width of the uniform noise around Bayesian
}

type Database struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

type HTTP struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the configuration with all standard values
func Default() *Config {
	return &Config{
		LeagueAvgGoals: 2.7,
		SequenceLength: 5,
		RecentWeights:  []float64{0.4, 0.3, 0.15, 0.1, 0.05},
		H2HLimit:       10,
		InjuryCap: InjuryCap{
			Statistical: 0.30,
			Bayesian:    0.40,
		},
		FirstHalfShare: FirstHalfShare{
			Statistical:    0.45,
			Sequence:       0.42,
			Spatial:        0.47,
			Bayesian:       0.45,
			BayesianJitter: 0.05,
		},
		EnablePredictors: append([]string(nil), AllPredictors...),
		Database: Database{
			Driver: "sqlite",
			DSN:    "matchodds.db",
		},
		HTTP: HTTP{
			Addr:           ":8080",
			RequestTimeout: 10 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults and then applies environment
// overrides (a .env file in the working directory is honoured).
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Database.Driver = envStr("MATCHODDS_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = envStr("MATCHODDS_DB_DSN", c.Database.DSN)
	c.HTTP.Addr = envStr("MATCHODDS_HTTP_ADDR", c.HTTP.Addr)
	c.LogLevel = envStr("MATCHODDS_LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("MATCHODDS_BAYESIAN_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MATCHODDS_BAYESIAN_SEED: %w", err)
		}
		c.BayesianSeed = seed
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate ensures all configuration values are within reasonable ranges
func (c *Config) Validate() error {
	var errs []error

	if c.LeagueAvgGoals <= 0 || c.LeagueAvgGoals > 10 {
		errs = append(errs, fmt.Errorf("league_avg_goals must be in (0, 10], got: %f", c.LeagueAvgGoals))
	}
	if c.SequenceLength < 1 {
		errs = append(errs, fmt.Errorf("sequence_length must be at least 1, got: %d", c.SequenceLength))
	}
	if len(c.RecentWeights) == 0 {
		errs = append(errs, errors.New("recent_weights must not be empty"))
	} else if len(c.RecentWeights) < c.SequenceLength {
		errs = append(errs, fmt.Errorf("recent_weights needs at least sequence_length (%d) entries, got: %d", c.SequenceLength, len(c.RecentWeights)))
	}
	for i, w := range c.RecentWeights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("recent_weights[%d] must not be negative, got: %f", i, w))
		}
		if i > 0 && w > c.RecentWeights[i-1] {
			errs = append(errs, fmt.Errorf("recent_weights must be descending, index %d breaks the order", i))
		}
	}
	if c.H2HLimit < 0 {
		errs = append(errs, fmt.Errorf("h2h_limit must not be negative, got: %d", c.H2HLimit))
	}
	for name, limit := range map[string]float64{"statistical": c.InjuryCap.Statistical, "bayesian": c.InjuryCap.Bayesian} {
		if limit < 0 || limit >= 1 {
			errs = append(errs, fmt.Errorf("injury_cap.%s must be in [0, 1), got: %f", name, limit))
		}
	}
	shares := map[string]float64{
		"statistical": c.FirstHalfShare.Statistical,
		"sequence":    c.FirstHalfShare.Sequence,
		"spatial":     c.FirstHalfShare.Spatial,
		"bayesian":    c.FirstHalfShare.Bayesian,
	}
	for name, share := range shares {
		if share <= 0 || share > 1 {
			errs = append(errs, fmt.Errorf("first_half_share.%s must be in (0, 1], got: %f", name, share))
		}
	}
	j := c.FirstHalfShare.BayesianJitter
	if j < 0 || c.FirstHalfShare.Bayesian-j < 0 || c.FirstHalfShare.Bayesian+j > 1 {
		errs = append(errs, fmt.Errorf("first_half_share.bayesian_jitter %f takes the share outside [0, 1]", j))
	}
	for _, name := range c.EnablePredictors {
		if !isKnown(name) {
			errs = append(errs, fmt.Errorf("enable_predictors: unknown algorithm %q", name))
		}
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got: %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}

// Enabled reports whether the named algorithm should run
func (c *Config) Enabled(name string) bool {
	if len(c.EnablePredictors) == 0 {
		return true
	}
	for _, n := range c.EnablePredictors {
		if n == name {
			return true
		}
	}
	return false
}

func isKnown(name string) bool {
	for _, n := range AllPredictors {
		if n == name {
			return true
		}
	}
	return false
}
