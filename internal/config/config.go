// Package config loads service configuration from an optional YAML file with
// environment-variable overrides. Nothing in here is a process-wide singleton:
// the loaded Config is passed into constructors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s"
// as well as plain nanosecond integers.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: parse duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("config: parse duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	OSRM     OSRMConfig     `yaml:"osrm"`
	Engine   EngineConfig   `yaml:"engine"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Env       string `yaml:"env"`
	Port      int    `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console
}

type DatabaseConfig struct {
	// URL is a Postgres DSN. Empty selects the in-memory store.
	URL string `yaml:"url"`
}

type RedisConfig struct {
	// URL enables the Redis run lock and event broker. Empty selects the
	// in-process implementations.
	URL string `yaml:"url"`
}

type OSRMConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           Duration      `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// EngineConfig carries the routing model constants. Defaults mirror the
// production tuning; tests override individual fields.
type EngineConfig struct {
	MaxPendingOrders    int           `yaml:"max_pending_orders"`
	ServiceTimeMin      int           `yaml:"service_time_min"`
	WaitingAllowanceMin int           `yaml:"waiting_allowance_min"`
	HorizonMin          int           `yaml:"horizon_min"`
	HorizonStartHour    int           `yaml:"horizon_start_hour"`
	DefaultWindowEndMin int           `yaml:"default_window_end_min"`
	SkipPenalty         int           `yaml:"skip_penalty"`
	SolverBudget        Duration      `yaml:"solver_budget"`
	SolverSeed          int64         `yaml:"solver_seed"`
	FallbackSpeedKmh    float64       `yaml:"fallback_speed_kmh"`
	DepotLat            float64       `yaml:"depot_lat"`
	DepotLng            float64       `yaml:"depot_lng"`
}

func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "routeopt",
			Env:       "development",
			Port:      8080,
			LogLevel:  "info",
			LogFormat: "console",
		},
		OSRM: OSRMConfig{
			BaseURL:           "http://localhost:5000",
			Timeout:           Duration(30 * time.Second),
			RequestsPerSecond: 2,
		},
		Engine: EngineConfig{
			MaxPendingOrders:    100,
			ServiceTimeMin:      10,
			WaitingAllowanceMin: 30,
			HorizonMin:          1440,
			HorizonStartHour:    8,
			DefaultWindowEndMin: 720,
			SkipPenalty:         10000,
			SolverBudget:        Duration(5 * time.Second),
			FallbackSpeedKmh:    40,
			// Default depot when no warehouse is configured (Singapore CBD).
			DepotLat: 1.2897,
			DepotLng: 103.8501,
		},
	}
}

// Load reads the YAML file at path (when non-empty) over the defaults, then
// applies environment overrides.
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
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.App.Port = envInt("PORT", c.App.Port)
	c.App.Env = envStr("ROUTEOPT_ENV", c.App.Env)
	c.App.LogLevel = envStr("ROUTEOPT_LOG_LEVEL", c.App.LogLevel)
	c.App.LogFormat = envStr("ROUTEOPT_LOG_FORMAT", c.App.LogFormat)
	c.Database.URL = envStr("DATABASE_URL", c.Database.URL)
	c.Redis.URL = envStr("REDIS_URL", c.Redis.URL)
	c.OSRM.BaseURL = envStr("OSRM_URL", c.OSRM.BaseURL)
}

func (c *Config) validate() error {
	if c.Engine.MaxPendingOrders <= 0 {
		return fmt.Errorf("config: max_pending_orders must be positive")
	}
	if c.Engine.HorizonMin <= 0 {
		return fmt.Errorf("config: horizon_min must be positive")
	}
	if c.Engine.SolverBudget <= 0 {
		return fmt.Errorf("config: solver_budget must be positive")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
