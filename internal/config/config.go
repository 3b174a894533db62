package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/footixhq/footix-manager/internal/market"
)

// Config represents the application configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	NATS           NATSConfig           `yaml:"nats"`
	Auth           AuthConfig           `yaml:"auth"`
	Game           GameConfig           `yaml:"game"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RateLimitPerMinute bounds requests per client per minute; 0 disables.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Driver   string `yaml:"driver"` // "sqlx" or "ent"
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds cache and pub/sub settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// NATSConfig holds the archival stream settings.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Stream  string `yaml:"stream"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// GameConfig holds per-deployment game rules.
type GameConfig struct {
	// Market carries the bid-validation knobs; defaults match the stock
	// economy.
	Market market.Rules `yaml:"market"`
	// TieBreakers is the default standings tie-break order when a request
	// does not supply one.
	TieBreakers []string `yaml:"tie_breakers"`
	// FinalizeInterval is how often the leader sweeps for expired auctions.
	FinalizeInterval time.Duration `yaml:"finalize_interval"`
	// SalaryInterval is how often the leader processes salary payments.
	SalaryInterval time.Duration `yaml:"salary_interval"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled"`
	LeaseName      string        `yaml:"lease_name"`
	LeaseNamespace string        `yaml:"lease_namespace"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	RenewDeadline  time.Duration `yaml:"renew_deadline"`
	RetryPeriod    time.Duration `yaml:"retry_period"`
}

// Load reads a YAML configuration file from the given path. ${VAR}
// references in the file are expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               8080,
			ShutdownTimeout:    15 * time.Second,
			RateLimitPerMinute: 120,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Driver:  "sqlx",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			CacheTTL: 30 * time.Second,
		},
		NATS: NATSConfig{
			URL:    "nats://localhost:4222",
			Stream: "FOOTIX_AUCTIONS",
		},
		Game: GameConfig{
			Market:           market.DefaultRules(),
			TieBreakers:      []string{"goal_difference", "goals_for", "head_to_head"},
			FinalizeInterval: 5 * time.Second,
			SalaryInterval:   time.Hour,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "footixd",
			ServiceVersion: "0.1.0",
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "footixd-leader",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlx", "ent":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"sqlx\" or \"ent\"", c.Database.Driver)
	}
	m := c.Game.Market
	if m.BalanceBuffer < 0 || m.BalanceBuffer >= 1 {
		return fmt.Errorf("market balance_buffer %v: must be in [0, 1)", m.BalanceBuffer)
	}
	if m.BandLow <= 0 || m.BandHigh < m.BandLow {
		return fmt.Errorf("market band [%v, %v]: low must be > 0 and <= high", m.BandLow, m.BandHigh)
	}
	return nil
}
