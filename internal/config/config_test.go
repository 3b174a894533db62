package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/footixhq/footix-manager/internal/config"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "valid full config",
			yaml: `
server:
  port: 9090
  rate_limit_per_minute: 60
database:
  host: "db.example.com"
  port: 5433
  user: "footix"
  password: "secret"
  dbname: "footix"
  sslmode: "require"
  driver: "sqlx"
redis:
  addr: "redis.example.com:6379"
auth:
  jwt_secret: "test-secret"
game:
  tie_breakers: ["goals_for", "wins"]
  market:
    balance_buffer: 0.25
    band_low: 0.5
    band_high: 2.0
    exposure_limit: 0.7
    base_increment: 100000
    increment_growth: 0.1
    increment_cap: 2.0
telemetry:
  service_name: "my-footixd"
  otlp_endpoint: "localhost:4318"
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Server.Port != 9090 {
					t.Errorf("got server port %d, want %d", cfg.Server.Port, 9090)
				}
				if cfg.Server.RateLimitPerMinute != 60 {
					t.Errorf("got rate limit %d, want %d", cfg.Server.RateLimitPerMinute, 60)
				}
				if cfg.Database.Port != 5433 {
					t.Errorf("got db port %d, want %d", cfg.Database.Port, 5433)
				}
				if cfg.Auth.JWTSecret != "test-secret" {
					t.Errorf("got jwt secret %q, want %q", cfg.Auth.JWTSecret, "test-secret")
				}
				if cfg.Game.Market.BalanceBuffer != 0.25 {
					t.Errorf("got balance buffer %v, want 0.25", cfg.Game.Market.BalanceBuffer)
				}
				if len(cfg.Game.TieBreakers) != 2 || cfg.Game.TieBreakers[0] != "goals_for" {
					t.Errorf("got tie breakers %v", cfg.Game.TieBreakers)
				}
				if cfg.Telemetry.ServiceName != "my-footixd" {
					t.Errorf("got service name %q, want %q", cfg.Telemetry.ServiceName, "my-footixd")
				}
			},
		},
		{
			name:    "defaults applied",
			yaml:    `{}`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Database.Host != "localhost" {
					t.Errorf("got db host %q, want %q", cfg.Database.Host, "localhost")
				}
				if cfg.Database.Driver != "sqlx" {
					t.Errorf("got driver %q, want %q", cfg.Database.Driver, "sqlx")
				}
				if cfg.Server.Port != 8080 {
					t.Errorf("got server port %d, want %d", cfg.Server.Port, 8080)
				}
				if cfg.Game.Market.BalanceBuffer != 0.20 {
					t.Errorf("got balance buffer %v, want 0.20", cfg.Game.Market.BalanceBuffer)
				}
				if cfg.Game.FinalizeInterval != 5*time.Second {
					t.Errorf("got finalize interval %v, want 5s", cfg.Game.FinalizeInterval)
				}
				if cfg.Telemetry.ServiceName != "footixd" {
					t.Errorf("got service name %q, want %q", cfg.Telemetry.ServiceName, "footixd")
				}
				if cfg.LeaderElection.LeaseName != "footixd-leader" {
					t.Errorf("got lease name %q", cfg.LeaderElection.LeaseName)
				}
			},
		},
		{
			name:    "invalid yaml",
			yaml:    `{{{invalid`,
			wantErr: true,
		},
		{
			name: "ent driver accepted",
			yaml: `
database:
  driver: "ent"
`,
			wantErr: false,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				if cfg.Database.Driver != "ent" {
					t.Errorf("got driver %q, want %q", cfg.Database.Driver, "ent")
				}
			},
		},
		{
			name: "unknown driver rejected",
			yaml: `
database:
  driver: "mongo"
`,
			wantErr: true,
		},
		{
			name: "balance buffer out of range",
			yaml: `
game:
  market:
    balance_buffer: 1.5
    band_low: 0.7
    band_high: 1.5
`,
			wantErr: true,
		},
		{
			name: "inverted market band rejected",
			yaml: `
game:
  market:
    balance_buffer: 0.2
    band_low: 2.0
    band_high: 1.0
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatalf("writing config: %v", err)
			}

			cfg, err := config.Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("FOOTIX_TEST_DB_PASSWORD", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  password: "${FOOTIX_TEST_DB_PASSWORD}"
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Password != "from-env" {
		t.Errorf("got password %q, want %q", cfg.Database.Password, "from-env")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
