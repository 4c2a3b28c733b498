package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

func TestLoad(t *testing.T) {
	yaml := `
settings:
  home_airports: [SFO, OAK]
  unicorn_threshold_cpp: 6.5
  search_window_days: 60
  scan_frequency: twice_daily
portfolio:
  - code: chase_ur
    name: Chase Ultimate Rewards
    balance: 180000
routes:
  - origin: SFO
    destination: NRT
    cabin: business
  - destination: LHR
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Settings.HomeAirports; len(got) != 2 || got[1] != "OAK" {
		t.Errorf("Settings.HomeAirports = %v, want [SFO OAK]", got)
	}
	if cfg.Settings.UnicornThresholdCPP != 6.5 {
		t.Errorf("Settings.UnicornThresholdCPP = %v, want 6.5", cfg.Settings.UnicornThresholdCPP)
	}
	if len(cfg.Portfolio) != 1 || cfg.Portfolio[0].Balance != 180000 {
		t.Errorf("Portfolio = %+v, want one chase_ur holding of 180000", cfg.Portfolio)
	}
	if len(cfg.Routes) != 2 || cfg.Routes[0].Cabin != "business" || cfg.Routes[1].Origin != "" {
		t.Errorf("Routes = %+v", cfg.Routes)
	}
	// Load does not apply defaults.
	if cfg.Scanner.MaxInFlight != 0 {
		t.Errorf("Scanner.MaxInFlight = %d, want 0 before defaults", cfg.Scanner.MaxInFlight)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "secret123")

	yaml := `
database:
  driver: postgres
  postgres:
    host: localhost
    name: points
    user: points
    password: ${TEST_PG_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "settings:\n  search_window_days: 30\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, DefaultPort)
	}
	if cfg.Settings.UnicornThresholdCPP != DefaultUnicornThresholdCPP {
		t.Errorf("Settings.UnicornThresholdCPP = %v, want %v", cfg.Settings.UnicornThresholdCPP, DefaultUnicornThresholdCPP)
	}
	if cfg.Settings.MaxStops == nil || *cfg.Settings.MaxStops != DefaultMaxStops {
		t.Errorf("Settings.MaxStops = %v, want %d", cfg.Settings.MaxStops, DefaultMaxStops)
	}
	if cfg.Settings.CacheTTL() != 6*time.Hour {
		t.Errorf("Settings.CacheTTL() = %v, want 6h", cfg.Settings.CacheTTL())
	}
	if cfg.Settings.RequestDelay() != 2*time.Second {
		t.Errorf("Settings.RequestDelay() = %v, want 2s", cfg.Settings.RequestDelay())
	}
	if cfg.Dedupe.RetentionDays != 30 {
		t.Errorf("Dedupe.RetentionDays = %d, want search window 30", cfg.Dedupe.RetentionDays)
	}
	if cfg.Scanner.ItemTimeout != DefaultItemTimeout {
		t.Errorf("Scanner.ItemTimeout = %v, want %v", cfg.Scanner.ItemTimeout, DefaultItemTimeout)
	}
	if cfg.Cache.CashPriceTTL != 24*time.Hour {
		t.Errorf("Cache.CashPriceTTL = %v, want 24h", cfg.Cache.CashPriceTTL)
	}
	if len(cfg.Programs) == 0 {
		t.Error("Programs should default to the built-in program table")
	}
	if cfg.Transfers["chase_ur"]["aeroplan"] != 1.0 {
		t.Errorf("Transfers should default to the partner table, got %v", cfg.Transfers["chase_ur"])
	}
}

func TestLoadWithDefaults_ConfiguredTransfersKept(t *testing.T) {
	yaml := `
transfers:
  amex_mr:
    ana: 1.0
`
	cfg, err := LoadWithDefaults(writeTempFile(t, yaml))
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}
	if len(cfg.Transfers) != 1 {
		t.Errorf("Transfers = %v, want only the configured source", cfg.Transfers)
	}
}

func TestLoadAndValidate_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("REDIS_HOST", "cache.internal")

	cfg, err := LoadAndValidate(writeTempFile(t, "database:\n  driver: memory\n"))
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Server.Port = %q, want 9999", cfg.Server.Port)
	}
	if cfg.Cache.IsEnabled() {
		t.Error("Cache should be disabled by CACHE_ENABLED=false")
	}
	if cfg.Cache.Redis.Host != "cache.internal" {
		t.Errorf("Cache.Redis.Host = %q, want cache.internal", cfg.Cache.Redis.Host)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeTempFile(t, "settings: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "database.driver",
		},
		{
			name: "postgres requires host",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				applyDBDefaults(&c.Database.Postgres)
				c.Database.Postgres.Name = "points"
				c.Database.Postgres.User = "points"
			},
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "bad frequency",
			mutate:  func(c *Config) { c.Settings.ScanFrequency = "weekly" },
			wantErr: "settings.scan_frequency",
		},
		{
			name:   "duration frequency",
			mutate: func(c *Config) { c.Settings.ScanFrequency = "45m" },
		},
		{
			name:    "bad cabin",
			mutate:  func(c *Config) { c.Settings.Cabins = []string{"coach"} },
			wantErr: "settings.cabins",
		},
		{
			name:    "negative balance",
			mutate:  func(c *Config) { c.Portfolio = []HoldingConfig{{Code: "bilt", Balance: -1}} },
			wantErr: "portfolio[0].balance",
		},
		{
			name: "duplicate holding",
			mutate: func(c *Config) {
				c.Portfolio = []HoldingConfig{{Code: "bilt", Balance: 1}, {Code: "BILT", Balance: 2}}
			},
			wantErr: "duplicated",
		},
		{
			name:    "zero ratio",
			mutate:  func(c *Config) { c.Transfers = map[string]map[string]float64{"bilt": {"aa": 0}} },
			wantErr: "transfers.bilt.aa",
		},
		{
			name: "bad edge time",
			mutate: func(c *Config) {
				c.TransferEdges = []EdgeConfig{{From: "amex_mr", To: "ba_avios", Ratio: 1.3, ActiveUntil: "soon"}}
			},
			wantErr: "transfer_edges[0].active_until",
		},
		{
			name:    "cycle shorter than item",
			mutate:  func(c *Config) { c.Scanner.CycleTimeout = time.Second },
			wantErr: "scanner.cycle_timeout",
		},
		{
			name:    "retention shorter than window",
			mutate:  func(c *Config) { c.Dedupe.RetentionDays = 10 },
			wantErr: "dedupe.retention_days",
		},
		{
			name:    "hop cap",
			mutate:  func(c *Config) { c.Transfer.MaxHops = 5 },
			wantErr: "transfer.max_hops",
		},
		{
			name:    "route without destination",
			mutate:  func(c *Config) { c.Routes = []models.Route{{Origin: "SFO"}} },
			wantErr: "routes[0].destination",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Settings.Timezone = "Mars/Olympus" },
			wantErr: "settings.timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestEdges(t *testing.T) {
	cfg := &Config{
		Transfers: map[string]map[string]float64{
			"chase_ur": {"united": 1.0, "aeroplan": 1.0},
		},
		Portfolio: []HoldingConfig{
			{Code: "Bilt", Balance: 1000, TransferPartners: []string{"hyatt"}},
		},
		TransferEdges: []EdgeConfig{
			{From: "amex_mr", To: "ba_avios", Ratio: 1.3, MinTransferUnit: 1000, ActiveUntil: "2026-11-01"},
		},
	}

	edges, err := cfg.Edges()
	if err != nil {
		t.Fatalf("Edges failed: %v", err)
	}
	if len(edges) != 4 {
		t.Fatalf("len(edges) = %d, want 4", len(edges))
	}
	if edges[0].To != "aeroplan" || edges[1].To != "united" {
		t.Errorf("map edges should be sorted by target, got %s, %s", edges[0].To, edges[1].To)
	}
	if edges[2].From != "bilt" || edges[2].Ratio.String() != "1" {
		t.Errorf("holding edge = %+v, want bilt at ratio 1", edges[2])
	}
	bonus := edges[3]
	if bonus.Ratio.String() != "1.3" || bonus.MinTransferUnit != 1000 {
		t.Errorf("explicit edge = %+v", bonus)
	}
	if bonus.ActiveUntil == nil || !bonus.ActiveUntil.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("explicit edge ActiveUntil = %v", bonus.ActiveUntil)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("POINTSMAXXER_CONFIG", "/etc/pointsmaxxer.yaml")

	if got := ConfigPath("cli.yaml"); got != "cli.yaml" {
		t.Errorf("ConfigPath(flag) = %q, want cli.yaml", got)
	}
	if got := ConfigPath(""); got != "/etc/pointsmaxxer.yaml" {
		t.Errorf("ConfigPath(env) = %q, want /etc/pointsmaxxer.yaml", got)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
