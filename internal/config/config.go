package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Config is the validated structure the engine consumes.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Settings  Settings        `yaml:"settings"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Dedupe    DedupeConfig    `yaml:"dedupe"`
	Transfer  TransferConfig  `yaml:"transfer"`
	Tiers     []TierConfig    `yaml:"tiers"`
	Programs  []ProgramConfig `yaml:"programs"`
	Portfolio []HoldingConfig `yaml:"portfolio"`

	// Transfers maps a source currency to partner ratios, e.g.
	// chase_ur: {aeroplan: 1.0}.
	Transfers     map[string]map[string]float64 `yaml:"transfers"`
	TransferEdges []EdgeConfig                  `yaml:"transfer_edges"`
	Routes        []models.Route                `yaml:"routes"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Daemon          bool          `yaml:"daemon"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	Driver   string   `yaml:"driver"`
	Path     string   `yaml:"path"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds connection settings for a single PostgreSQL database.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

type CacheConfig struct {
	Enabled      *bool         `yaml:"enabled"`
	Driver       string        `yaml:"driver"`
	Redis        RedisConfig   `yaml:"redis"`
	CashPriceTTL time.Duration `yaml:"cash_price_ttl"`
}

func (c CacheConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Settings are the user-facing knobs of the deal engine.
type Settings struct {
	HomeAirports        []string `yaml:"home_airports"`
	UnicornThresholdCPP float64  `yaml:"unicorn_threshold_cpp"`
	SearchWindowDays    int      `yaml:"search_window_days"`
	ScanFrequency       string   `yaml:"scan_frequency"`
	MaxStops            *int     `yaml:"max_stops"`
	CacheTTLHours       int      `yaml:"cache_ttl_hours"`
	RequestDelaySeconds float64  `yaml:"request_delay_seconds"`
	Cabins              []string `yaml:"cabins"`
	Timezone            string   `yaml:"timezone"`
}

func (s Settings) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLHours) * time.Hour
}

func (s Settings) RequestDelay() time.Duration {
	return time.Duration(s.RequestDelaySeconds * float64(time.Second))
}

type ScannerConfig struct {
	MaxInFlight  int             `yaml:"max_in_flight"`
	ItemTimeout  time.Duration   `yaml:"item_timeout"`
	CycleTimeout time.Duration   `yaml:"cycle_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout"`
	MaxRetries   int             `yaml:"max_retries"`
	RetryDelays  []time.Duration `yaml:"retry_delays"`
	Burst        int             `yaml:"burst"`
}

type DedupeConfig struct {
	MilesBand       int64         `yaml:"miles_band"`
	CPPTolerance    float64       `yaml:"cpp_tolerance"`
	PointsTolerance int64         `yaml:"points_tolerance"`
	RetentionDays   int           `yaml:"retention_days"`
	PruneInterval   time.Duration `yaml:"prune_interval"`
}

type TransferConfig struct {
	MaxHops int `yaml:"max_hops"`
}

type TierConfig struct {
	Name string  `yaml:"name"`
	Min  float64 `yaml:"min"`
}

type ProgramConfig struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// HoldingConfig seeds one portfolio balance. TransferPartners adds edges
// from Code at TransferRatio.
type HoldingConfig struct {
	Code             string   `yaml:"code"`
	Name             string   `yaml:"name"`
	Balance          int64    `yaml:"balance"`
	TransferPartners []string `yaml:"transfer_partners"`
	TransferRatio    float64  `yaml:"transfer_ratio"`
}

// EdgeConfig is an explicit transfer edge. Times accept RFC 3339 or
// YYYY-MM-DD.
type EdgeConfig struct {
	From            string  `yaml:"from"`
	To              string  `yaml:"to"`
	Ratio           float64 `yaml:"ratio"`
	MinTransferUnit int64   `yaml:"min_transfer_unit"`
	ActiveFrom      string  `yaml:"active_from"`
	ActiveUntil     string  `yaml:"active_until"`
}

// Load reads a YAML file, expands ${VAR} references and decodes it. No
// defaults are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads path, applies defaults and environment overrides,
// then validates the result.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration built only from defaults and the
// environment, for running without a file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg
}
