package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPort                = "8080"
	DefaultReadTimeout         = 15 * time.Second
	DefaultWriteTimeout        = 2 * time.Minute
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultLogLevel            = "info"
	DefaultDatabaseDriver      = DriverSQLite
	DefaultSQLitePath          = "pointsmaxxer.db"
	DefaultDBPort              = 5432
	DefaultDBSSLMode           = "prefer"
	DefaultMaxConns            = 10
	DefaultMinConns            = 2
	DefaultCacheDriver         = CacheRedis
	DefaultRedisHost           = "localhost"
	DefaultRedisPort           = "6379"
	DefaultCashPriceTTL        = 24 * time.Hour
	DefaultHomeAirport         = "SFO"
	DefaultUnicornThresholdCPP = 7.0
	DefaultSearchWindowDays    = 90
	DefaultScanFrequency       = "daily"
	DefaultMaxStops            = 1
	DefaultCacheTTLHours       = 6
	DefaultRequestDelaySeconds = 2.0
	DefaultTimezone            = "UTC"
	DefaultMaxInFlight         = 4
	DefaultItemTimeout         = 30 * time.Second
	DefaultCycleTimeout        = 30 * time.Minute
	DefaultScanWriteTimeout    = 5 * time.Second
	DefaultMaxRetries          = 2
	DefaultBurst               = 1
	DefaultMilesBand           = 5000
	DefaultCPPTolerance        = 0.05
	DefaultPointsTolerance     = 500
	DefaultPruneInterval       = 24 * time.Hour
	DefaultMaxHops             = 2
)

var (
	DefaultCabins      = []string{"business", "first"}
	DefaultRetryDelays = []time.Duration{500 * time.Millisecond, 2 * time.Second}
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Database defaults
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDatabaseDriver
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = DefaultSQLitePath
	}
	if c.Database.Driver == DriverPostgres {
		applyDBDefaults(&c.Database.Postgres)
	}

	// Cache defaults
	if c.Cache.Driver == "" {
		c.Cache.Driver = DefaultCacheDriver
	}
	if c.Cache.Redis.Host == "" {
		c.Cache.Redis.Host = DefaultRedisHost
	}
	if c.Cache.Redis.Port == "" {
		c.Cache.Redis.Port = DefaultRedisPort
	}
	if c.Cache.CashPriceTTL == 0 {
		c.Cache.CashPriceTTL = DefaultCashPriceTTL
	}

	// Settings defaults
	s := &c.Settings
	if len(s.HomeAirports) == 0 {
		s.HomeAirports = []string{DefaultHomeAirport}
	}
	if s.UnicornThresholdCPP == 0 {
		s.UnicornThresholdCPP = DefaultUnicornThresholdCPP
	}
	if s.SearchWindowDays == 0 {
		s.SearchWindowDays = DefaultSearchWindowDays
	}
	if s.ScanFrequency == "" {
		s.ScanFrequency = DefaultScanFrequency
	}
	if s.MaxStops == nil {
		stops := DefaultMaxStops
		s.MaxStops = &stops
	}
	if s.CacheTTLHours == 0 {
		s.CacheTTLHours = DefaultCacheTTLHours
	}
	if s.RequestDelaySeconds == 0 {
		s.RequestDelaySeconds = DefaultRequestDelaySeconds
	}
	if len(s.Cabins) == 0 {
		s.Cabins = append([]string(nil), DefaultCabins...)
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}

	// Scanner defaults
	if c.Scanner.MaxInFlight == 0 {
		c.Scanner.MaxInFlight = DefaultMaxInFlight
	}
	if c.Scanner.ItemTimeout == 0 {
		c.Scanner.ItemTimeout = DefaultItemTimeout
	}
	if c.Scanner.CycleTimeout == 0 {
		c.Scanner.CycleTimeout = DefaultCycleTimeout
	}
	if c.Scanner.WriteTimeout == 0 {
		c.Scanner.WriteTimeout = DefaultScanWriteTimeout
	}
	if c.Scanner.MaxRetries == 0 {
		c.Scanner.MaxRetries = DefaultMaxRetries
	}
	if len(c.Scanner.RetryDelays) == 0 {
		c.Scanner.RetryDelays = append([]time.Duration(nil), DefaultRetryDelays...)
	}
	if c.Scanner.Burst == 0 {
		c.Scanner.Burst = DefaultBurst
	}

	// Dedupe defaults
	if c.Dedupe.MilesBand == 0 {
		c.Dedupe.MilesBand = DefaultMilesBand
	}
	if c.Dedupe.CPPTolerance == 0 {
		c.Dedupe.CPPTolerance = DefaultCPPTolerance
	}
	if c.Dedupe.PointsTolerance == 0 {
		c.Dedupe.PointsTolerance = DefaultPointsTolerance
	}
	if c.Dedupe.RetentionDays == 0 {
		c.Dedupe.RetentionDays = s.SearchWindowDays
	}
	if c.Dedupe.PruneInterval == 0 {
		c.Dedupe.PruneInterval = DefaultPruneInterval
	}

	if c.Transfer.MaxHops == 0 {
		c.Transfer.MaxHops = DefaultMaxHops
	}

	// Reference data
	if len(c.Programs) == 0 {
		c.Programs = DefaultPrograms()
	}
	if len(c.Transfers) == 0 && len(c.TransferEdges) == 0 && !c.hasHoldingPartners() {
		c.Transfers = DefaultTransfers()
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

func (c *Config) hasHoldingPartners() bool {
	for _, h := range c.Portfolio {
		if len(h.TransferPartners) > 0 {
			return true
		}
	}
	return false
}
