package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dharmasatrya/pointsmaxxer/internal/models"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case DriverPostgres:
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("database.driver must be one of memory, sqlite, postgres, got %q", c.Database.Driver)
	}

	if c.Cache.Driver != CacheRedis && c.Cache.Driver != CacheMemory {
		return fmt.Errorf("cache.driver must be redis or memory, got %q", c.Cache.Driver)
	}

	if err := c.Settings.validate(); err != nil {
		return err
	}

	if c.Scanner.MaxInFlight < 1 {
		return errors.New("scanner.max_in_flight must be >= 1")
	}
	if c.Scanner.ItemTimeout <= 0 {
		return errors.New("scanner.item_timeout must be positive")
	}
	if c.Scanner.CycleTimeout < c.Scanner.ItemTimeout {
		return fmt.Errorf("scanner.cycle_timeout (%s) cannot be shorter than scanner.item_timeout (%s)", c.Scanner.CycleTimeout, c.Scanner.ItemTimeout)
	}
	if c.Scanner.MaxRetries < 0 {
		return errors.New("scanner.max_retries must be >= 0")
	}
	if c.Scanner.Burst < 1 {
		return errors.New("scanner.burst must be >= 1")
	}

	if c.Dedupe.MilesBand < 1 {
		return errors.New("dedupe.miles_band must be >= 1")
	}
	if c.Dedupe.CPPTolerance < 0 {
		return errors.New("dedupe.cpp_tolerance must be >= 0")
	}
	if c.Dedupe.PointsTolerance < 0 {
		return errors.New("dedupe.points_tolerance must be >= 0")
	}
	if c.Dedupe.RetentionDays < c.Settings.SearchWindowDays {
		return fmt.Errorf("dedupe.retention_days (%d) must cover settings.search_window_days (%d)", c.Dedupe.RetentionDays, c.Settings.SearchWindowDays)
	}

	if c.Transfer.MaxHops < 1 || c.Transfer.MaxHops > 3 {
		return fmt.Errorf("transfer.max_hops must be between 1 and 3, got %d", c.Transfer.MaxHops)
	}

	seenTier := make(map[float64]bool)
	for i, t := range c.Tiers {
		if t.Name == "" {
			return fmt.Errorf("tiers[%d].name is required", i)
		}
		if t.Min < 0 {
			return fmt.Errorf("tiers[%d].min must be >= 0", i)
		}
		if seenTier[t.Min] {
			return fmt.Errorf("tiers[%d].min %.2f is duplicated", i, t.Min)
		}
		seenTier[t.Min] = true
	}

	for i, p := range c.Programs {
		if p.Code == "" {
			return fmt.Errorf("programs[%d].code is required", i)
		}
		if !models.ProgramKind(p.Kind).Valid() {
			return fmt.Errorf("programs[%d].kind must be transferable_currency or airline_program, got %q", i, p.Kind)
		}
	}

	seenHolding := make(map[string]bool)
	for i, h := range c.Portfolio {
		code := models.NormalizeCode(h.Code)
		if code == "" {
			return fmt.Errorf("portfolio[%d].code is required", i)
		}
		if seenHolding[code] {
			return fmt.Errorf("portfolio[%d].code %q is duplicated", i, code)
		}
		seenHolding[code] = true
		if h.Balance < 0 {
			return fmt.Errorf("portfolio[%d].balance must be >= 0", i)
		}
		if h.TransferRatio < 0 {
			return fmt.Errorf("portfolio[%d].transfer_ratio must be > 0", i)
		}
	}

	for src, partners := range c.Transfers {
		for to, ratio := range partners {
			if ratio <= 0 {
				return fmt.Errorf("transfers.%s.%s ratio must be > 0", src, to)
			}
		}
	}
	for i, e := range c.TransferEdges {
		if e.From == "" || e.To == "" {
			return fmt.Errorf("transfer_edges[%d] requires from and to", i)
		}
		if e.Ratio <= 0 {
			return fmt.Errorf("transfer_edges[%d].ratio must be > 0", i)
		}
		if e.MinTransferUnit < 0 {
			return fmt.Errorf("transfer_edges[%d].min_transfer_unit must be >= 0", i)
		}
	}
	if _, err := c.Edges(); err != nil {
		return err
	}

	for i, r := range c.Routes {
		if r.Destination == "" {
			return fmt.Errorf("routes[%d].destination is required", i)
		}
		if r.Cabin != "" {
			if _, ok := models.ParseCabin(string(r.Cabin)); !ok {
				return fmt.Errorf("routes[%d].cabin %q is not a cabin", i, r.Cabin)
			}
		}
	}

	return nil
}

func (s Settings) validate() error {
	if len(s.HomeAirports) == 0 {
		return errors.New("settings.home_airports is required")
	}
	if s.UnicornThresholdCPP <= 0 {
		return errors.New("settings.unicorn_threshold_cpp must be > 0")
	}
	if s.SearchWindowDays < 1 || s.SearchWindowDays > 366 {
		return fmt.Errorf("settings.search_window_days must be between 1 and 366, got %d", s.SearchWindowDays)
	}
	if err := ValidateFrequency(s.ScanFrequency); err != nil {
		return fmt.Errorf("settings.scan_frequency: %w", err)
	}
	if s.MaxStops != nil && *s.MaxStops < 0 {
		return errors.New("settings.max_stops must be >= 0")
	}
	if s.CacheTTLHours < 0 {
		return errors.New("settings.cache_ttl_hours must be >= 0")
	}
	if s.RequestDelaySeconds < 0 {
		return errors.New("settings.request_delay_seconds must be >= 0")
	}
	for _, cabin := range s.Cabins {
		if _, ok := models.ParseCabin(cabin); !ok {
			return fmt.Errorf("settings.cabins: %q is not a cabin", cabin)
		}
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("settings.timezone: %w", err)
	}
	return nil
}

// ValidateFrequency accepts hourly, twice_daily, daily or a positive Go
// duration.
func ValidateFrequency(f string) error {
	switch f {
	case "hourly", "twice_daily", "daily":
		return nil
	}
	d, err := time.ParseDuration(f)
	if err != nil {
		return fmt.Errorf("must be hourly, twice_daily, daily or a duration, got %q", f)
	}
	if d < time.Minute {
		return fmt.Errorf("interval %s is shorter than one minute", d)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
