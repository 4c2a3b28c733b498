package config

import (
	"os"
	"strconv"
)

// applyEnvOverrides lets process-level settings be overridden without
// editing the file.
func (c *Config) applyEnvOverrides() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Server.Daemon = getEnvBool("DAEMON", c.Server.Daemon)

	enabled := getEnvBool("CACHE_ENABLED", c.Cache.IsEnabled())
	c.Cache.Enabled = &enabled
	c.Cache.Redis.Host = getEnv("REDIS_HOST", c.Cache.Redis.Host)
	c.Cache.Redis.Port = getEnv("REDIS_PORT", c.Cache.Redis.Port)
	c.Cache.Redis.Password = getEnv("REDIS_PASSWORD", c.Cache.Redis.Password)

	c.Database.Driver = getEnv("DATABASE_DRIVER", c.Database.Driver)
	c.Database.Path = getEnv("DATABASE_PATH", c.Database.Path)
	if c.Database.Driver == DriverPostgres {
		applyDBDefaults(&c.Database.Postgres)
	}
	c.Database.Postgres.Host = getEnv("POSTGRES_HOST", c.Database.Postgres.Host)
	c.Database.Postgres.Port = getEnvInt("POSTGRES_PORT", c.Database.Postgres.Port)
	c.Database.Postgres.Password = getEnv("POSTGRES_PASSWORD", c.Database.Postgres.Password)
}

// ConfigPath resolves the config file location from the flag value, then
// POINTSMAXXER_CONFIG, then ./config.yaml when it exists. Empty means run on
// defaults.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv("POINTSMAXXER_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
