// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

// DateLayout is the layout of the default window bounds.
const DateLayout = "2006-01-02"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	// File paths
	DatabasePath    string `mapstructure:"storagepath"`
	DatabaseName    string `mapstructure:"-"` // Derived from other settings
	PublicDirectory string `mapstructure:"publicdir"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// KPI settings
	CacheTTLSeconds     int    `mapstructure:"cachettlseconds"`
	DefaultFrom         string `mapstructure:"defaultfrom"`
	DefaultTo           string `mapstructure:"defaultto"`
	DefaultLimit        int    `mapstructure:"defaultlimit"`
	QueryWorkers        int    `mapstructure:"queryworkers"`
	WarmIntervalSeconds int    `mapstructure:"warmintervalseconds"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "supplykpi")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", "88888888888888888888888888888888")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "web")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("cachettlseconds", 600)
		v.SetDefault("defaultfrom", "2013-01-01")
		v.SetDefault("defaultto", "2016-12-31")
		v.SetDefault("defaultlimit", 10)
		v.SetDefault("queryworkers", 4)
		v.SetDefault("warmintervalseconds", 300)

		v.BindEnv("appname", "SUPPLYKPI_APP_NAME")
		v.BindEnv("appport", "SUPPLYKPI_APP_PORT")
		v.BindEnv("environment", "SUPPLYKPI_ENV")
		v.BindEnv("loglevel", "SUPPLYKPI_LOG_LEVEL")
		v.BindEnv("privatekey", "SUPPLYKPI_PRIVATE_KEY")
		v.BindEnv("storagepath", "SUPPLYKPI_STORAGE_PATH")
		v.BindEnv("publicdir", "SUPPLYKPI_PUBLIC_DIR")
		v.BindEnv("logsdir", "SUPPLYKPI_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "SUPPLYKPI_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "SUPPLYKPI_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "SUPPLYKPI_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "SUPPLYKPI_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "SUPPLYKPI_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "SUPPLYKPI_DB_MAX_IDLE_CONNS")
		v.BindEnv("cachettlseconds", "SUPPLYKPI_CACHE_TTL_SECONDS")
		v.BindEnv("defaultfrom", "SUPPLYKPI_DEFAULT_FROM")
		v.BindEnv("defaultto", "SUPPLYKPI_DEFAULT_TO")
		v.BindEnv("defaultlimit", "SUPPLYKPI_DEFAULT_LIMIT")
		v.BindEnv("queryworkers", "SUPPLYKPI_QUERY_WORKERS")
		v.BindEnv("warmintervalseconds", "SUPPLYKPI_WARM_INTERVAL_SECONDS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("invalid cache ttl: %d", c.CacheTTLSeconds)
	}

	if _, err := time.Parse(DateLayout, c.DefaultFrom); err != nil {
		return fmt.Errorf("invalid default from date %q: %w", c.DefaultFrom, err)
	}
	if _, err := time.Parse(DateLayout, c.DefaultTo); err != nil {
		return fmt.Errorf("invalid default to date %q: %w", c.DefaultTo, err)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// CacheTTL returns the lifetime of a cached KPI result.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// WarmInterval returns how often the default window is recomputed in the background.
func (c *Config) WarmInterval() time.Duration {
	return time.Duration(c.WarmIntervalSeconds) * time.Second
}

// DefaultWindow returns the configured default date window.
// Bounds are validated at load time.
func (c *Config) DefaultWindow() (time.Time, time.Time) {
	from, _ := time.Parse(DateLayout, c.DefaultFrom)
	to, _ := time.Parse(DateLayout, c.DefaultTo)
	return from, to
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return "/"
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment.
// The dashboard fans out one query per KPI, so outside tests the pool allows
// concurrent readers.
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
