package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds the embedded store settings
type DatabaseConfig struct {
	// Path is the sqlite database file; ":memory:" opens a throwaway store
	Path         string
	BusyTimeout  int // in milliseconds
	ForeignKeys  bool
	MaxOpenConns int
	MaxIdleConns int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DSN builds the sqlite connection string with pragmas applied
func (c *DatabaseConfig) DSN() string {
	dsn := c.Path
	sep := "?"

	if c.BusyTimeout > 0 {
		dsn += fmt.Sprintf("%s_busy_timeout=%d", sep, c.BusyTimeout)
		sep = "&"
	}
	if c.ForeignKeys {
		dsn += sep + "_foreign_keys=on"
	}

	return dsn
}

// Load reads configuration from multiple sources
// Priority (highest to lowest):
// 1. Environment variables with LEDGER_ prefix (e.g., LEDGER_DATABASE_PATH)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Path:         v.GetString("database.path"),
			BusyTimeout:  v.GetInt("database.busy_timeout"),
			ForeignKeys:  v.GetBool("database.foreign_keys"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ledger")
	v.SetDefault("app.env", "development")

	v.SetDefault("database.path", "ledger.db")
	v.SetDefault("database.busy_timeout", 5000)
	v.SetDefault("database.foreign_keys", true)
	// The engine assumes a single logical writer; one connection keeps
	// sqlite's locking out of the picture.
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}
