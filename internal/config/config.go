// Package config merges command line flags, environment variables (including
// a local .env file) and defaults into one Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	DBDriver        string  `mapstructure:"db_driver"`
	DatabaseURL     string  `mapstructure:"database_url"`
	LogLevel        string  `mapstructure:"log_level"`
	LogFormat       string  `mapstructure:"log_format"`
	CaregiverPicker string  `mapstructure:"caregiver_picker"`
	LoginRate       float64 `mapstructure:"login_rate"`
	LoginBurst      int     `mapstructure:"login_burst"`
}

var defaults = map[string]any{
	"db_driver":        "sqlite",
	"database_url":     "scheduler.db",
	"log_level":        "warn",
	"log_format":       "console",
	"caregiver_picker": "random",
	"login_rate":       0.2,
	"login_burst":      5,
}

// Load reads configuration for a run with the given arguments (without the
// program name). Flags beat environment, environment beats .env and defaults.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	fs := pflag.NewFlagSet("scheduler", pflag.ContinueOnError)
	fs.String("db-driver", "", "storage backend: sqlite, postgres or memory")
	fs.String("database-url", "", "sqlite file path or postgres connection URL")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "console or json")
	fs.String("caregiver-picker", "", "random or round-robin")
	fs.Float64("login-rate", 0, "login attempts per second allowed per username")
	fs.Int("login-burst", 0, "login attempts allowed in a burst")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()
	for _, key := range []string{
		"db_driver", "database_url", "log_level", "log_format",
		"caregiver_picker", "login_rate", "login_burst",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flagName(key))); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.validate()
}

func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("db_driver %q: want sqlite, postgres or memory", c.DBDriver)
	}
	if c.DBDriver != "memory" && c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	switch c.CaregiverPicker {
	case "random", "round-robin":
	default:
		return fmt.Errorf("caregiver_picker %q: want random or round-robin", c.CaregiverPicker)
	}
	if c.LoginRate <= 0 || c.LoginBurst < 1 {
		return errors.New("login_rate and login_burst must be positive")
	}
	return nil
}
