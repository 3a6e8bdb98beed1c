// Package config loads ccstats settings.
//
// Values come from, in increasing precedence: built-in defaults, the
// .ccstats.yaml config file, CCSTATS_* environment variables and command
// line flags bound by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/ccstats/internal/store"
	"github.com/roach88/ccstats/internal/usage"
)

// EnvPrefix prefixes every environment variable ccstats reads.
const EnvPrefix = "CCSTATS"

// Keys.
const (
	KeyDriver          = "driver"
	KeyDSN             = "dsn"
	KeyThreads         = "threads"
	KeyMemoryLimit     = "memory_limit"
	KeyProjectsDir     = "projects_dir"
	KeyHooksDir        = "hooks_dir"
	KeyListen          = "listen"
	KeyQueryTimeout    = "query_timeout"
	KeyShutdownTimeout = "shutdown_timeout"
	KeyLogFormat       = "log_format"
	KeyVerbose         = "verbose"
)

// Config holds all runtime configuration.
type Config struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Threads         int           `mapstructure:"threads"`
	MemoryLimit     string        `mapstructure:"memory_limit"`
	ProjectsDir     string        `mapstructure:"projects_dir"`
	HooksDir        string        `mapstructure:"hooks_dir"`
	Listen          string        `mapstructure:"listen"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogFormat       string        `mapstructure:"log_format"`
	Verbose         bool          `mapstructure:"verbose"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the built-in value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDriver, store.DriverDuckDB)
	v.SetDefault(KeyDSN, "")
	v.SetDefault(KeyThreads, 0)
	v.SetDefault(KeyMemoryLimit, "")
	v.SetDefault(KeyProjectsDir, "")
	v.SetDefault(KeyHooksDir, "")
	v.SetDefault(KeyListen, "127.0.0.1:3000")
	v.SetDefault(KeyQueryTimeout, 60*time.Second)
	v.SetDefault(KeyShutdownTimeout, 10*time.Second)
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyVerbose, false)
}

// ReadFile loads the config file at path, or searches for .ccstats.yaml in
// the working directory and the home directory when path is empty. A
// missing file is not an error unless path was given explicitly.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".ccstats")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes v into a Config, fills in the default log directories and
// validates the result.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.ProjectsDir == "" || cfg.HooksDir == "" {
		src, err := usage.DefaultSources()
		if err != nil {
			return Config{}, err
		}
		if cfg.ProjectsDir == "" {
			cfg.ProjectsDir = src.ProjectsDir
		}
		if cfg.HooksDir == "" {
			cfg.HooksDir = src.HooksDir
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	switch c.Driver {
	case store.DriverDuckDB, store.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported driver %q (want %s or %s)", c.Driver, store.DriverDuckDB, store.DriverSQLite))
	}
	if c.Threads < 0 {
		errs = append(errs, fmt.Errorf("threads must not be negative, got %d", c.Threads))
	}
	if c.QueryTimeout < 0 {
		errs = append(errs, fmt.Errorf("query_timeout must not be negative, got %s", c.QueryTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address must not be empty"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log_format %q (want text or json)", c.LogFormat))
	}
	return errors.Join(errs...)
}

// StoreOptions returns the engine settings.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.Driver,
		DSN:         c.DSN,
		Threads:     c.Threads,
		MemoryLimit: c.MemoryLimit,
	}
}

// Sources returns the log directories.
func (c Config) Sources() usage.Sources {
	return usage.Sources{ProjectsDir: c.ProjectsDir, HooksDir: c.HooksDir}
}
