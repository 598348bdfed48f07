package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables before they are matched
// to configuration keys, so MEMOCURVE_DB_PATH sets db_path.
const EnvPrefix = "MEMOCURVE_"

const maxUpcomingLimit = 50

type Config struct {
	Addr            string        `koanf:"addr"`
	DBPath          string        `koanf:"db_path"`
	LogLevel        string        `koanf:"log_level"`
	ConfigFile      string        `koanf:"config"`
	ImportWorkers   int           `koanf:"import_workers"`
	ImportQueueSize int           `koanf:"import_queue_size"`
	UpcomingLimit   int           `koanf:"upcoming_limit"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
}

// NewFlagSet declares the command line flags together with their defaults.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("db-path", "file:memocurve.db", "SQLite database path")
	fs.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	fs.String("config", "", "optional YAML configuration file")
	fs.Int("import-workers", 1, "collection import workers")
	fs.Int("import-queue-size", 8, "pending collection imports before new ones are rejected")
	fs.Int("upcoming-limit", 5, "cards shown in the upcoming preview")
	fs.Duration("request-timeout", 30*time.Second, "per-request timeout for API calls")
	return fs
}

// flagKey maps a flag name to its configuration key.
func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Load builds the configuration from flag defaults, an optional YAML file,
// MEMOCURVE_ environment variables (a .env file is read first when present)
// and flags set explicitly in args, in increasing order of precedence.
func Load(args []string) (Config, error) {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	fs := NewFlagSet("memocurve")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")
	flags := func(ko posflag.KoanfIntf) *posflag.Posflag {
		return posflag.ProviderWithFlag(fs, ".", ko, func(f *pflag.Flag) (string, any) {
			return flagKey(f.Name), posflag.FlagVal(fs, f)
		})
	}

	// k is still empty, so every flag is merged, defaults included.
	if err := k.Load(flags(k), nil); err != nil {
		return Config{}, fmt.Errorf("load flag defaults: %w", err)
	}

	if path := configPath(fs, k); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Load(flags(explicitOnly{}), nil); err != nil {
		return Config{}, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

// explicitOnly makes the flag provider skip every flag left at its default.
type explicitOnly struct{}

func (explicitOnly) Exists(string) bool { return true }

func configPath(fs *pflag.FlagSet, k *koanf.Koanf) string {
	if f := fs.Lookup("config"); f != nil && f.Changed {
		return f.Value.String()
	}
	if v := os.Getenv(EnvPrefix + "CONFIG"); v != "" {
		return v
	}
	return k.String("config")
}

// Validate checks the configuration and reports every problem found.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}
	if c.ImportWorkers < 1 {
		errs = append(errs, fmt.Errorf("IMPORT_WORKERS must be at least 1, got %d", c.ImportWorkers))
	}
	if c.ImportQueueSize < 1 {
		errs = append(errs, fmt.Errorf("IMPORT_QUEUE_SIZE must be at least 1, got %d", c.ImportQueueSize))
	}
	if c.UpcomingLimit < 1 || c.UpcomingLimit > maxUpcomingLimit {
		errs = append(errs, fmt.Errorf("UPCOMING_LIMIT must be between 1 and %d, got %d", maxUpcomingLimit, c.UpcomingLimit))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT cannot be negative, got %s", c.RequestTimeout))
	}

	return errors.Join(errs...)
}
