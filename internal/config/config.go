// Package config handles configuration loading for keystats.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/seenimoa/keystats/internal/keystats"
	"github.com/seenimoa/keystats/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. KEYSTATS_DATASET_WORKERS.
const EnvPrefix = "KEYSTATS"

// Config represents the complete application configuration.
type Config struct {
	Input   InputConfig   `mapstructure:"input"   yaml:"input"`
	Dataset DatasetConfig `mapstructure:"dataset" yaml:"dataset"`
	Output  OutputConfig  `mapstructure:"output"  yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Source is the config file that was read, empty when none was found.
	Source string `mapstructure:"-" yaml:"-"`
}

// InputConfig locates the snapshot tree and the price tables.
type InputConfig struct {
	SnapshotsDir string `mapstructure:"snapshots_dir" yaml:"snapshots_dir" validate:"required"`
	Extension    string `mapstructure:"extension"     yaml:"extension"     validate:"required,startswith=."`
	StockPrices  string `mapstructure:"stock_prices"  yaml:"stock_prices"  validate:"required"`
	IndexPrices  string `mapstructure:"index_prices"  yaml:"index_prices"  validate:"required"`
	IndexColumn  string `mapstructure:"index_column"  yaml:"index_column"  validate:"required"`
}

// DatasetConfig holds assembly settings.
type DatasetConfig struct {
	Workers     int      `mapstructure:"workers"      yaml:"workers"      validate:"min=1,max=256"`
	HorizonDays int      `mapstructure:"horizon_days" yaml:"horizon_days" validate:"min=1"`
	Timezone    string   `mapstructure:"timezone"     yaml:"timezone"` // IANA name, "Local" or "UTC"
	Tickers     []string `mapstructure:"tickers"      yaml:"tickers"`  // empty selects every ticker

	// Aliases adds fallback labels per metric, tried after the built-in ones.
	Aliases map[string][]string `mapstructure:"aliases" yaml:"aliases"`
}

// OutputConfig holds dataset sinks.
type OutputConfig struct {
	Path          string         `mapstructure:"path"           yaml:"path"           validate:"required"`
	MissingMarker string         `mapstructure:"missing_marker" yaml:"missing_marker"`
	Postgres      PostgresConfig `mapstructure:"postgres"       yaml:"postgres"`
}

// PostgresConfig enables the Postgres sink when DSN is set.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/keystats.yaml
//  2. ./keystats.yaml
//
// Environment variables override config file values.
// Format: KEYSTATS_<SECTION>_<KEY>, e.g., KEYSTATS_OUTPUT_POSTGRES_DSN
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("keystats")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Input.SnapshotsDir = filepath.Clean(cfg.Input.SnapshotsDir)
	cfg.Source = v.ConfigFileUsed()
	return &cfg, nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Input defaults
	v.SetDefault("input.snapshots_dir", "resources/intraQuarter/_KeyStats")
	v.SetDefault("input.extension", ".html")
	v.SetDefault("input.stock_prices", "resources/stock_prices.csv")
	v.SetDefault("input.index_prices", "resources/sp500_index.csv")
	v.SetDefault("input.index_column", "Adj Close")

	// Dataset defaults
	v.SetDefault("dataset.workers", 4)
	v.SetDefault("dataset.horizon_days", 365)
	v.SetDefault("dataset.timezone", "Local")
	v.SetDefault("dataset.tickers", []string{})
	v.SetDefault("dataset.aliases", map[string][]string{})

	// Output defaults
	v.SetDefault("output.path", "resources/keystats.csv")
	v.SetDefault("output.missing_marker", "N/A")
	v.SetDefault("output.postgres.dsn", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks struct constraints and that the timezone resolves.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: dataset.timezone: %w", err)
	}
	if _, err := c.Schema(); err != nil {
		return fmt.Errorf("invalid config: dataset.aliases: %w", err)
	}
	return nil
}

// Schema builds the metric schema: the canonical metrics with any
// configured extra aliases.
func (c *Config) Schema() (*keystats.Schema, error) {
	return keystats.ExtendedSchema(c.Dataset.Aliases)
}

// Horizon returns the label horizon as a fixed duration.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.Dataset.HorizonDays) * 24 * time.Hour
}

// Location resolves the dataset timezone.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Dataset.Timezone)
}
