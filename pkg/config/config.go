// Package config provides configuration loading and validation for displayname.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("pipeline workers must not be negative")
	ErrInvalidQuote       = errors.New("output quote must be double or single")
	ErrInvalidColor       = errors.New("output color must be auto, always or never")
	ErrInvalidMaxFileSize = errors.New("invalid transform max file size")
	ErrInvalidLogLevel    = errors.New("invalid logging level")
	ErrInvalidLogFormat   = errors.New("logging format must be text or json")
	ErrNoExtensions       = errors.New("transform extensions must not be empty")
)

// EnvPrefix prefixes environment overrides, e.g. DISPLAYNAME_PIPELINE_WORKERS.
const EnvPrefix = "DISPLAYNAME"

// Config holds all configuration for displayname.
type Config struct {
	Transform     TransformConfig     `mapstructure:"transform"     json:"transform"`
	Output        OutputConfig        `mapstructure:"output"        json:"output"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"      json:"pipeline"`
	Cache         CacheConfig         `mapstructure:"cache"         json:"cache"`
	Logging       LoggingConfig       `mapstructure:"logging"       json:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability" json:"observability"`
	Server        ServerConfig        `mapstructure:"server"        json:"server"`
}

// TransformConfig selects the files a run touches.
type TransformConfig struct {
	Extensions  []string `mapstructure:"extensions"    json:"extensions"`
	Exclude     []string `mapstructure:"exclude"       json:"exclude"`
	MaxFileSize string   `mapstructure:"max_file_size" json:"max_file_size"`
	SkipVendor  bool     `mapstructure:"skip_vendor"   json:"skip_vendor"`
}

// MaxFileSizeBytes parses MaxFileSize ("1MB", "512KiB"). Zero disables the limit.
func (c TransformConfig) MaxFileSizeBytes() (uint64, error) {
	if c.MaxFileSize == "" || c.MaxFileSize == "0" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMaxFileSize, c.MaxFileSize, err)
	}

	return size, nil
}

// OutputConfig controls how results are rendered.
type OutputConfig struct {
	Quote string `mapstructure:"quote" json:"quote"`
	Color string `mapstructure:"color" json:"color"`
}

// PipelineConfig sizes the worker pool.
type PipelineConfig struct {
	// Workers is the number of files processed concurrently; 0 means one per CPU.
	Workers int `mapstructure:"workers" json:"workers"`
}

// CacheConfig holds the clean-file cache settings.
type CacheConfig struct {
	Path    string `mapstructure:"path"    json:"path"`
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// ObservabilityConfig holds the OTLP export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	Environment  string `mapstructure:"environment"   json:"environment"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure" json:"otlp_insecure"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"          json:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
}

// LoadConfig loads configuration from file and environment variables. With an empty
// path, .displayname.yaml is searched in the working directory, ./config and $HOME,
// and a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(".displayname")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("transform.extensions", DefaultExtensions())
	viperCfg.SetDefault("transform.exclude", DefaultExclude())
	viperCfg.SetDefault("transform.skip_vendor", DefaultSkipVendor)
	viperCfg.SetDefault("transform.max_file_size", DefaultMaxFileSize)

	viperCfg.SetDefault("output.quote", DefaultQuote)
	viperCfg.SetDefault("output.color", DefaultColor)

	viperCfg.SetDefault("pipeline.workers", DefaultWorkers)

	viperCfg.SetDefault("cache.enabled", DefaultCacheEnabled)
	viperCfg.SetDefault("cache.path", DefaultCachePath)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.environment", "")

	viperCfg.SetDefault("server.addr", DefaultServerAddr)
	viperCfg.SetDefault("server.read_timeout", DefaultServerTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerTimeout)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Pipeline.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Pipeline.Workers)
	}

	if !slices.Contains([]string{"double", "single"}, config.Output.Quote) {
		return fmt.Errorf("%w: %q", ErrInvalidQuote, config.Output.Quote)
	}

	if !slices.Contains([]string{"auto", "always", "never"}, config.Output.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, config.Output.Color)
	}

	if len(config.Transform.Extensions) == 0 {
		return ErrNoExtensions
	}

	if _, err := config.Transform.MaxFileSizeBytes(); err != nil {
		return err
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(config.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	if !slices.Contains([]string{"text", "json"}, config.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}
