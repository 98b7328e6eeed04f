package config

import "time"

// Transform defaults.
const (
	DefaultSkipVendor  = true
	DefaultMaxFileSize = "1MB"
)

// Output defaults.
const (
	DefaultQuote = "double"
	DefaultColor = "auto"
)

// Pipeline defaults. Zero workers means one per CPU.
const (
	DefaultWorkers = 0
)

// Cache defaults.
const (
	DefaultCacheEnabled = true
	DefaultCachePath    = ".displayname-cache"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Server defaults.
const (
	DefaultServerAddr    = "127.0.0.1:8080"
	DefaultServerTimeout = 30 * time.Second
)

// DefaultExtensions returns the file extensions processed when none are configured.
func DefaultExtensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".mts", ".cts", ".tsx"}
}

// DefaultExclude returns the directory names skipped when none are configured.
func DefaultExclude() []string {
	return []string{"node_modules", "dist", "build", "coverage"}
}

// Default returns the configuration LoadConfig produces without file or environment.
func Default() *Config {
	return &Config{
		Transform: TransformConfig{
			Extensions:  DefaultExtensions(),
			Exclude:     DefaultExclude(),
			MaxFileSize: DefaultMaxFileSize,
			SkipVendor:  DefaultSkipVendor,
		},
		Output:   OutputConfig{Quote: DefaultQuote, Color: DefaultColor},
		Pipeline: PipelineConfig{Workers: DefaultWorkers},
		Cache:    CacheConfig{Enabled: DefaultCacheEnabled, Path: DefaultCachePath},
		Logging:  LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			ReadTimeout:  DefaultServerTimeout,
			WriteTimeout: DefaultServerTimeout,
		},
	}
}
