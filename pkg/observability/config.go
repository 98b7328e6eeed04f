// Package observability wires OpenTelemetry tracing, metrics and structured logging
// into every displayname mode (CLI, language server, MCP, HTTP).
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// AppMode identifies how the binary was launched.
type AppMode string

// Application modes.
const (
	ModeCLI   AppMode = "cli"
	ModeLSP   AppMode = "lsp"
	ModeMCP   AppMode = "mcp"
	ModeServe AppMode = "serve"
)

const (
	defaultServiceName     = "displayname"
	defaultShutdownTimeout = 5 * time.Second
)

// Config holds all observability configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables export.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// SampleRatio is the root sampling ratio; zero samples everything.
	SampleRatio float64

	// Prometheus attaches a Prometheus reader to the meter provider and exposes it
	// as Providers.MetricsHandler.
	Prometheus bool

	LogLevel slog.Level
	LogJSON  bool
	// LogWriter receives log records. Nil means stderr; stdout belongs to the
	// LSP and MCP protocols.
	LogWriter io.Writer

	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		Mode:            ModeCLI,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" (any case) to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.TrimSpace(name)))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", name, err)
	}

	return level, nil
}
