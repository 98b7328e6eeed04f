// Package commands implements CLI command handlers for displayname.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/displayname/pkg/config"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
	"github.com/Sumatoshi-tech/displayname/pkg/printer"
	"github.com/Sumatoshi-tech/displayname/pkg/version"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	LogJSON    bool
}

// NewRootCommand builds the displayname command tree.
func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "displayname",
		Short: "Add a static displayName to React class components",
		Long: `displayname inserts static displayName = "ClassName" into every class that has
a render method and no displayName property, in JavaScript, TypeScript and TSX sources.

Commands:
  transform  Rewrite files or stdin
  check      Report files that need a displayName
  inspect    Show the decision taken for every class of a file
  lsp        Start the language server
  mcp        Start the MCP server
  serve      Start the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "",
		"config file (default is .displayname.yaml in ., ./config or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "write logs as JSON")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(NewTransformCommand(opts))
	rootCmd.AddCommand(NewCheckCommand(opts))
	rootCmd.AddCommand(NewInspectCommand(opts))
	rootCmd.AddCommand(NewLSPCommand(opts))
	rootCmd.AddCommand(NewMCPCommand(opts))
	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewConfigCommand(opts))
	rootCmd.AddCommand(NewCompletionCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// runtimeEnv is the configuration and telemetry a command runs with.
type runtimeEnv struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
}

// setup loads configuration, applies the color policy and initializes observability
// for mode. Callers must defer close.
func (opts *GlobalOptions) setup(mode observability.AppMode, prometheus bool) (*runtimeEnv, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	applyColor(cfg.Output.Color)

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.Prometheus = prometheus
	obsCfg.LogJSON = opts.LogJSON || cfg.Logging.Format == formatJSON || mode == observability.ModeMCP

	if obsCfg.OTLPEndpoint == "" {
		obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	obsCfg.LogLevel, err = observability.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case opts.Quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &runtimeEnv{cfg: cfg, providers: providers, logger: providers.Logger}, nil
}

func (env *runtimeEnv) close() {
	err := env.providers.Shutdown(context.Background())
	if err != nil {
		env.logger.Warn("observability shutdown failed", "error", err)
	}
}

// quote returns the configured quote style.
func (env *runtimeEnv) quote() printer.Quote {
	return printer.Quote(env.cfg.Output.Quote)
}

// processor builds a Processor honoring the configured quote style.
func (env *runtimeEnv) processor(extra ...pipeline.ProcessorOption) *pipeline.Processor {
	opts := append([]pipeline.ProcessorOption{
		pipeline.WithQuote(env.quote()),
		pipeline.WithLogger(env.logger),
	}, extra...)

	return pipeline.NewProcessor(opts...)
}

func applyColor(mode string) {
	switch mode {
	case "never":
		color.NoColor = true
	case "always":
		color.NoColor = false
	}
}
