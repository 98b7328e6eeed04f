package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/displayname/pkg/config"
)

// defaultConfigFile is validated when no file is named.
const defaultConfigFile = ".displayname.yaml"

// ErrInvalidConfig indicates config validate found problems.
var ErrInvalidConfig = errors.New("invalid configuration")

// NewConfigCommand creates the config command group.
func NewConfigCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	cmd.AddCommand(newConfigValidateCommand(global))
	cmd.AddCommand(newConfigShowCommand(global))

	return cmd
}

func newConfigValidateCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a configuration file against the schema",
		Long: `Validate a YAML configuration file against the embedded JSON schema, then
check the values the schema cannot express (file size syntax, log level).

Examples:
  displayname config validate
  displayname config validate ci/.displayname.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := global.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}

			if path == "" {
				path = defaultConfigFile
			}

			return runConfigValidate(cmd.OutOrStdout(), path, global.Quiet)
		},
	}
}

func runConfigValidate(out io.Writer, path string, quiet bool) error {
	violations, err := config.ValidateFile(path)
	if err != nil && !errors.Is(err, config.ErrSchema) {
		return err
	}

	if len(violations) > 0 {
		color.New(color.FgRed).Fprintf(out, "Configuration is invalid (%s)\n", path)

		for _, v := range violations {
			color.New(color.FgRed).Fprintf(out, "  - %s: %s\n", v.Field, v.Description)
		}

		return fmt.Errorf("%w: %s: %d violation(s)", ErrInvalidConfig, path, len(violations))
	}

	if _, err = config.LoadConfig(path); err != nil {
		color.New(color.FgRed).Fprintf(out, "Configuration is invalid (%s)\n", path)
		color.New(color.FgRed).Fprintf(out, "  - %v\n", err)

		return fmt.Errorf("%w: %s", ErrInvalidConfig, path)
	}

	if !quiet {
		color.New(color.FgGreen).Fprintf(out, "Configuration is valid (%s)\n", path)
	}

	return nil
}

func newConfigShowCommand(global *GlobalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after defaults, the config file and DISPLAYNAME_* environment overrides.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(global.ConfigPath)
			if err != nil {
				return err
			}

			return writeConfig(cmd.OutOrStdout(), cfg, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")

	return cmd
}

// writeConfig renders cfg with the keys and value forms config files are written with.
func writeConfig(out io.Writer, cfg *config.Config, format string) error {
	doc, err := configDocument(cfg)
	if err != nil {
		return err
	}

	switch format {
	case formatJSON:
		var data []byte

		data, err = json.MarshalIndent(doc, "", "  ")
		if err == nil {
			_, err = fmt.Fprintln(out, string(data))
		}
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)

		err = errors.Join(enc.Encode(doc), enc.Close())
	default:
		return fmt.Errorf("%w: %q (want yaml or json)", ErrUnknownFormat, format)
	}

	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// configDocument converts cfg into a generic document keyed by its JSON names, with
// durations as strings ("30s").
func configDocument(cfg *config.Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	var doc map[string]any

	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	if server, ok := doc["server"].(map[string]any); ok {
		server["read_timeout"] = cfg.Server.ReadTimeout.String()
		server["write_timeout"] = cfg.Server.WriteTimeout.String()
	}

	return doc, nil
}
