package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/displayname/internal/mcp"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - displayname_transform: add static displayName to class components in inline code
  - displayname_inspect: report the decision taken for every class without rewriting`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := global.setup(observability.ModeMCP, false)
			if err != nil {
				return err
			}
			defer env.close()

			red, err := observability.NewREDMetrics(env.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  env.logger,
				Metrics: red,
				Tracer:  env.providers.Tracer,
				Quote:   env.quote(),
			})

			return srv.Run(cmd.Context())
		},
	}
}
