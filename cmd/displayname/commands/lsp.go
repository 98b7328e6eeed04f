package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/displayname/pkg/lsp"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
)

// NewLSPCommand creates the language server command.
func NewLSPCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server (LSP, stdio)",
		Long: `Start a language server on stdio. Open JavaScript and TypeScript documents get an
information diagnostic for every class component without a displayName, with a quick fix
and a source.fixAll.displayname action that insert it.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := global.setup(observability.ModeLSP, false)
			if err != nil {
				return err
			}
			defer env.close()

			red, err := observability.NewREDMetrics(env.providers.Meter)
			if err != nil {
				return err
			}

			srv := lsp.NewServer(
				lsp.WithLogger(env.logger),
				lsp.WithMetrics(red),
				lsp.WithProcessor(env.processor()),
			)

			return srv.Run()
		},
	}
}
