package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrUnsupportedShell is returned when an unsupported shell is specified.
var ErrUnsupportedShell = errors.New("unsupported shell")

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [shell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for displayname.

Examples:
  displayname completion bash > /etc/bash_completion.d/displayname
  displayname completion zsh
  displayname completion fish`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()

			var err error

			switch args[0] {
			case "bash":
				err = root.GenBashCompletion(out)
			case "zsh":
				err = root.GenZshCompletion(out)
			case "fish":
				err = root.GenFishCompletion(out, true)
			case "powershell":
				err = root.GenPowerShellCompletion(out)
			default:
				return fmt.Errorf("%w: %s", ErrUnsupportedShell, args[0])
			}

			if err != nil {
				return fmt.Errorf("failed to generate %s completion: %w", args[0], err)
			}

			return nil
		},
	}
}
