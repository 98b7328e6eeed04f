package commands

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/displayname/pkg/displayname"
	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
)

// ClassReport is one row of inspect output.
type ClassReport struct {
	Line    int    `json:"line"`
	Class   string `json:"class,omitempty"`
	Outcome string `json:"outcome"`
}

// InspectReport is the JSON form of inspect output.
type InspectReport struct {
	Path     string        `json:"path"`
	Language string        `json:"language"`
	Classes  []ClassReport `json:"classes"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(global *GlobalOptions) *cobra.Command {
	var format, language string

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the decision taken for every class of a file",
		Long: `Parse a file and list every class the transform visits with the outcome:
injected, already-named, not-component or missing-identifier. Nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("%w: %q (want text or json)", ErrUnknownFormat, format)
			}

			env, err := global.setup(observability.ModeCLI, false)
			if err != nil {
				return err
			}
			defer env.close()

			report, err := inspectFile(cmd.Context(), env, args[0], language)
			if err != nil {
				return err
			}

			if format == formatJSON {
				return writeInspectJSON(cmd.OutOrStdout(), report)
			}

			return writeInspectTable(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")
	cmd.Flags().StringVar(&language, "language", "", "force a grammar instead of detecting it from the file name")

	return cmd
}

func inspectFile(ctx context.Context, env *runtimeEnv, path, language string) (*InspectReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	maxSize, err := env.cfg.Transform.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	src, resolved, err := safeReadFile(path, maxSize)
	if err != nil {
		return nil, err
	}

	var procOpts []pipeline.ProcessorOption

	lang := language
	if lang == "" {
		lang = jsparse.DetectLanguage(resolved, src)
	} else {
		if !slices.Contains(jsparse.Languages(), lang) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
		}

		procOpts = append(procOpts, pipeline.WithLanguage(lang))
	}

	diags, err := env.processor(procOpts...).Inspect(ctx, resolved, src)
	if err != nil {
		return nil, err
	}

	report := &InspectReport{Path: resolved, Language: lang, Classes: make([]ClassReport, 0, len(diags))}

	for _, d := range diags {
		report.Classes = append(report.Classes, ClassReport{
			Line:    d.Span.Line(src),
			Class:   d.Class,
			Outcome: string(d.Outcome),
		})
	}

	return report, nil
}

func writeInspectJSON(out io.Writer, report *InspectReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if _, err = fmt.Fprintln(out, string(data)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func writeInspectTable(out io.Writer, report *InspectReport) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateHeader = false
	tbl.SetTitle("%s (%s)", report.Path, report.Language)
	tbl.AppendHeader(table.Row{"LINE", "CLASS", "OUTCOME"})

	for _, c := range report.Classes {
		name := sanitizeForTerminal(c.Class)
		if name == "" {
			name = "(anonymous)"
		}

		tbl.AppendRow(table.Row{c.Line, name, outcomeLabel(displayname.Outcome(c.Outcome))})
	}

	if len(report.Classes) == 0 {
		tbl.AppendRow(table.Row{"", "no classes found", ""})
	}

	if _, err := fmt.Fprintln(out, tbl.Render()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func outcomeLabel(outcome displayname.Outcome) string {
	switch outcome {
	case displayname.OutcomeInjected:
		return color.GreenString(string(outcome))
	case displayname.OutcomeMissingIdentifier:
		return color.YellowString(string(outcome))
	case displayname.OutcomeAlreadyNamed, displayname.OutcomeNotComponent:
		return string(outcome)
	default:
		return string(outcome)
	}
}
