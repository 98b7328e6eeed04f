// Package pipeline runs the displayName transform over source files: collect, parse,
// transform, print, then write, check or diff the result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/displayname/pkg/displayname"
	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
	"github.com/Sumatoshi-tech/displayname/pkg/printer"
)

// Result is the outcome of transforming one source.
type Result struct {
	Path     string
	Language string
	// Changed is true when at least one displayName was inserted.
	Changed bool
	// Output is the printed source; equal to the input when nothing changed.
	Output      []byte
	Edits       []printer.Edit
	Diagnostics []displayname.Diagnostic
}

// Counts tallies diagnostics by outcome.
func (r *Result) Counts() map[string]int {
	counts := make(map[string]int, len(r.Diagnostics))

	for _, d := range r.Diagnostics {
		counts[string(d.Outcome)]++
	}

	return counts
}

// Processor parses, transforms and prints single sources. Safe for concurrent use.
type Processor struct {
	parser   *jsparse.Parser
	print    printer.Options
	language string
	logger   *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithQuote selects the quote style of inserted string literals.
func WithQuote(quote printer.Quote) ProcessorOption {
	return func(p *Processor) {
		p.print.Quote = quote
	}
}

// WithLanguage forces a grammar instead of detecting it from the file name.
func WithLanguage(lang string) ProcessorOption {
	return func(p *Processor) {
		p.language = lang
	}
}

// WithLogger makes the processor log one record per visited class at debug level.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor returns a Processor with its own parser pools.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		parser: jsparse.NewParser(),
		print:  printer.Options{Quote: printer.QuoteDouble},
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ProcessSource transforms src, named name. Parse failures are returned as errors
// and nothing is printed for them.
func (p *Processor) ProcessSource(ctx context.Context, name string, src []byte) (*Result, error) {
	prog, err := p.Parse(ctx, name, src)
	if err != nil {
		return nil, err
	}

	return p.ProcessProgram(ctx, name, prog)
}

// ProcessProgram transforms an already parsed program and prints it against
// prog.Source. prog is mutated; pass a Clone to keep the parsed tree reusable.
func (p *Processor) ProcessProgram(ctx context.Context, name string, prog *jsast.Program) (*Result, error) {
	src := prog.Source

	var collected displayname.Collector

	sink := displayname.Tee(&collected, displayname.LogSink{
		Logger: p.logger,
		Ctx:    ctx,
		Attrs:  []slog.Attr{slog.String("file.path", name)},
	})

	displayname.New(displayname.WithSink(sink)).Transform(prog)

	edits, err := printer.Edits(prog, p.print)
	if err != nil {
		return nil, fmt.Errorf("print %s: %w", name, err)
	}

	return &Result{
		Path:        name,
		Language:    prog.Language,
		Changed:     len(edits) > 0,
		Output:      printer.Apply(src, edits),
		Edits:       edits,
		Diagnostics: collected.Diagnostics(),
	}, nil
}

// Inspect parses and transforms src without printing, for reporting decisions only.
func (p *Processor) Inspect(ctx context.Context, name string, src []byte) ([]displayname.Diagnostic, error) {
	prog, err := p.Parse(ctx, name, src)
	if err != nil {
		return nil, err
	}

	var collected displayname.Collector

	displayname.New(displayname.WithSink(&collected)).Transform(prog)

	return collected.Diagnostics(), nil
}

// Parse parses src with the forced language, or the one name implies.
func (p *Processor) Parse(ctx context.Context, name string, src []byte) (*jsast.Program, error) {
	var (
		prog *jsast.Program
		err  error
	)

	if p.language != "" {
		prog, err = p.parser.ParseLanguage(ctx, p.language, src)
	} else {
		prog, err = p.parser.Parse(ctx, name, src)
	}

	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	return prog, nil
}
