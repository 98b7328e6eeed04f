package displayname

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
)

// Outcome is the decision taken for one class.
type Outcome string

// Outcomes.
const (
	OutcomeInjected          Outcome = "injected"
	OutcomeAlreadyNamed      Outcome = "already-named"
	OutcomeNotComponent      Outcome = "not-component"
	OutcomeMissingIdentifier Outcome = "missing-identifier"
)

// Diagnostic records the decision for one visited class.
type Diagnostic struct {
	Outcome Outcome
	// Class is the name used for the class, empty for OutcomeMissingIdentifier.
	Class string
	Span  jsast.Span
}

// Sink receives one Diagnostic per visited class, in visiting order.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d Diagnostic)

// Report calls f.
func (f SinkFunc) Report(d Diagnostic) {
	f(d)
}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Collector keeps every diagnostic it receives. Safe for concurrent use.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.diagnostics = append(c.diagnostics, d)
}

// Diagnostics returns a copy of the collected diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)

	return out
}

// Count returns how many diagnostics have the given outcome.
func (c *Collector) Count(outcome Outcome) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0

	for _, d := range c.diagnostics {
		if d.Outcome == outcome {
			n++
		}
	}

	return n
}

// LogSink writes diagnostics to a structured logger. Skips the transform could not
// resolve are logged at info, everything else at debug.
type LogSink struct {
	Logger *slog.Logger
	// Ctx carries trace context into log records. Nil means context.Background.
	Ctx context.Context //nolint:containedctx // the sink is created per request
	// Attrs are appended to every record (e.g. the file name).
	Attrs []slog.Attr
}

// Report logs d.
func (s LogSink) Report(d Diagnostic) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	level := slog.LevelDebug
	if d.Outcome == OutcomeMissingIdentifier {
		level = slog.LevelInfo
	}

	attrs := make([]slog.Attr, 0, len(s.Attrs)+3)
	attrs = append(attrs, s.Attrs...)
	attrs = append(attrs,
		slog.String("outcome", string(d.Outcome)),
		slog.String("class", d.Class),
		slog.Uint64("offset", uint64(d.Span.Start)),
	)

	logger.LogAttrs(ctx, level, "class visited", attrs...)
}

// Tee fans a diagnostic out to several sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, sink := range sinks {
			if sink != nil {
				sink.Report(d)
			}
		}
	})
}
