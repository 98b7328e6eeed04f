// Package displayname adds a static displayName property to classes that look like
// UI components.
//
// A class qualifies when its body has a method keyed `render`. Qualifying classes
// that do not already declare a `displayName` property get
// `static displayName = "<ClassName>"` inserted as their first member. The pass is
// idempotent and never fails: classes it cannot name are skipped and reported to the
// configured Sink.
//
// The render heuristic is syntactic. Any class with an unrelated render method is
// treated as a component, and components without a render method are not.
package displayname

import (
	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
)

// Member names the transform looks for.
const (
	PropertyName = "displayName"
	RenderMethod = "render"
)

// Metadata is the host-supplied context passed alongside a program. The transform
// does not read it.
type Metadata struct {
	Filename string
	Config   map[string]string
}

// Transform runs the pass over prog with a transformer that discards diagnostics and
// returns the same program. It is the entry point hosts call.
func Transform(prog *jsast.Program, _ Metadata) *jsast.Program {
	return New().Transform(prog)
}

// Transformer walks a program and injects displayName properties. A Transformer holds
// no per-program state; one value may serve many programs sequentially, and distinct
// programs may be transformed concurrently as long as the sink tolerates it.
type Transformer struct {
	sink Sink
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithSink routes diagnostics to sink.
func WithSink(sink Sink) Option {
	return func(t *Transformer) {
		if sink != nil {
			t.sink = sink
		}
	}
}

// New creates a Transformer.
func New(opts ...Option) *Transformer {
	t := &Transformer{sink: discard{}}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Transform mutates prog in place and returns it. The caller hands over exclusive
// access for the duration of the call; no reference is kept afterwards.
func (t *Transformer) Transform(prog *jsast.Program) *jsast.Program {
	if prog == nil {
		return nil
	}

	t.walkStmts(prog.Body)

	return prog
}
