package pipeline_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/displayname/pkg/displayname"
	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
	"github.com/Sumatoshi-tech/displayname/pkg/printer"
)

func TestProcessSource(t *testing.T) {
	t.Parallel()

	res, err := pipeline.NewProcessor().ProcessSource(context.Background(), "App.jsx", []byte(componentSrc))
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, componentOut, string(res.Output))
	assert.Equal(t, jsparse.LangJavaScript, res.Language)
	assert.Len(t, res.Edits, 1)
	assert.Equal(t, map[string]int{"injected": 1}, res.Counts())
}

func TestProcessSourceUnchanged(t *testing.T) {
	t.Parallel()

	res, err := pipeline.NewProcessor().ProcessSource(context.Background(), "store.ts", []byte(plainSrc))
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Equal(t, plainSrc, string(res.Output))
	assert.Equal(t, map[string]int{"not-component": 1}, res.Counts())
}

func TestProcessSourceQuoteAndLanguage(t *testing.T) {
	t.Parallel()

	proc := pipeline.NewProcessor(
		pipeline.WithQuote(printer.QuoteSingle),
		pipeline.WithLanguage(jsparse.LangTSX),
	)

	src := "class Card {\n  render() {\n    return <div />;\n  }\n}\n"

	res, err := proc.ProcessSource(context.Background(), "stdin", []byte(src))
	require.NoError(t, err)

	assert.Contains(t, string(res.Output), "static displayName = 'Card';")
	assert.Equal(t, jsparse.LangTSX, res.Language)
}

func TestProcessSourceSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := pipeline.NewProcessor().ProcessSource(context.Background(), "bad.js", []byte("class { render( {"))
	require.Error(t, err)
	assert.ErrorIs(t, err, jsparse.ErrSyntax)
}

func TestProcessSourceLogsClasses(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := pipeline.NewProcessor(pipeline.WithLogger(logger)).
		ProcessSource(context.Background(), "App.jsx", []byte(componentSrc))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "class visited")
	assert.Contains(t, buf.String(), "file.path=App.jsx")
	assert.Contains(t, buf.String(), "outcome=injected")
}

func TestInspect(t *testing.T) {
	t.Parallel()

	src := componentSrc + "class Named { static displayName = 'x'; render() {} }\n"

	diags, err := pipeline.NewProcessor().Inspect(context.Background(), "App.jsx", []byte(src))
	require.NoError(t, err)
	require.Len(t, diags, 2)

	assert.Equal(t, displayname.OutcomeInjected, diags[0].Outcome)
	assert.Equal(t, "App", diags[0].Class)
	assert.Equal(t, displayname.OutcomeAlreadyNamed, diags[1].Outcome)
}

func TestProcessProgramOnClone(t *testing.T) {
	t.Parallel()

	proc := pipeline.NewProcessor()

	prog, err := proc.Parse(context.Background(), "App.jsx", []byte(componentSrc))
	require.NoError(t, err)

	for range 2 {
		res, procErr := proc.ProcessProgram(context.Background(), "App.jsx", prog.Clone())
		require.NoError(t, procErr)
		assert.Equal(t, componentOut, string(res.Output))
	}

	res, err := proc.ProcessProgram(context.Background(), "App.jsx", prog)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestProcessSourceRejectsUnterminatedClass(t *testing.T) {
	t.Parallel()

	_, err := pipeline.NewProcessor().ProcessSource(context.Background(), "a.js", []byte("class A {\n  render() { return 1 }\n"))
	require.ErrorIs(t, err, jsparse.ErrSyntax)
}
