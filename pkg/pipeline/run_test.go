package pipeline_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/displayname/pkg/cache"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
)

func tree(t *testing.T) (string, []string) {
	t.Helper()

	root := writeTree(t, map[string]string{
		"a/App.jsx":  componentSrc,
		"b/store.ts": plainSrc,
		"c/bad.js":   "class { render( {",
	})

	files, _, err := pipeline.Collect([]string{root}, defaultCollectOptions())
	require.NoError(t, err)
	require.Len(t, files, 3)

	return root, files
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"stdout", "write", "check", "diff"} {
		mode, err := pipeline.ParseMode(name)
		require.NoError(t, err)
		assert.Equal(t, pipeline.Mode(name), mode)
	}

	_, err := pipeline.ParseMode("dry-run")
	assert.ErrorIs(t, err, pipeline.ErrUnknownMode)
}

func TestRunCheck(t *testing.T) {
	t.Parallel()

	root, files := tree(t)

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeCheck, Workers: 2}

	summary, err := runner.Run(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, summary.Files, 3)
	assert.Equal(t, pipeline.StatusChanged, summary.Files[0].Status)
	assert.Equal(t, pipeline.StatusUnchanged, summary.Files[1].Status)
	assert.Equal(t, pipeline.StatusFailed, summary.Files[2].Status)

	err = summary.Err()
	require.ErrorIs(t, err, pipeline.ErrFilesFailed)

	data, readErr := os.ReadFile(filepath.Join(root, "a", "App.jsx"))
	require.NoError(t, readErr)
	assert.Equal(t, componentSrc, string(data), "check must not touch files")
}

func TestRunCheckNeedsChanges(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"App.jsx": componentSrc})

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeCheck}

	summary, err := runner.Run(context.Background(), []string{filepath.Join(root, "App.jsx")})
	require.NoError(t, err)
	assert.ErrorIs(t, summary.Err(), pipeline.ErrChangesNeeded)
}

func TestRunWrite(t *testing.T) {
	t.Parallel()

	root, files := tree(t)

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeWrite}

	summary, err := runner.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(pipeline.StatusChanged))

	data, err := os.ReadFile(filepath.Join(root, "a", "App.jsx"))
	require.NoError(t, err)
	assert.Equal(t, componentOut, string(data))

	data, err = os.ReadFile(filepath.Join(root, "b", "store.ts"))
	require.NoError(t, err)
	assert.Equal(t, plainSrc, string(data))

	// A second pass finds nothing to do.
	again, err := runner.Run(context.Background(), files[:2])
	require.NoError(t, err)
	assert.Equal(t, 0, again.Count(pipeline.StatusChanged))
}

func TestRunStdoutKeepsInputOrder(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"1.jsx": componentSrc,
		"2.ts":  plainSrc,
		"3.jsx": componentSrc,
	})

	files, _, err := pipeline.Collect([]string{root}, pipeline.CollectOptions{Extensions: []string{".jsx", ".ts"}})
	require.NoError(t, err)

	var out bytes.Buffer

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeStdout, Out: &out, Workers: 3}

	_, err = runner.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, componentOut+plainSrc+componentOut, out.String())
}

func TestRunDiff(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"App.jsx": componentSrc, "store.ts": plainSrc})
	path := filepath.Join(root, "App.jsx")

	var out bytes.Buffer

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeDiff, Out: &out}

	_, err := runner.Run(context.Background(), []string{path, filepath.Join(root, "store.ts")})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "--- a/"+path)
	assert.Contains(t, out.String(), "+  static displayName = \"App\";\n")
	assert.NotContains(t, out.String(), "store.ts")
}

func TestRunUsesCache(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"store.ts": plainSrc, "App.jsx": componentSrc})
	files := []string{filepath.Join(root, "App.jsx"), filepath.Join(root, "store.ts")}

	store := cache.New(filepath.Join(t.TempDir(), "cache"), "test")

	reader := sdkmetric.NewManualReader()
	metrics, err := observability.NewTransformMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeCheck, Cache: store, Metrics: metrics}

	first, err := runner.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusUnchanged, first.Files[1].Status)
	assert.Equal(t, 1, store.Len())

	second, err := runner.Run(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusChanged, second.Files[0].Status)
	assert.Equal(t, pipeline.StatusCached, second.Files[1].Status)

	hits, misses := store.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(3), misses)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.NotEmpty(t, rm.ScopeMetrics)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	_, files := tree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeCheck}

	_, err := runner.Run(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSource(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeWrite, Out: &out}

	summary, err := runner.RunSource(context.Background(), "App.jsx", []byte(componentSrc))
	require.NoError(t, err)

	assert.Equal(t, componentOut, out.String())
	assert.Equal(t, 1, summary.Count(pipeline.StatusChanged))
}

func TestRunStdoutEchoesUnparsableFiles(t *testing.T) {
	t.Parallel()

	broken := "class A {\n  render() { return 1 }\n"
	root := writeTree(t, map[string]string{"1.jsx": componentSrc, "2.jsx": broken})

	var out bytes.Buffer

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeStdout, Out: &out}

	summary, err := runner.Run(context.Background(), []string{filepath.Join(root, "1.jsx"), filepath.Join(root, "2.jsx")})
	require.NoError(t, err)

	assert.Equal(t, componentOut+broken, out.String())
	assert.Equal(t, pipeline.StatusFailed, summary.Files[1].Status)
	require.ErrorIs(t, summary.Err(), pipeline.ErrFilesFailed)
}

func TestRunSourceEchoesUnparsableSource(t *testing.T) {
	t.Parallel()

	broken := "class A {\n  render() { return 1 }\n"

	for _, mode := range []pipeline.Mode{pipeline.ModeStdout, pipeline.ModeWrite} {
		var out bytes.Buffer

		runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: mode, Out: &out}

		summary, err := runner.RunSource(context.Background(), "stdin.jsx", []byte(broken))
		require.NoError(t, err)

		assert.Equal(t, broken, out.String(), mode)
		assert.Equal(t, 1, summary.Count(pipeline.StatusFailed), mode)
	}

	var out bytes.Buffer

	runner := &pipeline.Runner{Processor: pipeline.NewProcessor(), Mode: pipeline.ModeDiff, Out: &out}

	_, err := runner.RunSource(context.Background(), "stdin.jsx", []byte(broken))
	require.NoError(t, err)
	assert.Empty(t, out.String())
}
